package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"inventory-system/internal/listeners"
	"inventory-system/internal/routes"
	"inventory-system/pkg/config"
	"inventory-system/pkg/database/migrations"
	"inventory-system/pkg/database/postgresql"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/eventbus"
	applogger "inventory-system/pkg/logger"
	"inventory-system/pkg/middleware"
	"inventory-system/pkg/service"
	"inventory-system/pkg/utils"
	"inventory-system/pkg/validation"
	"inventory-system/pkg/websocket"
)

func main() {
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. База и миграции
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("не удалось подключиться к БД", zap.Error(err))
	}
	defer dbConn.Close()

	if cfg.Postgres.AutoMigrate {
		if err := migrations.Up(ctx, dbConn); err != nil {
			logger.Fatal("ошибка миграций", zap.Error(err))
		}
		logger.Info("✅ Миграции применены")
	}

	// 2. Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer redisClient.Close()
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}

	// 3. Шина событий
	bus := eventbus.New(logger.Named("eventbus"))
	listeners.NewLogListener(logger.Named("events")).Register(bus)
	hub := websocket.NewHub(logger.Named("ws"))
	listeners.NewWebSocketListener(hub, logger.Named("ws")).Register(bus)
	if cfg.Kafka.Enabled {
		producer, err := listeners.NewKafkaProducer(cfg.Kafka)
		if err != nil {
			logger.Fatal("не удалось подключиться к Kafka", zap.Error(err), zap.Strings("brokers", cfg.Kafka.Brokers))
		}
		defer producer.Close()
		listeners.NewKafkaListener(producer, cfg.Kafka.Topic, logger.Named("kafka")).Register(bus)
		logger.Info("✅ Публикация событий в Kafka включена", zap.String("topic", cfg.Kafka.Topic))
	}

	// 4. HTTP
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))

	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	routes.InitRouter(e, dbConn, redisClient, jwtSvc, bus, hub, routes.NewLoggers(logger), cfg)

	go func() {
		logger.Info("🚀 Сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Остановка сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка остановки HTTP-сервера", zap.Error(err))
	}
	// Доотправляем события, опубликованные последними запросами.
	bus.Wait()
	hub.Close(shutdownCtx)
	logger.Info("Сервер остановлен")
}

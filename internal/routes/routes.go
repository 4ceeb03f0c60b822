package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/internal/controllers"
	"inventory-system/internal/repositories"
	"inventory-system/internal/services"
	"inventory-system/pkg/config"
	"inventory-system/pkg/middleware"
	"inventory-system/pkg/service"
	"inventory-system/pkg/websocket"
)

type Loggers struct {
	Main        *zap.Logger
	Auth        *zap.Logger
	Reservation *zap.Logger
	Scan        *zap.Logger
	Equipment   *zap.Logger
}

func NewLoggers(logger *zap.Logger) *Loggers {
	return &Loggers{
		Main:        logger,
		Auth:        logger.Named("auth"),
		Reservation: logger.Named("reservation"),
		Scan:        logger.Named("scan"),
		Equipment:   logger.Named("equipment"),
	}
}

func InitRouter(
	e *echo.Echo,
	dbConn *pgxpool.Pool,
	redisClient *redis.Client,
	jwtSvc service.JWTService,
	publisher services.EventPublisher,
	hub *websocket.Hub,
	loggers *Loggers,
	cfg *config.Config,
) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	api := e.Group("/api")
	txManager := repositories.NewTxManager(dbConn)

	// --- 1. РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(dbConn, loggers.Auth)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	typeRepo := repositories.NewEquipmentTypeRepository(dbConn)
	modelRepo := repositories.NewEquipmentModelRepository(dbConn, loggers.Equipment)
	equipmentRepo := repositories.NewEquipmentRepository(dbConn, loggers.Equipment)
	reservationRepo := repositories.NewReservationRepository(dbConn, loggers.Reservation)
	scanRepo := repositories.NewScanEventRepository(dbConn)

	// --- 2. СЕРВИСЫ ---
	roleService := services.NewAuthRoleService(userRepo, cacheRepo, loggers.Auth, cfg.Redis.RoleTTL)
	authService := services.NewAuthService(userRepo, cacheRepo, loggers.Auth)
	userService := services.NewUserService(userRepo, loggers.Auth)
	catalogService := services.NewCatalogService(typeRepo, modelRepo, loggers.Equipment)
	equipmentService := services.NewEquipmentService(txManager, equipmentRepo, modelRepo, loggers.Equipment)
	availabilityService := services.NewAvailabilityService(modelRepo, equipmentRepo, reservationRepo, loggers.Reservation)
	reservationService := services.NewReservationService(
		txManager, reservationRepo, modelRepo, userRepo, availabilityService,
		publisher, loggers.Reservation, cfg.Reservation.UserCap, cfg.Reservation.ConflictRetries,
	)
	tagService := services.NewTagAllocatorService(txManager, equipmentRepo, userRepo, publisher, loggers.Equipment, cfg.Reservation.ConflictRetries)
	scanService := services.NewScanService(txManager, equipmentRepo, scanRepo, publisher, loggers.Scan, cfg.Reservation.ConflictRetries)
	importService := services.NewEquipmentImportService(equipmentService, tagService, loggers.Equipment)

	// --- 3. КОНТРОЛЛЕРЫ ---
	authMW := middleware.NewAuthMiddleware(jwtSvc, roleService, loggers.Auth)
	authCtrl := controllers.NewAuthController(authService, jwtSvc, loggers.Auth)
	userCtrl := controllers.NewUserController(userService, loggers.Auth)
	catalogCtrl := controllers.NewCatalogController(catalogService, loggers.Equipment)
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, importService, loggers.Equipment)
	availabilityCtrl := controllers.NewAvailabilityController(availabilityService, loggers.Reservation)
	reservationCtrl := controllers.NewReservationController(reservationService, loggers.Reservation)
	tagCtrl := controllers.NewTagController(tagService, loggers.Equipment)
	scanCtrl := controllers.NewScanController(scanService, loggers.Scan)
	wsCtrl := controllers.NewWebSocketController(hub, jwtSvc, roleService, loggers.Main)

	// --- 4. РОУТЕРЫ ---
	runAuthRouter(api, authCtrl, authMW)
	runScanIngestRouter(api, scanCtrl, cfg.Scan.ReaderKey, loggers.Scan)
	api.GET("/ws", wsCtrl.ServeWs)

	secureGroup := api.Group("", authMW.Auth)
	runUserRouter(secureGroup, userCtrl, authMW)
	runCatalogRouter(secureGroup, catalogCtrl, availabilityCtrl, authMW)
	runEquipmentRouter(secureGroup, equipmentCtrl, authMW)
	runReservationRouter(secureGroup, reservationCtrl, authMW)
	runTagRouter(secureGroup, tagCtrl, authMW)
	runScanRouter(secureGroup, scanCtrl, authMW)

	loggers.Main.Info("INIT_ROUTER: Создание маршрутов завершено")
}

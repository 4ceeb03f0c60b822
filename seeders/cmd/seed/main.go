package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"inventory-system/pkg/config"
	"inventory-system/pkg/database/migrations"
	"inventory-system/pkg/database/postgresql"
	"inventory-system/pkg/service"
	"inventory-system/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runCatalog := flag.Bool("catalog", false, "Наполнить типы, модели и экземпляры оборудования")
	runUsers := flag.Bool("users", false, "Создать тестовых пользователей всех ролей")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -catalog -users)")
	flag.Parse()

	if !*runCatalog && !*runUsers && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Пример: go run ./seeders/cmd/seed -all")
		return
	}

	ctx := context.Background()
	cfg := config.New()
	log.Println("📦 Используется DSN:", cfg.Postgres.DSN)

	dbPool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, zap.NewNop())
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к БД: %v", err)
	}
	defer dbPool.Close()

	if err := migrations.Up(ctx, dbPool); err != nil {
		log.Fatalf("❌ Ошибка миграций: %v", err)
	}

	if *runAll || *runCatalog {
		if err := seeders.SeedCatalog(ctx, dbPool); err != nil {
			log.Fatalf("❌ Ошибка наполнения каталога: %v", err)
		}
		log.Println("======================================================")
	}

	if *runAll || *runUsers {
		jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
		if err := seeders.SeedUsers(ctx, dbPool, jwtSvc); err != nil {
			log.Fatalf("❌ Ошибка создания пользователей: %v", err)
		}
		log.Println("======================================================")
	}

	log.Println("🎉 Сидеры выполнены")
}

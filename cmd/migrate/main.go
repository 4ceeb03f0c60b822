package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"inventory-system/pkg/config"
	"inventory-system/pkg/database/migrations"
	"inventory-system/pkg/database/postgresql"
)

func main() {
	direction := flag.String("dir", "up", "Направление миграций: up или down")
	flag.Parse()

	ctx := context.Background()
	cfg := config.New()

	pool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, zap.NewNop())
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к БД: %v", err)
	}
	defer pool.Close()

	switch *direction {
	case "up":
		err = migrations.Up(ctx, pool)
	case "down":
		err = migrations.Down(ctx, pool)
	default:
		log.Fatalf("❌ Неизвестное направление %q", *direction)
	}
	if err != nil {
		log.Fatalf("❌ Миграции: %v", err)
	}
	log.Printf("✅ Миграции %s выполнены", *direction)
}

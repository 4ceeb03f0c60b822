package seeders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inventory-system/pkg/service"
	"inventory-system/pkg/utils"
)

// SeedUsers создает по пользователю на каждую роль и печатает их access-токены для разработки.
func SeedUsers(ctx context.Context, db *pgxpool.Pool, jwtSvc service.JWTService) error {
	log.Println("▶️  Создание тестовых пользователей...")

	hash, err := utils.HashPassword(defaultSeedPassword)
	if err != nil {
		return fmt.Errorf("не удалось захешировать пароль: %w", err)
	}

	for _, u := range usersData {
		var id uint64
		err := db.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", u.Email).Scan(&id)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			err = db.QueryRow(ctx,
				`INSERT INTO users (fio, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id`,
				u.Fio, u.Email, hash, u.Role,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("пользователь %s: %w", u.Email, err)
			}
			log.Printf("    - Создан %s (%s), id=%d", u.Email, u.Role, id)
		case err != nil:
			return fmt.Errorf("ошибка при проверке существования пользователя: %w", err)
		default:
			log.Printf("    - Пользователь %s уже существует. Пропускаем.", u.Email)
		}

		if jwtSvc != nil {
			access, _, err := jwtSvc.GenerateTokens(id)
			if err != nil {
				return err
			}
			log.Printf("      токен %s: %s", u.Role, access)
		}
	}

	log.Printf("✅ Пользователи готовы, пароль: %s", defaultSeedPassword)
	return nil
}

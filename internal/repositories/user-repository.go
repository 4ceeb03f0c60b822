package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"inventory-system/internal/entities"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
)

const (
	userTable        = "users"
	userSelectFields = "u.id, u.fio, u.email, u.password_hash, u.role, u.tag_id, u.created_at, u.updated_at"
)

type UserRepositoryInterface interface {
	FindUser(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error)
	LockUser(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	CreateUser(ctx context.Context, user *entities.User) (uint64, error)
	AssignTag(ctx context.Context, tx pgx.Tx, userID uint64, tagID int) error
	ListAssignedTags(ctx context.Context, tx pgx.Tx, tagRange constants.TagRange) ([]int, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID, &user.Fio, &user.Email, &user.PasswordHash,
		&user.Role, &user.TagID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindUser(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s u WHERE u.id = $1", userSelectFields, userTable)
	user, err := scanUser(pick(r.storage, tx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, apperrors.WrapStorage("поиск пользователя", err)
	}
	return user, nil
}

// LockUser блокирует строку пользователя до конца транзакции.
// Две брони одного студента проверяют лимит строго по очереди.
func (r *UserRepository) LockUser(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	if tx == nil {
		return nil, fmt.Errorf("LockUser вызывается только внутри транзакции")
	}
	query := fmt.Sprintf("SELECT %s FROM %s u WHERE u.id = $1 FOR UPDATE", userSelectFields, userTable)
	user, err := scanUser(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, apperrors.WrapStorage("блокировка пользователя", err)
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s u WHERE LOWER(u.email) = LOWER($1)", userSelectFields, userTable)
	user, err := scanUser(r.storage.QueryRow(ctx, query, email))
	if err != nil {
		return nil, apperrors.WrapStorage("поиск пользователя по email", err)
	}
	return user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *entities.User) (uint64, error) {
	query, args, err := sq.Insert(userTable).
		Columns("fio", "email", "password_hash", "role", "tag_id").
		Values(user.Fio, user.Email, user.PasswordHash, user.Role, user.TagID).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса: %w", err)
	}

	var id uint64
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, apperrors.NewInvalidInputError("Пользователь с email %q уже существует", user.Email)
		}
		return 0, apperrors.WrapStorage("создание пользователя", err)
	}
	return id, nil
}

func (r *UserRepository) AssignTag(ctx context.Context, tx pgx.Tx, userID uint64, tagID int) error {
	result, err := pick(r.storage, tx).Exec(ctx,
		`UPDATE users SET tag_id = $1, updated_at = NOW() WHERE id = $2`,
		tagID, userID,
	)
	if err != nil {
		return apperrors.WrapStorage("назначение метки пользователю", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ListAssignedTags(ctx context.Context, tx pgx.Tx, tagRange constants.TagRange) ([]int, error) {
	return listTags(ctx, pick(r.storage, tx), userTable, tagRange)
}

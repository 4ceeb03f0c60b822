package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inventory-system/internal/entities"
	apperrors "inventory-system/pkg/errors"
)

const equipmentTypeTable = "equipment_types"

type EquipmentTypeRepositoryInterface interface {
	GetTypes(ctx context.Context) ([]entities.EquipmentType, error)
	FindType(ctx context.Context, id uint64) (*entities.EquipmentType, error)
	CreateType(ctx context.Context, name string) (uint64, error)
}

type EquipmentTypeRepository struct {
	storage *pgxpool.Pool
}

func NewEquipmentTypeRepository(storage *pgxpool.Pool) EquipmentTypeRepositoryInterface {
	return &EquipmentTypeRepository{storage: storage}
}

func (r *EquipmentTypeRepository) GetTypes(ctx context.Context) ([]entities.EquipmentType, error) {
	query, args, err := sq.Select("id", "name", "created_at", "updated_at").
		From(equipmentTypeTable).
		OrderBy("name").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса типов: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.WrapStorage("список типов оборудования", err)
	}
	defer rows.Close()

	list := make([]entities.EquipmentType, 0)
	for rows.Next() {
		var t entities.EquipmentType
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, apperrors.WrapStorage("сканирование типа оборудования", err)
		}
		list = append(list, t)
	}
	return list, apperrors.WrapStorage("список типов оборудования", rows.Err())
}

func (r *EquipmentTypeRepository) FindType(ctx context.Context, id uint64) (*entities.EquipmentType, error) {
	var t entities.EquipmentType
	err := r.storage.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM equipment_types WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.WrapStorage("поиск типа оборудования", err)
	}
	return &t, nil
}

func (r *EquipmentTypeRepository) CreateType(ctx context.Context, name string) (uint64, error) {
	var id uint64
	err := r.storage.QueryRow(ctx,
		`INSERT INTO equipment_types (name) VALUES ($1) RETURNING id`, name,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperrors.NewInvalidInputError("Тип оборудования %q уже существует", name)
		}
		return 0, apperrors.WrapStorage("создание типа оборудования", err)
	}
	return id, nil
}

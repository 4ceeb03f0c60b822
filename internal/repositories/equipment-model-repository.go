package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"inventory-system/internal/entities"
	apperrors "inventory-system/pkg/errors"
)

const (
	equipmentModelTable  = "equipment_models"
	equipmentModelFields = "m.id, m.type_id, m.name, m.photo_ref, m.created_at, m.updated_at"
)

type EquipmentModelRepositoryInterface interface {
	GetModels(ctx context.Context) ([]entities.EquipmentModel, error)
	FindModel(ctx context.Context, tx pgx.Tx, id uint64) (*entities.EquipmentModel, error)
	LockModels(ctx context.Context, tx pgx.Tx, ids []uint64) (map[uint64]entities.EquipmentModel, error)
	CreateModel(ctx context.Context, model entities.EquipmentModel) (uint64, error)
	UpdateModel(ctx context.Context, id uint64, name string, photoRef *string) error
	DeleteModel(ctx context.Context, id uint64) error
}

type EquipmentModelRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentModelRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentModelRepositoryInterface {
	return &EquipmentModelRepository{storage: storage, logger: logger}
}

func scanModel(row pgx.Row) (*entities.EquipmentModel, error) {
	var m entities.EquipmentModel
	err := row.Scan(&m.ID, &m.TypeID, &m.Name, &m.PhotoRef, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования модели: %w", err)
	}
	return &m, nil
}

func (r *EquipmentModelRepository) GetModels(ctx context.Context) ([]entities.EquipmentModel, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s m ORDER BY m.id`, equipmentModelFields, equipmentModelTable)

	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, apperrors.WrapStorage("список моделей", err)
	}
	defer rows.Close()

	models := make([]entities.EquipmentModel, 0)
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, apperrors.WrapStorage("список моделей", err)
		}
		models = append(models, *m)
	}
	return models, apperrors.WrapStorage("список моделей", rows.Err())
}

func (r *EquipmentModelRepository) FindModel(ctx context.Context, tx pgx.Tx, id uint64) (*entities.EquipmentModel, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s m WHERE m.id = $1`, equipmentModelFields, equipmentModelTable)
	m, err := scanModel(pick(r.storage, tx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, apperrors.WrapStorage("поиск модели", err)
	}
	return m, nil
}

// LockModels берет FOR UPDATE на строки моделей в порядке возрастания id.
// Единый порядок блокировок исключает дедлок между двумя бронями на пересекающиеся наборы моделей.
// Несуществующих моделей в результате просто нет.
func (r *EquipmentModelRepository) LockModels(ctx context.Context, tx pgx.Tx, ids []uint64) (map[uint64]entities.EquipmentModel, error) {
	if tx == nil {
		return nil, fmt.Errorf("LockModels вызывается только внутри транзакции")
	}
	unique := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	query := fmt.Sprintf(`SELECT %s FROM %s m WHERE m.id = ANY($1) ORDER BY m.id FOR UPDATE`, equipmentModelFields, equipmentModelTable)
	rows, err := tx.Query(ctx, query, unique)
	if err != nil {
		return nil, apperrors.WrapStorage("блокировка моделей", err)
	}
	defer rows.Close()

	locked := make(map[uint64]entities.EquipmentModel, len(unique))
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, apperrors.WrapStorage("блокировка моделей", err)
		}
		locked[m.ID] = *m
	}
	return locked, apperrors.WrapStorage("блокировка моделей", rows.Err())
}

func (r *EquipmentModelRepository) CreateModel(ctx context.Context, model entities.EquipmentModel) (uint64, error) {
	query, args, err := sq.Insert(equipmentModelTable).
		Columns("type_id", "name", "photo_ref").
		Values(model.TypeID, model.Name, model.PhotoRef).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса: %w", err)
	}

	var id uint64
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if isForeignKeyViolation(err) {
			return 0, apperrors.NewValidationError(apperrors.ReasonUnknownModel, "Тип оборудования %d не существует", model.TypeID)
		}
		return 0, apperrors.WrapStorage("создание модели", err)
	}
	return id, nil
}

// UpdateModel меняет только имя и фото: тип модели неизменяем.
func (r *EquipmentModelRepository) UpdateModel(ctx context.Context, id uint64, name string, photoRef *string) error {
	query, args, err := sq.Update(equipmentModelTable).
		Set("name", name).
		Set("photo_ref", photoRef).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса: %w", err)
	}

	result, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return apperrors.WrapStorage("обновление модели", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteModel удаляет модель, только если на нее не ссылается ни один экземпляр и ни одна строка брони.
func (r *EquipmentModelRepository) DeleteModel(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM equipment_models WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			r.logger.Warn("DeleteModel: модель используется", zap.Uint64("modelID", id))
			return apperrors.NewValidationError(apperrors.ReasonModelInUse, "Модель %d используется экземплярами или бронями", id)
		}
		return apperrors.WrapStorage("удаление модели", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

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
	db "inventory-system/internal/infrastructure/bd"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/types"
)

const (
	equipmentUnitTable  = "equipment_units"
	equipmentUnitFields = "u.serial_id, u.model_id, u.type_id, u.maintenance_status, u.usage_condition, u.current_location, u.tag_id, u.home_locations, u.created_at, u.updated_at"
	equipmentUnitPKey   = "equipment_units_pkey"
)

// Поля, по которым разрешено фильтровать и сортировать список.
var equipmentUnitMap = map[string]string{
	"serial_id":          "u.serial_id",
	"model_id":           "u.model_id",
	"type_id":            "u.type_id",
	"maintenance_status": "u.maintenance_status",
	"usage_condition":    "u.usage_condition",
	"current_location":   "u.current_location",
	"created_at":         "u.created_at",
}

type EquipmentRepositoryInterface interface {
	GetUnits(ctx context.Context, filter types.Filter) ([]entities.EquipmentUnit, uint64, error)
	FindUnit(ctx context.Context, tx pgx.Tx, serialID string) (*entities.EquipmentUnit, error)
	FindUnitByTagForUpdate(ctx context.Context, tx pgx.Tx, tagID int) (*entities.EquipmentUnit, error)
	CreateUnit(ctx context.Context, tx pgx.Tx, unit entities.EquipmentUnit) error
	UpdateUnit(ctx context.Context, tx pgx.Tx, unit entities.EquipmentUnit) error
	UpdateLocation(ctx context.Context, tx pgx.Tx, serialID string, location *string) error
	AssignTag(ctx context.Context, tx pgx.Tx, serialID string, tagID int) error
	CountReadyUnits(ctx context.Context, tx pgx.Tx, modelID uint64) (int, error)
	ListAssignedTags(ctx context.Context, tx pgx.Tx, tagRange constants.TagRange) ([]int, error)
}

type EquipmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentRepositoryInterface {
	return &EquipmentRepository{
		storage: storage,
		logger:  logger,
	}
}

func scanUnit(row pgx.Row) (*entities.EquipmentUnit, error) {
	var u entities.EquipmentUnit
	err := row.Scan(
		&u.SerialID, &u.ModelID, &u.TypeID,
		&u.MaintenanceStatus, &u.UsageCondition,
		&u.CurrentLocation, &u.TagID, &u.HomeLocations,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования экземпляра: %w", err)
	}
	if u.HomeLocations == nil {
		u.HomeLocations = []string{}
	}
	return &u, nil
}

func (r *EquipmentRepository) GetUnits(ctx context.Context, filter types.Filter) ([]entities.EquipmentUnit, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(*)").From(equipmentUnitTable + " u")
	countBuilder = db.ApplyFilters(countBuilder, filter, equipmentUnitMap)
	countBuilder = db.ApplySearch(countBuilder, filter.Search, "u.serial_id", "u.current_location")
	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса подсчета: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.WrapStorage("подсчет экземпляров", err)
	}

	builder := psql.Select(equipmentUnitFields).From(equipmentUnitTable + " u")
	builder = db.ApplySearch(builder, filter.Search, "u.serial_id", "u.current_location")
	builder = db.ApplyListParams(builder, filter, equipmentUnitMap, "u.serial_id ASC")
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.WrapStorage("список экземпляров", err)
	}
	defer rows.Close()

	units := make([]entities.EquipmentUnit, 0)
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, 0, apperrors.WrapStorage("список экземпляров", err)
		}
		units = append(units, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.WrapStorage("список экземпляров", err)
	}
	return units, total, nil
}

func (r *EquipmentRepository) FindUnit(ctx context.Context, tx pgx.Tx, serialID string) (*entities.EquipmentUnit, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s u WHERE u.serial_id = $1`, equipmentUnitFields, equipmentUnitTable)
	if tx != nil {
		query += " FOR UPDATE"
	}
	u, err := scanUnit(pick(r.storage, tx).QueryRow(ctx, query, serialID))
	if err != nil {
		return nil, apperrors.WrapStorage("поиск экземпляра", err)
	}
	return u, nil
}

// FindUnitByTagForUpdate блокирует строку экземпляра: параллельные сканы одной метки идут по очереди.
func (r *EquipmentRepository) FindUnitByTagForUpdate(ctx context.Context, tx pgx.Tx, tagID int) (*entities.EquipmentUnit, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s u WHERE u.tag_id = $1 FOR UPDATE`, equipmentUnitFields, equipmentUnitTable)
	u, err := scanUnit(pick(r.storage, tx).QueryRow(ctx, query, tagID))
	if err != nil {
		return nil, apperrors.WrapStorage("поиск экземпляра по метке", err)
	}
	return u, nil
}

func (r *EquipmentRepository) CreateUnit(ctx context.Context, tx pgx.Tx, unit entities.EquipmentUnit) error {
	homes := unit.HomeLocations
	if homes == nil {
		homes = []string{}
	}
	query, args, err := sq.Insert(equipmentUnitTable).
		Columns("serial_id", "model_id", "type_id", "maintenance_status", "usage_condition", "current_location", "tag_id", "home_locations").
		Values(unit.SerialID, unit.ModelID, unit.TypeID, unit.MaintenanceStatus, unit.UsageCondition, unit.CurrentLocation, unit.TagID, homes).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса: %w", err)
	}

	if _, err := pick(r.storage, tx).Exec(ctx, query, args...); err != nil {
		if _, constraint := pgErrorCode(err); isUniqueViolation(err) && constraint == equipmentUnitPKey {
			return apperrors.NewInvalidInputError("Экземпляр с серийным номером %q уже существует", unit.SerialID)
		}
		if isForeignKeyViolation(err) {
			return apperrors.NewValidationError(apperrors.ReasonTypeMismatch, "Модель %d с типом %d не существует", unit.ModelID, unit.TypeID)
		}
		return apperrors.WrapStorage("создание экземпляра", err)
	}
	return nil
}

func (r *EquipmentRepository) UpdateUnit(ctx context.Context, tx pgx.Tx, unit entities.EquipmentUnit) error {
	homes := unit.HomeLocations
	if homes == nil {
		homes = []string{}
	}
	query, args, err := sq.Update(equipmentUnitTable).
		Set("model_id", unit.ModelID).
		Set("type_id", unit.TypeID).
		Set("maintenance_status", unit.MaintenanceStatus).
		Set("usage_condition", unit.UsageCondition).
		Set("home_locations", homes).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"serial_id": unit.SerialID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса: %w", err)
	}

	result, err := pick(r.storage, tx).Exec(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NewValidationError(apperrors.ReasonTypeMismatch, "Модель %d с типом %d не существует", unit.ModelID, unit.TypeID)
		}
		return apperrors.WrapStorage("обновление экземпляра", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EquipmentRepository) UpdateLocation(ctx context.Context, tx pgx.Tx, serialID string, location *string) error {
	result, err := pick(r.storage, tx).Exec(ctx,
		`UPDATE equipment_units SET current_location = $1, updated_at = NOW() WHERE serial_id = $2`,
		location, serialID,
	)
	if err != nil {
		return apperrors.WrapStorage("обновление местоположения", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AssignTag полагается на UNIQUE(tag_id): второй параллельный писатель получит ErrConflict.
func (r *EquipmentRepository) AssignTag(ctx context.Context, tx pgx.Tx, serialID string, tagID int) error {
	result, err := pick(r.storage, tx).Exec(ctx,
		`UPDATE equipment_units SET tag_id = $1, updated_at = NOW() WHERE serial_id = $2`,
		tagID, serialID,
	)
	if err != nil {
		return apperrors.WrapStorage("назначение метки экземпляру", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EquipmentRepository) CountReadyUnits(ctx context.Context, tx pgx.Tx, modelID uint64) (int, error) {
	var count int
	err := pick(r.storage, tx).QueryRow(ctx,
		`SELECT COUNT(*) FROM equipment_units WHERE model_id = $1 AND maintenance_status = $2`,
		modelID, constants.MaintenanceReady,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.WrapStorage("подсчет исправных экземпляров", err)
	}
	return count, nil
}

func (r *EquipmentRepository) ListAssignedTags(ctx context.Context, tx pgx.Tx, tagRange constants.TagRange) ([]int, error) {
	return listTags(ctx, pick(r.storage, tx), equipmentUnitTable, tagRange)
}

// listTags читает все занятые идентификаторы диапазона из указанной таблицы.
func listTags(ctx context.Context, q querier, table string, tagRange constants.TagRange) ([]int, error) {
	query := fmt.Sprintf(`SELECT tag_id FROM %s WHERE tag_id BETWEEN $1 AND $2 ORDER BY tag_id`, table)
	rows, err := q.Query(ctx, query, tagRange.Min, tagRange.Max)
	if err != nil {
		return nil, apperrors.WrapStorage("список занятых меток", err)
	}
	defer rows.Close()

	tags := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.WrapStorage("список занятых меток", err)
		}
		tags = append(tags, id)
	}
	return tags, apperrors.WrapStorage("список занятых меток", rows.Err())
}

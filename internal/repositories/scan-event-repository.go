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

const (
	scanEventTable  = "scan_events"
	scanEventFields = "s.id, s.equipment_tag_id, s.scan_time, s.is_walk_in, s.location_reader_id"
)

type ScanEventRepositoryInterface interface {
	FindLastByTag(ctx context.Context, tx pgx.Tx, tagID int) (*entities.ScanEvent, error)
	CreateScanEvent(ctx context.Context, tx pgx.Tx, event *entities.ScanEvent) error
	GetByTag(ctx context.Context, tagID int, limit uint64) ([]entities.ScanEvent, error)
}

type ScanEventRepository struct {
	storage *pgxpool.Pool
}

func NewScanEventRepository(storage *pgxpool.Pool) ScanEventRepositoryInterface {
	return &ScanEventRepository{storage: storage}
}

func scanScanEvent(row pgx.Row) (*entities.ScanEvent, error) {
	var e entities.ScanEvent
	err := row.Scan(&e.ID, &e.EquipmentTagID, &e.ScanTime, &e.IsWalkIn, &e.LocationReaderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования события антенны: %w", err)
	}
	return &e, nil
}

// FindLastByTag возвращает последнее событие метки или ErrNotFound, если меток еще не видели.
// При равном времени побеждает более поздняя запись.
func (r *ScanEventRepository) FindLastByTag(ctx context.Context, tx pgx.Tx, tagID int) (*entities.ScanEvent, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s s WHERE s.equipment_tag_id = $1 ORDER BY s.scan_time DESC, s.id DESC LIMIT 1`,
		scanEventFields, scanEventTable,
	)
	e, err := scanScanEvent(pick(r.storage, tx).QueryRow(ctx, query, tagID))
	if err != nil {
		return nil, apperrors.WrapStorage("последнее событие метки", err)
	}
	return e, nil
}

func (r *ScanEventRepository) CreateScanEvent(ctx context.Context, tx pgx.Tx, event *entities.ScanEvent) error {
	query, args, err := sq.Insert(scanEventTable).
		Columns("equipment_tag_id", "scan_time", "is_walk_in", "location_reader_id").
		Values(event.EquipmentTagID, event.ScanTime, event.IsWalkIn, event.LocationReaderID).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса: %w", err)
	}
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&event.ID); err != nil {
		return apperrors.WrapStorage("запись события антенны", err)
	}
	return nil
}

func (r *ScanEventRepository) GetByTag(ctx context.Context, tagID int, limit uint64) ([]entities.ScanEvent, error) {
	builder := sq.Select(scanEventFields).
		From(scanEventTable + " s").
		Where(sq.Eq{"s.equipment_tag_id": tagID}).
		OrderBy("s.scan_time DESC", "s.id DESC").
		PlaceholderFormat(sq.Dollar)
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.WrapStorage("история сканирований", err)
	}
	defer rows.Close()

	events := make([]entities.ScanEvent, 0)
	for rows.Next() {
		e, err := scanScanEvent(rows)
		if err != nil {
			return nil, apperrors.WrapStorage("история сканирований", err)
		}
		events = append(events, *e)
	}
	return events, apperrors.WrapStorage("история сканирований", rows.Err())
}

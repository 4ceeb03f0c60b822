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
	reservationTable      = "reservations"
	reservationLineTable  = "reservation_lines"
	reservationFields     = "r.id, r.requester_id, r.start_date, r.end_date, r.status, r.responder_id, r.created_at, r.updated_at"
	reservationLineFields = "l.id, l.reservation_id, l.model_id, l.type_id, l.quantity"
)

var reservationMap = map[string]string{
	"id":         "r.id",
	"status":     "r.status",
	"start_date": "r.start_date",
	"end_date":   "r.end_date",
	"created_at": "r.created_at",
}

type ReservationRepositoryInterface interface {
	SumReservedQuantity(ctx context.Context, tx pgx.Tx, modelID uint64, dr types.DateRange) (int, error)
	SumUserReservedQuantity(ctx context.Context, tx pgx.Tx, userID uint64, dr types.DateRange) (int, error)
	CreateReservation(ctx context.Context, tx pgx.Tx, reservation *entities.Reservation) (uint64, error)
	FindReservation(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Reservation, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status constants.ReservationStatus, responderID *uint64) error
	GetUserReservations(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Reservation, uint64, error)
}

type ReservationRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewReservationRepository(storage *pgxpool.Pool, logger *zap.Logger) ReservationRepositoryInterface {
	return &ReservationRepository{storage: storage, logger: logger}
}

func scanReservation(row pgx.Row) (*entities.Reservation, error) {
	var r entities.Reservation
	err := row.Scan(
		&r.ID, &r.RequesterID, &r.StartDate, &r.EndDate,
		&r.Status, &r.ResponderID, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования брони: %w", err)
	}
	return &r, nil
}

// SumReservedQuantity - сколько единиц модели занято активными бронями,
// пересекающимися с dr (обе границы включительно).
func (r *ReservationRepository) SumReservedQuantity(ctx context.Context, tx pgx.Tx, modelID uint64, dr types.DateRange) (int, error) {
	query, args, err := sq.Select("COALESCE(SUM(l.quantity), 0)").
		From(reservationLineTable + " l").
		Join(reservationTable + " r ON r.id = l.reservation_id").
		Where(sq.Eq{"l.model_id": modelID}).
		Where(sq.Eq{"r.status": constants.ActiveReservationStatuses}).
		Where(sq.LtOrEq{"r.start_date": dr.End}).
		Where(sq.GtOrEq{"r.end_date": dr.Start}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса: %w", err)
	}

	var sum int
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&sum); err != nil {
		return 0, apperrors.WrapStorage("сумма забронированного", err)
	}
	return sum, nil
}

// SumUserReservedQuantity - суммарное количество единиц во всех активных бронях пользователя,
// пересекающихся с dr, независимо от модели.
func (r *ReservationRepository) SumUserReservedQuantity(ctx context.Context, tx pgx.Tx, userID uint64, dr types.DateRange) (int, error) {
	query, args, err := sq.Select("COALESCE(SUM(l.quantity), 0)").
		From(reservationLineTable + " l").
		Join(reservationTable + " r ON r.id = l.reservation_id").
		Where(sq.Eq{"r.requester_id": userID}).
		Where(sq.Eq{"r.status": constants.ActiveReservationStatuses}).
		Where(sq.LtOrEq{"r.start_date": dr.End}).
		Where(sq.GtOrEq{"r.end_date": dr.Start}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса: %w", err)
	}

	var sum int
	if err := pick(r.storage, tx).QueryRow(ctx, query, args...).Scan(&sum); err != nil {
		return 0, apperrors.WrapStorage("сумма броней пользователя", err)
	}
	return sum, nil
}

// CreateReservation вставляет бронь и все ее строки. Вызывается только внутри транзакции.
func (r *ReservationRepository) CreateReservation(ctx context.Context, tx pgx.Tx, reservation *entities.Reservation) (uint64, error) {
	if tx == nil {
		return 0, fmt.Errorf("CreateReservation вызывается только внутри транзакции")
	}

	query, args, err := sq.Insert(reservationTable).
		Columns("requester_id", "start_date", "end_date", "status", "responder_id").
		Values(reservation.RequesterID, reservation.StartDate, reservation.EndDate, reservation.Status, reservation.ResponderID).
		Suffix("RETURNING id, created_at, updated_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса брони: %w", err)
	}
	if err := tx.QueryRow(ctx, query, args...).Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt); err != nil {
		return 0, apperrors.WrapStorage("создание брони", err)
	}

	lines := sq.Insert(reservationLineTable).
		Columns("reservation_id", "model_id", "type_id", "quantity").
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar)
	for _, line := range reservation.Lines {
		lines = lines.Values(reservation.ID, line.ModelID, line.TypeID, line.Quantity)
	}
	linesSQL, linesArgs, err := lines.ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса строк брони: %w", err)
	}

	rows, err := tx.Query(ctx, linesSQL, linesArgs...)
	if err != nil {
		return 0, apperrors.WrapStorage("создание строк брони", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if err := rows.Scan(&reservation.Lines[i].ID); err != nil {
			return 0, apperrors.WrapStorage("создание строк брони", err)
		}
		reservation.Lines[i].ReservationID = reservation.ID
		i++
	}
	if err := rows.Err(); err != nil {
		return 0, apperrors.WrapStorage("создание строк брони", err)
	}

	r.logger.Debug("бронь записана", zap.Uint64("reservationID", reservation.ID), zap.Int("lines", len(reservation.Lines)))
	return reservation.ID, nil
}

// FindReservation внутри транзакции блокирует строку брони FOR UPDATE.
func (r *ReservationRepository) FindReservation(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Reservation, error) {
	q := pick(r.storage, tx)

	query := fmt.Sprintf("SELECT %s FROM %s r WHERE r.id = $1", reservationFields, reservationTable)
	if tx != nil {
		query += " FOR UPDATE"
	}
	reservation, err := scanReservation(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, apperrors.WrapStorage("поиск брони", err)
	}

	linesByReservation, err := r.findLines(ctx, q, []uint64{reservation.ID})
	if err != nil {
		return nil, err
	}
	reservation.Lines = linesByReservation[reservation.ID]
	return reservation, nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uint64, status constants.ReservationStatus, responderID *uint64) error {
	query, args, err := sq.Update(reservationTable).
		Set("status", status).
		Set("responder_id", responderID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса: %w", err)
	}

	result, err := pick(r.storage, tx).Exec(ctx, query, args...)
	if err != nil {
		return apperrors.WrapStorage("смена статуса брони", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ReservationRepository) GetUserReservations(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Reservation, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(*)").From(reservationTable + " r").Where(sq.Eq{"r.requester_id": userID})
	countBuilder = db.ApplyFilters(countBuilder, filter, reservationMap)
	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса подсчета: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.WrapStorage("подсчет броней", err)
	}
	if total == 0 {
		return []entities.Reservation{}, 0, nil
	}

	builder := psql.Select(reservationFields).From(reservationTable + " r").Where(sq.Eq{"r.requester_id": userID})
	builder = db.ApplyListParams(builder, filter, reservationMap, "r.start_date DESC, r.id DESC")
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.WrapStorage("список броней", err)
	}
	defer rows.Close()

	list := make([]entities.Reservation, 0)
	ids := make([]uint64, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, 0, apperrors.WrapStorage("список броней", err)
		}
		list = append(list, *res)
		ids = append(ids, res.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.WrapStorage("список броней", err)
	}

	linesByReservation, err := r.findLines(ctx, r.storage, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		list[i].Lines = linesByReservation[list[i].ID]
	}
	return list, total, nil
}

func (r *ReservationRepository) findLines(ctx context.Context, q querier, reservationIDs []uint64) (map[uint64][]entities.ReservationLine, error) {
	result := make(map[uint64][]entities.ReservationLine, len(reservationIDs))
	if len(reservationIDs) == 0 {
		return result, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s l WHERE l.reservation_id = ANY($1) ORDER BY l.id", reservationLineFields, reservationLineTable)
	rows, err := q.Query(ctx, query, reservationIDs)
	if err != nil {
		return nil, apperrors.WrapStorage("строки брони", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l entities.ReservationLine
		if err := rows.Scan(&l.ID, &l.ReservationID, &l.ModelID, &l.TypeID, &l.Quantity); err != nil {
			return nil, apperrors.WrapStorage("строки брони", err)
		}
		result[l.ReservationID] = append(result[l.ReservationID], l)
	}
	return result, apperrors.WrapStorage("строки брони", rows.Err())
}

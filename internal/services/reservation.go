package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inventory-system/internal/entities"
	"inventory-system/internal/events"
	"inventory-system/internal/repositories"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/types"
)

// DefaultUserCap - лимит единиц на пересекающиеся брони одного не-преподавателя.
const DefaultUserCap = 2

type ReservationServiceInterface interface {
	CreateReservation(ctx context.Context, requesterID uint64, start, end time.Time, lines []entities.ReservationLine) (*entities.Reservation, error)
	ApproveReservation(ctx context.Context, reservationID, responderID uint64) (*entities.Reservation, error)
	CancelOrRejectReservation(ctx context.Context, reservationID, actingUserID uint64) (*entities.Reservation, error)
	GetReservation(ctx context.Context, reservationID, actingUserID uint64) (*entities.Reservation, error)
	GetUserReservations(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Reservation, uint64, error)
}

type ReservationService struct {
	txManager       repositories.TxManagerInterface
	reservationRepo repositories.ReservationRepositoryInterface
	modelRepo       repositories.EquipmentModelRepositoryInterface
	userRepo        repositories.UserRepositoryInterface
	availability    AvailabilityServiceInterface
	publisher       EventPublisher
	logger          *zap.Logger
	userCap         int
	retries         int
}

func NewReservationService(
	txManager repositories.TxManagerInterface,
	reservationRepo repositories.ReservationRepositoryInterface,
	modelRepo repositories.EquipmentModelRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	availability AvailabilityServiceInterface,
	publisher EventPublisher,
	logger *zap.Logger,
	userCap int,
	retries int,
) *ReservationService {
	if userCap <= 0 {
		userCap = DefaultUserCap
	}
	if retries <= 0 {
		retries = DefaultConflictRetries
	}
	return &ReservationService{
		txManager:       txManager,
		reservationRepo: reservationRepo,
		modelRepo:       modelRepo,
		userRepo:        userRepo,
		availability:    availability,
		publisher:       publisherOrNoop(publisher),
		logger:          logger,
		userCap:         userCap,
		retries:         retries,
	}
}

// CreateReservation проверяет и записывает бронь в одной транзакции.
//
// Порядок блокировок: строка пользователя, затем строки моделей по возрастанию id.
// Пока транзакция держит их, никто другой не может забронировать те же модели
// или увеличить сумму броней того же пользователя, поэтому проверка доступности
// и вставка выполняются атомарно. Гонка, пойманная базой (дедлок, сериализация),
// повторяется целиком, включая проверки.
func (s *ReservationService) CreateReservation(ctx context.Context, requesterID uint64, start, end time.Time, lines []entities.ReservationLine) (*entities.Reservation, error) {
	dr, err := types.NewDateRange(start, end)
	if err != nil {
		return nil, apperrors.NewValidationError(apperrors.ReasonInvalidDateRange, "%s", err.Error())
	}
	if len(lines) == 0 {
		return nil, apperrors.NewValidationError(apperrors.ReasonNoLines, "Бронь должна содержать хотя бы одну позицию")
	}
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, apperrors.NewValidationError(apperrors.ReasonInvalidQuantity,
				"Позиция %d: количество должно быть положительным, получено %d", i+1, line.Quantity)
		}
	}

	var created *entities.Reservation
	err = withConflictRetry(ctx, s.logger, s.retries, "CreateReservation", func() error {
		return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
			res, err := s.createInTx(ctx, tx, requesterID, dr, lines)
			if err != nil {
				return err
			}
			created = res
			return nil
		})
	})
	if err != nil {
		if _, ok := apperrors.IsValidation(err); ok {
			s.logger.Info("CreateReservation: отклонено", zap.Uint64("requesterID", requesterID), zap.String("range", dr.String()), zap.Error(err))
		} else {
			s.logger.Error("CreateReservation: ошибка", zap.Uint64("requesterID", requesterID), zap.Error(err))
		}
		return nil, err
	}

	units := 0
	for _, l := range created.Lines {
		units += l.Quantity
	}
	s.publisher.Publish(ctx, events.NewReservationCreated(
		created.ID, created.RequesterID,
		created.StartDate.Format(types.DateLayout), created.EndDate.Format(types.DateLayout),
		string(created.Status), units,
	))
	s.logger.Info("Бронь создана",
		zap.Uint64("reservationID", created.ID),
		zap.Uint64("requesterID", requesterID),
		zap.String("status", string(created.Status)),
		zap.String("range", dr.String()),
	)
	return created, nil
}

func (s *ReservationService) createInTx(ctx context.Context, tx pgx.Tx, requesterID uint64, dr types.DateRange, lines []entities.ReservationLine) (*entities.Reservation, error) {
	requester, err := s.userRepo.LockUser(ctx, tx, requesterID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("пользователь %d: %w", requesterID, apperrors.ErrNotFound)
		}
		return nil, err
	}

	modelIDs := make([]uint64, 0, len(lines))
	for _, l := range lines {
		modelIDs = append(modelIDs, l.ModelID)
	}
	locked, err := s.modelRepo.LockModels(ctx, tx, modelIDs)
	if err != nil {
		return nil, err
	}

	capped := !requester.Role.AutoApproves()
	userTotal := 0
	if capped {
		userTotal, err = s.reservationRepo.SumUserReservedQuantity(ctx, tx, requesterID, dr)
		if err != nil {
			return nil, err
		}
	}

	free := make(map[uint64]int, len(locked))
	requested := make(map[uint64]int, len(locked))
	for i, line := range lines {
		n := i + 1
		model, ok := locked[line.ModelID]
		if !ok {
			return nil, apperrors.NewValidationError(apperrors.ReasonUnknownModel, "Позиция %d: модель %d не существует", n, line.ModelID)
		}
		if model.TypeID != line.TypeID {
			return nil, apperrors.NewValidationError(apperrors.ReasonTypeMismatch,
				"Позиция %d: модель %d не относится к типу %d", n, line.ModelID, line.TypeID)
		}

		available, seen := free[line.ModelID]
		if !seen {
			available, err = s.availability.FreeUnits(ctx, tx, line.ModelID, dr)
			if err != nil {
				return nil, err
			}
			free[line.ModelID] = available
		}
		requested[line.ModelID] += line.Quantity
		if requested[line.ModelID] > available {
			return nil, apperrors.NewValidationError(apperrors.ReasonQuantityExceeds,
				"Позиция %d: запрошено %d ед. модели %q, доступно %d на %s",
				n, requested[line.ModelID], model.Name, available, dr.String())
		}

		if capped {
			userTotal += line.Quantity
			if userTotal > s.userCap {
				return nil, apperrors.NewValidationError(apperrors.ReasonUserCapExceeded,
					"Позиция %d: превышен лимит %d ед. на пользователя за %s (с учетом этой брони %d)",
					n, s.userCap, dr.String(), userTotal)
			}
		}
	}

	reservation := &entities.Reservation{
		RequesterID: requesterID,
		StartDate:   dr.Start,
		EndDate:     dr.End,
		Status:      constants.ReservationRequested,
		Lines:       make([]entities.ReservationLine, len(lines)),
	}
	copy(reservation.Lines, lines)
	if requester.Role.AutoApproves() {
		reservation.Status = constants.ReservationApproved
		reservation.ResponderID = &requesterID
	}

	if _, err := s.reservationRepo.CreateReservation(ctx, tx, reservation); err != nil {
		return nil, err
	}
	return reservation, nil
}

// ApproveReservation: Requested -> Approved. Одобрять могут только преподаватели и администраторы.
func (s *ReservationService) ApproveReservation(ctx context.Context, reservationID, responderID uint64) (*entities.Reservation, error) {
	var (
		result *entities.Reservation
		from   constants.ReservationStatus
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		responder, err := s.userRepo.FindUser(ctx, tx, responderID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.ErrForbidden
			}
			return err
		}
		if !responder.Role.IsStaff() {
			return apperrors.ErrForbidden
		}

		reservation, err := s.reservationRepo.FindReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if reservation.Status != constants.ReservationRequested {
			return apperrors.NewValidationError(apperrors.ReasonInvalidTransition,
				"Бронь %d в статусе %s не может быть одобрена", reservationID, reservation.Status)
		}

		if err := s.reservationRepo.UpdateStatus(ctx, tx, reservationID, constants.ReservationApproved, &responderID); err != nil {
			return err
		}
		from = reservation.Status
		reservation.Status = constants.ReservationApproved
		reservation.ResponderID = &responderID
		result = reservation
		return nil
	})
	if err != nil {
		s.logger.Warn("ApproveReservation: не выполнено", zap.Uint64("reservationID", reservationID), zap.Uint64("responderID", responderID), zap.Error(err))
		return nil, err
	}

	s.publisher.Publish(ctx, events.NewReservationStatusChanged(reservationID, result.RequesterID, responderID, string(from), string(result.Status)))
	s.logger.Info("Бронь одобрена", zap.Uint64("reservationID", reservationID), zap.Uint64("responderID", responderID))
	return result, nil
}

// CancelOrRejectReservation переводит активную бронь в финальный статус, строка остается.
// Автор брони отменяет ее (Cancelled), сотрудник отклоняет (Rejected), остальным запрещено.
func (s *ReservationService) CancelOrRejectReservation(ctx context.Context, reservationID, actingUserID uint64) (*entities.Reservation, error) {
	var (
		result *entities.Reservation
		from   constants.ReservationStatus
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		reservation, err := s.reservationRepo.FindReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		actor, err := s.userRepo.FindUser(ctx, tx, actingUserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.ErrForbidden
			}
			return err
		}

		var to constants.ReservationStatus
		switch {
		case actor.ID == reservation.RequesterID:
			to = constants.ReservationCancelled
		case actor.Role.IsStaff():
			to = constants.ReservationRejected
		default:
			return apperrors.ErrForbidden
		}

		if !reservation.Status.IsActive() {
			return apperrors.NewValidationError(apperrors.ReasonInvalidTransition,
				"Бронь %d уже в финальном статусе %s", reservationID, reservation.Status)
		}

		if err := s.reservationRepo.UpdateStatus(ctx, tx, reservationID, to, &actingUserID); err != nil {
			return err
		}
		from = reservation.Status
		reservation.Status = to
		reservation.ResponderID = &actingUserID
		result = reservation
		return nil
	})
	if err != nil {
		s.logger.Warn("CancelOrRejectReservation: не выполнено", zap.Uint64("reservationID", reservationID), zap.Uint64("actorID", actingUserID), zap.Error(err))
		return nil, err
	}

	s.publisher.Publish(ctx, events.NewReservationStatusChanged(reservationID, result.RequesterID, actingUserID, string(from), string(result.Status)))
	s.logger.Info("Бронь снята",
		zap.Uint64("reservationID", reservationID),
		zap.Uint64("actorID", actingUserID),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

// GetReservation доступна автору брони и сотрудникам.
func (s *ReservationService) GetReservation(ctx context.Context, reservationID, actingUserID uint64) (*entities.Reservation, error) {
	reservation, err := s.reservationRepo.FindReservation(ctx, nil, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.RequesterID == actingUserID {
		return reservation, nil
	}
	actor, err := s.userRepo.FindUser(ctx, nil, actingUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrForbidden
		}
		return nil, err
	}
	if !actor.Role.IsStaff() {
		return nil, apperrors.ErrForbidden
	}
	return reservation, nil
}

func (s *ReservationService) GetUserReservations(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Reservation, uint64, error) {
	return s.reservationRepo.GetUserReservations(ctx, userID, filter)
}

package services

import (
	"context"
	"errors"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inventory-system/internal/dto"
	"inventory-system/internal/repositories"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/types"
)

type AvailabilityServiceInterface interface {
	AvailableCount(ctx context.Context, modelID, typeID uint64, start, end time.Time) (int, error)
	AvailableCountTx(ctx context.Context, tx pgx.Tx, modelID, typeID uint64, dr types.DateRange) (int, error)
	FreeUnits(ctx context.Context, tx pgx.Tx, modelID uint64, dr types.DateRange) (int, error)
	GetAvailableModels(ctx context.Context, start, end time.Time) ([]dto.ModelAvailabilityDTO, error)
}

// AvailabilityService считает свободные единицы модели на интервал дат.
// Ничего не кеширует: каждый вызов читает хранилище заново.
type AvailabilityService struct {
	modelRepo       repositories.EquipmentModelRepositoryInterface
	equipmentRepo   repositories.EquipmentRepositoryInterface
	reservationRepo repositories.ReservationRepositoryInterface
	logger          *zap.Logger
}

func NewAvailabilityService(
	modelRepo repositories.EquipmentModelRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	reservationRepo repositories.ReservationRepositoryInterface,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		modelRepo:       modelRepo,
		equipmentRepo:   equipmentRepo,
		reservationRepo: reservationRepo,
		logger:          logger,
	}
}

// AvailableCount - вариант для отображения, вне транзакции.
func (s *AvailabilityService) AvailableCount(ctx context.Context, modelID, typeID uint64, start, end time.Time) (int, error) {
	dr, err := types.NewDateRange(start, end)
	if err != nil {
		return 0, apperrors.NewValidationError(apperrors.ReasonInvalidDateRange, "%s", err.Error())
	}
	return s.AvailableCountTx(ctx, nil, modelID, typeID, dr)
}

// AvailableCountTx проверяет пару (модель, тип) и считает свободные единицы.
// Внутри транзакции бронирования tx не nil, и чтение видит последние закоммиченные данные.
func (s *AvailabilityService) AvailableCountTx(ctx context.Context, tx pgx.Tx, modelID, typeID uint64, dr types.DateRange) (int, error) {
	model, err := s.modelRepo.FindModel(ctx, tx, modelID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, apperrors.NewValidationError(apperrors.ReasonUnknownModel, "Модель %d не существует", modelID)
		}
		return 0, err
	}
	if model.TypeID != typeID {
		return 0, apperrors.NewValidationError(apperrors.ReasonTypeMismatch, "Модель %d не относится к типу %d", modelID, typeID)
	}
	return s.FreeUnits(ctx, tx, modelID, dr)
}

// FreeUnits = исправные единицы минус занятые активными пересекающимися бронями, не меньше нуля.
// Существование модели не проверяет.
func (s *AvailabilityService) FreeUnits(ctx context.Context, tx pgx.Tx, modelID uint64, dr types.DateRange) (int, error) {
	ready, err := s.equipmentRepo.CountReadyUnits(ctx, tx, modelID)
	if err != nil {
		s.logger.Error("FreeUnits: не удалось посчитать исправные единицы", zap.Uint64("modelID", modelID), zap.Error(err))
		return 0, err
	}
	if ready == 0 {
		return 0, nil
	}
	reserved, err := s.reservationRepo.SumReservedQuantity(ctx, tx, modelID, dr)
	if err != nil {
		s.logger.Error("FreeUnits: не удалось посчитать занятые единицы", zap.Uint64("modelID", modelID), zap.Error(err))
		return 0, err
	}
	return freeUnits(ready, reserved), nil
}

func freeUnits(ready, reserved int) int {
	if free := ready - reserved; free > 0 {
		return free
	}
	return 0
}

// GetAvailableModels вызывает калькулятор один раз на каждую модель каталога.
func (s *AvailabilityService) GetAvailableModels(ctx context.Context, start, end time.Time) ([]dto.ModelAvailabilityDTO, error) {
	dr, err := types.NewDateRange(start, end)
	if err != nil {
		return nil, apperrors.NewValidationError(apperrors.ReasonInvalidDateRange, "%s", err.Error())
	}

	models, err := s.modelRepo.GetModels(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]dto.ModelAvailabilityDTO, 0, len(models))
	for _, m := range models {
		free, err := s.FreeUnits(ctx, nil, m.ID, dr)
		if err != nil {
			return nil, err
		}
		result = append(result, dto.ModelAvailabilityDTO{
			ModelID:        m.ID,
			TypeID:         m.TypeID,
			Name:           m.Name,
			PhotoRef:       null.StringFromPtr(m.PhotoRef),
			AvailableCount: free,
		})
	}
	return result, nil
}

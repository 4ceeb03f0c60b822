package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"inventory-system/internal/dto"
	"inventory-system/internal/entities"
	"inventory-system/internal/repositories"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/types"
)

type EquipmentServiceInterface interface {
	GetUnits(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error)
	FindUnit(ctx context.Context, serialID string) (*dto.EquipmentDTO, error)
	CreateUnit(ctx context.Context, payload dto.CreateEquipmentDTO) (*dto.EquipmentDTO, error)
	UpdateUnit(ctx context.Context, serialID string, payload dto.UpdateEquipmentDTO) (*dto.EquipmentDTO, error)
}

type EquipmentService struct {
	txManager     repositories.TxManagerInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	modelRepo     repositories.EquipmentModelRepositoryInterface
	logger        *zap.Logger
}

func NewEquipmentService(
	txManager repositories.TxManagerInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	modelRepo repositories.EquipmentModelRepositoryInterface,
	logger *zap.Logger,
) *EquipmentService {
	return &EquipmentService{
		txManager:     txManager,
		equipmentRepo: equipmentRepo,
		modelRepo:     modelRepo,
		logger:        logger,
	}
}

func (s *EquipmentService) GetUnits(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error) {
	units, total, err := s.equipmentRepo.GetUnits(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	list := make([]dto.EquipmentDTO, 0, len(units))
	for i := range units {
		list = append(list, dto.NewEquipmentDTO(&units[i]))
	}
	return list, total, nil
}

func (s *EquipmentService) FindUnit(ctx context.Context, serialID string) (*dto.EquipmentDTO, error) {
	unit, err := s.equipmentRepo.FindUnit(ctx, nil, serialID)
	if err != nil {
		return nil, err
	}
	res := dto.NewEquipmentDTO(unit)
	return &res, nil
}

// CreateUnit всегда берет type_id из модели, тип от клиента не принимается.
func (s *EquipmentService) CreateUnit(ctx context.Context, payload dto.CreateEquipmentDTO) (*dto.EquipmentDTO, error) {
	serialID := strings.TrimSpace(payload.SerialID)
	if serialID == "" {
		return nil, apperrors.NewInvalidInputError("Серийный номер не может быть пустым")
	}

	model, err := s.findModel(ctx, nil, payload.ModelID)
	if err != nil {
		return nil, err
	}

	unit := entities.EquipmentUnit{
		SerialID:          serialID,
		ModelID:           model.ID,
		TypeID:            model.TypeID,
		MaintenanceStatus: constants.MaintenanceReady,
		UsageCondition:    constants.ConditionNew,
		HomeLocations:     normalizeLocations(payload.HomeLocations),
	}
	if payload.MaintenanceStatus.Valid {
		unit.MaintenanceStatus = constants.MaintenanceStatus(payload.MaintenanceStatus.String)
	}
	if payload.UsageCondition.Valid {
		unit.UsageCondition = constants.UsageCondition(payload.UsageCondition.String)
	}
	if err := validateUnitStates(unit); err != nil {
		return nil, err
	}

	if err := s.equipmentRepo.CreateUnit(ctx, nil, unit); err != nil {
		s.logger.Warn("CreateUnit: не удалось создать экземпляр", zap.String("serialID", serialID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Экземпляр создан", zap.String("serialID", serialID), zap.Uint64("modelID", model.ID))

	res := dto.NewEquipmentDTO(&unit)
	return &res, nil
}

// UpdateUnit блокирует экземпляр и строки затронутых моделей:
// смена статуса или модели не должна пересечься с проверкой доступности в брони.
func (s *EquipmentService) UpdateUnit(ctx context.Context, serialID string, payload dto.UpdateEquipmentDTO) (*dto.EquipmentDTO, error) {
	var updated entities.EquipmentUnit
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		unit, err := s.equipmentRepo.FindUnit(ctx, tx, serialID)
		if err != nil {
			return err
		}
		next := *unit

		if payload.ModelID.Valid && payload.ModelID.Uint64 != unit.ModelID {
			model, err := s.findModel(ctx, tx, payload.ModelID.Uint64)
			if err != nil {
				return err
			}
			next.ModelID, next.TypeID = model.ID, model.TypeID
		}
		if payload.MaintenanceStatus.Valid {
			next.MaintenanceStatus = constants.MaintenanceStatus(payload.MaintenanceStatus.String)
		}
		if payload.UsageCondition.Valid {
			next.UsageCondition = constants.UsageCondition(payload.UsageCondition.String)
		}
		if payload.HomeLocations != nil {
			next.HomeLocations = normalizeLocations(payload.HomeLocations)
		}
		if err := validateUnitStates(next); err != nil {
			return err
		}

		if _, err := s.modelRepo.LockModels(ctx, tx, []uint64{unit.ModelID, next.ModelID}); err != nil {
			return err
		}
		if err := s.equipmentRepo.UpdateUnit(ctx, tx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		s.logger.Warn("UpdateUnit: не выполнено", zap.String("serialID", serialID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Экземпляр обновлен",
		zap.String("serialID", serialID),
		zap.String("status", string(updated.MaintenanceStatus)),
	)

	res := dto.NewEquipmentDTO(&updated)
	return &res, nil
}

func (s *EquipmentService) findModel(ctx context.Context, tx pgx.Tx, modelID uint64) (*entities.EquipmentModel, error) {
	model, err := s.modelRepo.FindModel(ctx, tx, modelID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewValidationError(apperrors.ReasonUnknownModel, "Модель %d не существует", modelID)
		}
		return nil, err
	}
	return model, nil
}

func validateUnitStates(u entities.EquipmentUnit) error {
	if !u.MaintenanceStatus.IsValid() {
		return apperrors.NewInvalidInputError("Недопустимый статус обслуживания %q", u.MaintenanceStatus)
	}
	if !u.UsageCondition.IsValid() {
		return apperrors.NewInvalidInputError("Недопустимое состояние %q", u.UsageCondition)
	}
	return nil
}

// normalizeLocations убирает пустые и повторяющиеся комнаты: homeLocations - множество.
func normalizeLocations(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, loc := range in {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		if _, ok := seen[loc]; ok {
			continue
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}
	return out
}

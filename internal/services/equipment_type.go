package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"inventory-system/internal/dto"
	"inventory-system/internal/entities"
	"inventory-system/internal/repositories"
	apperrors "inventory-system/pkg/errors"
)

type CatalogServiceInterface interface {
	GetTypes(ctx context.Context) ([]dto.ShortEquipmentTypeDTO, error)
	CreateType(ctx context.Context, payload dto.CreateEquipmentTypeDTO) (*dto.ShortEquipmentTypeDTO, error)
	GetModels(ctx context.Context) ([]dto.EquipmentModelDTO, error)
	CreateModel(ctx context.Context, payload dto.CreateEquipmentModelDTO) (*dto.EquipmentModelDTO, error)
	UpdateModel(ctx context.Context, id uint64, payload dto.UpdateEquipmentModelDTO) (*dto.EquipmentModelDTO, error)
	DeleteModel(ctx context.Context, id uint64) error
}

// CatalogService - типы и модели оборудования. Модель неизменяема, кроме имени и фото.
type CatalogService struct {
	typeRepo  repositories.EquipmentTypeRepositoryInterface
	modelRepo repositories.EquipmentModelRepositoryInterface
	logger    *zap.Logger
}

func NewCatalogService(
	typeRepo repositories.EquipmentTypeRepositoryInterface,
	modelRepo repositories.EquipmentModelRepositoryInterface,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{typeRepo: typeRepo, modelRepo: modelRepo, logger: logger}
}

func toModelDTO(m *entities.EquipmentModel) dto.EquipmentModelDTO {
	res := dto.EquipmentModelDTO{ID: m.ID, TypeID: m.TypeID, Name: m.Name}
	if m.PhotoRef != nil {
		res.PhotoRef.SetValid(*m.PhotoRef)
	}
	return res
}

func (s *CatalogService) GetTypes(ctx context.Context) ([]dto.ShortEquipmentTypeDTO, error) {
	list, err := s.typeRepo.GetTypes(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]dto.ShortEquipmentTypeDTO, 0, len(list))
	for _, t := range list {
		res = append(res, dto.ShortEquipmentTypeDTO{ID: t.ID, Name: t.Name})
	}
	return res, nil
}

func (s *CatalogService) CreateType(ctx context.Context, payload dto.CreateEquipmentTypeDTO) (*dto.ShortEquipmentTypeDTO, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, apperrors.NewInvalidInputError("Название типа не может быть пустым")
	}
	id, err := s.typeRepo.CreateType(ctx, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Тип оборудования создан", zap.Uint64("typeID", id), zap.String("name", name))
	return &dto.ShortEquipmentTypeDTO{ID: id, Name: name}, nil
}

func (s *CatalogService) GetModels(ctx context.Context) ([]dto.EquipmentModelDTO, error) {
	models, err := s.modelRepo.GetModels(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]dto.EquipmentModelDTO, 0, len(models))
	for i := range models {
		res = append(res, toModelDTO(&models[i]))
	}
	return res, nil
}

func (s *CatalogService) CreateModel(ctx context.Context, payload dto.CreateEquipmentModelDTO) (*dto.EquipmentModelDTO, error) {
	if _, err := s.typeRepo.FindType(ctx, payload.TypeID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewInvalidInputError("Тип оборудования %d не существует", payload.TypeID)
		}
		return nil, err
	}

	model := entities.EquipmentModel{
		TypeID:   payload.TypeID,
		Name:     strings.TrimSpace(payload.Name),
		PhotoRef: payload.PhotoRef.Ptr(),
	}
	id, err := s.modelRepo.CreateModel(ctx, model)
	if err != nil {
		return nil, err
	}
	model.ID = id
	s.logger.Info("Модель создана", zap.Uint64("modelID", id), zap.Uint64("typeID", model.TypeID))

	res := toModelDTO(&model)
	return &res, nil
}

func (s *CatalogService) UpdateModel(ctx context.Context, id uint64, payload dto.UpdateEquipmentModelDTO) (*dto.EquipmentModelDTO, error) {
	name := strings.TrimSpace(payload.Name)
	if err := s.modelRepo.UpdateModel(ctx, id, name, payload.PhotoRef.Ptr()); err != nil {
		return nil, err
	}
	model, err := s.modelRepo.FindModel(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	res := toModelDTO(model)
	return &res, nil
}

func (s *CatalogService) DeleteModel(ctx context.Context, id uint64) error {
	if err := s.modelRepo.DeleteModel(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Модель удалена", zap.Uint64("modelID", id))
	return nil
}

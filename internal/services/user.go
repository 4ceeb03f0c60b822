package services

import (
	"context"

	"go.uber.org/zap"

	"inventory-system/internal/dto"
	"inventory-system/internal/entities"
	"inventory-system/internal/repositories"
	"inventory-system/pkg/constants"
	"inventory-system/pkg/utils"
)

type UserServiceInterface interface {
	CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserPublicDTO, error)
	FindUser(ctx context.Context, id uint64) (*dto.UserPublicDTO, error)
}

type UserService struct {
	userRepo repositories.UserRepositoryInterface
	logger   *zap.Logger
}

func NewUserService(userRepo repositories.UserRepositoryInterface, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

func (s *UserService) CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserPublicDTO, error) {
	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		s.logger.Error("не удалось захешировать пароль", zap.Error(err))
		return nil, err
	}

	user := &entities.User{
		Fio:          payload.Fio,
		Email:        payload.Email,
		PasswordHash: hash,
		Role:         constants.Role(payload.Role),
	}
	id, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	s.logger.Info("пользователь создан", zap.Uint64("userID", id), zap.String("role", payload.Role))
	res := dto.NewUserPublicDTO(user)
	return &res, nil
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*dto.UserPublicDTO, error) {
	user, err := s.userRepo.FindUser(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	res := dto.NewUserPublicDTO(user)
	return &res, nil
}

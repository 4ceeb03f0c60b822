package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"inventory-system/internal/repositories"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
)

type AuthRoleServiceInterface interface {
	GetUserRole(ctx context.Context, userID uint64) (constants.Role, error)
	InvalidateUserRole(ctx context.Context, userID uint64) error
}

// AuthRoleService отдает роль пользователя для auth-мидлвара, кешируя ее в Redis.
// Ядро бронирования кешем не пользуется: там роль читается в транзакции.
type AuthRoleService struct {
	userRepo  repositories.UserRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	logger    *zap.Logger
	cacheTTL  time.Duration
}

func NewAuthRoleService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *AuthRoleService {
	return &AuthRoleService{
		userRepo:  userRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

func (s *AuthRoleService) GetUserRole(ctx context.Context, userID uint64) (constants.Role, error) {
	cacheKey := fmt.Sprintf(constants.CacheKeyUserRole, userID)

	cached, errGet := s.cacheRepo.Get(ctx, cacheKey)
	if errGet == nil {
		if role := constants.Role(cached); role.IsValid() {
			s.logger.Debug("AuthRoleService: роль найдена в кеше", zap.Uint64("userID", userID))
			return role, nil
		}
		s.logger.Warn("AuthRoleService: в кеше неизвестная роль", zap.String("key", cacheKey), zap.String("value", cached))
	} else if !errors.Is(errGet, repositories.ErrCacheMiss) {
		s.logger.Warn("AuthRoleService: кеш недоступен, читаем из БД", zap.Uint64("userID", userID), zap.Error(errGet))
	}

	user, err := s.userRepo.FindUser(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrUnauthorized
		}
		s.logger.Error("AuthRoleService: не удалось получить пользователя", zap.Uint64("userID", userID), zap.Error(err))
		return "", apperrors.ErrInternalServer
	}

	if errSet := s.cacheRepo.Set(ctx, cacheKey, string(user.Role), s.cacheTTL); errSet != nil {
		s.logger.Error("AuthRoleService: не удалось сохранить роль в кеш", zap.Uint64("userID", userID), zap.Error(errSet))
	}
	return user.Role, nil
}

func (s *AuthRoleService) InvalidateUserRole(ctx context.Context, userID uint64) error {
	cacheKey := fmt.Sprintf(constants.CacheKeyUserRole, userID)
	if err := s.cacheRepo.Del(ctx, cacheKey); err != nil {
		s.logger.Error("AuthRoleService: ошибка инвалидации кеша роли", zap.Uint64("userID", userID), zap.Error(err))
		return err
	}
	s.logger.Info("AuthRoleService: кеш роли инвалидирован", zap.Uint64("userID", userID))
	return nil
}

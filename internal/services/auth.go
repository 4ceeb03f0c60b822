package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"inventory-system/internal/dto"
	"inventory-system/internal/entities"
	"inventory-system/internal/repositories"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/utils"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*entities.User, error)
	GetUserByID(ctx context.Context, userID uint64) (*entities.User, error)
}

type AuthService struct {
	userRepo  repositories.UserRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	logger    *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{userRepo: userRepo, cacheRepo: cacheRepo, logger: logger}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*entities.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.checkLockout(ctx, user.ID); err != nil {
		return nil, err
	}
	if err := utils.ComparePasswords(user.PasswordHash, payload.Password); err != nil {
		s.handleFailedLoginAttempt(ctx, user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}
	s.resetLoginAttempts(ctx, user.ID)
	return user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uint64) (*entities.User, error) {
	user, err := s.userRepo.FindUser(ctx, nil, userID)
	if err != nil {
		s.logger.Warn("GetUserByID: не удалось найти пользователя", zap.Uint64("userID", userID), zap.Error(err))
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) checkLockout(ctx context.Context, userID uint64) error {
	if _, err := s.cacheRepo.Get(ctx, fmt.Sprintf("lockout:%d", userID)); err == nil {
		return apperrors.ErrAccountLocked
	}
	return nil
}

// Ошибки кеша здесь не фатальны: без Redis блокировка просто не срабатывает.
func (s *AuthService) handleFailedLoginAttempt(ctx context.Context, userID uint64) {
	attemptsKey := fmt.Sprintf("login_attempts:%d", userID)
	attempts, err := s.cacheRepo.Incr(ctx, attemptsKey)
	if err != nil {
		s.logger.Warn("не удалось учесть неудачную попытку входа", zap.Uint64("userID", userID), zap.Error(err))
		return
	}
	if attempts == 1 {
		_ = s.cacheRepo.Expire(ctx, attemptsKey, lockoutDuration)
	}
	if attempts >= maxLoginAttempts {
		s.logger.Warn("аккаунт временно заблокирован", zap.Uint64("userID", userID), zap.Int64("attempts", attempts))
		_ = s.cacheRepo.Set(ctx, fmt.Sprintf("lockout:%d", userID), "locked", lockoutDuration)
		_ = s.cacheRepo.Del(ctx, attemptsKey)
	}
}

func (s *AuthService) resetLoginAttempts(ctx context.Context, userID uint64) {
	_ = s.cacheRepo.Del(ctx, fmt.Sprintf("login_attempts:%d", userID))
}

package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/internal/dto"
	"inventory-system/internal/services"
	"inventory-system/pkg/api"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/service"
	"inventory-system/pkg/utils"
)

type AuthController struct {
	authService services.AuthServiceInterface
	jwtSvc      service.JWTService
	logger      *zap.Logger
}

func NewAuthController(authService services.AuthServiceInterface, jwtSvc service.JWTService, logger *zap.Logger) *AuthController {
	return &AuthController{authService: authService, jwtSvc: jwtSvc, logger: logger}
}

func (c *AuthController) Login(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	var payload dto.LoginDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	user, err := c.authService.Login(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	access, refresh, err := c.jwtSvc.GenerateTokens(user.ID)
	if err != nil {
		c.logger.Error("не удалось создать токены", zap.Uint64("userID", user.ID), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	c.logger.Info("успешный вход", zap.Uint64("userID", user.ID))
	return api.SuccessOne(ctx, http.StatusOK, "Вход выполнен", dto.AuthResponseDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         dto.NewUserPublicDTO(user),
	})
}

func (c *AuthController) RefreshToken(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	var payload dto.RefreshTokenDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	claims, err := c.jwtSvc.ValidateToken(payload.RefreshToken)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if !claims.IsRefreshToken {
		return utils.ErrorResponse(ctx, apperrors.ErrInvalidToken, c.logger)
	}

	user, err := c.authService.GetUserByID(reqCtx, claims.UserID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	access, refresh, err := c.jwtSvc.GenerateTokens(user.ID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Токены обновлены", dto.AuthResponseDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         dto.NewUserPublicDTO(user),
	})
}

func (c *AuthController) Me(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	user, err := c.authService.GetUserByID(reqCtx, userID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Профиль получен", dto.NewUserPublicDTO(user))
}

package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/internal/dto"
	"inventory-system/internal/services"
	"inventory-system/pkg/constants"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/service"
	"inventory-system/pkg/utils"
)

type AuthMiddleware struct {
	jwtService  service.JWTService
	roleService services.AuthRoleServiceInterface
	logger      *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, roleService services.AuthRoleServiceInterface, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtSvc,
		roleService: roleService,
		logger:      logger,
	}
}

// Auth проверяет Bearer-токен и кладет в контекст id и роль пользователя.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			m.logger.Warn("AuthMiddleware: пустой заголовок Authorization")
			return utils.ErrorResponse(c, apperrors.ErrEmptyAuthHeader, m.logger)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.logger.Warn("AuthMiddleware: неверный формат заголовка Authorization")
			return utils.ErrorResponse(c, apperrors.ErrInvalidAuthHeader, m.logger)
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("AuthMiddleware: токен не прошел проверку", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}
		if claims.IsRefreshToken {
			m.logger.Warn("AuthMiddleware: попытка доступа с refresh-токеном", zap.Uint64("userID", claims.UserID))
			return utils.ErrorResponse(c, apperrors.ErrTokenIsNotAccess, m.logger)
		}

		ctx := c.Request().Context()
		role, err := m.roleService.GetUserRole(ctx, claims.UserID)
		if err != nil {
			return utils.ErrorResponse(c, err, m.logger)
		}

		c.SetRequest(c.Request().WithContext(utils.WithClaims(ctx, &dto.UserClaims{UserID: claims.UserID, Role: role})))
		return next(c)
	}
}

// RequireRole пропускает только перечисленные роли. Ставится после Auth.
func (m *AuthMiddleware) RequireRole(roles ...constants.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := utils.GetClaimsFromCtx(c.Request().Context())
			if err != nil {
				return utils.ErrorResponse(c, apperrors.ErrUnauthorized, m.logger)
			}
			for _, r := range roles {
				if claims.Role == r {
					return next(c)
				}
			}
			m.logger.Warn("AuthMiddleware: недостаточно прав",
				zap.Uint64("userID", claims.UserID),
				zap.String("role", string(claims.Role)),
				zap.String("path", c.Path()),
			)
			return utils.ErrorResponse(c, apperrors.ErrForbidden, m.logger)
		}
	}
}

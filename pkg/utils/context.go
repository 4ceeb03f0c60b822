package utils

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"inventory-system/internal/dto"
	"inventory-system/pkg/contextkeys"
	apperrors "inventory-system/pkg/errors"
)

func ContextWithTimeout(c echo.Context, seconds int) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), time.Duration(seconds)*time.Second)
}

func WithClaims(ctx context.Context, claims *dto.UserClaims) context.Context {
	return context.WithValue(ctx, contextkeys.UserClaimsKey, claims)
}

func GetClaimsFromCtx(ctx context.Context) (*dto.UserClaims, error) {
	claims, ok := ctx.Value(contextkeys.UserClaimsKey).(*dto.UserClaims)
	if !ok || claims == nil {
		return nil, apperrors.ErrUserIDNotFoundInContext
	}
	return claims, nil
}

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	claims, err := GetClaimsFromCtx(ctx)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

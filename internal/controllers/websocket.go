package controllers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/internal/services"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/service"
	"inventory-system/pkg/utils"
	appwebsocket "inventory-system/pkg/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketController struct {
	hub         *appwebsocket.Hub
	jwtService  service.JWTService
	roleService services.AuthRoleServiceInterface
	logger      *zap.Logger
}

func NewWebSocketController(
	hub *appwebsocket.Hub,
	jwtService service.JWTService,
	roleService services.AuthRoleServiceInterface,
	logger *zap.Logger,
) *WebSocketController {
	return &WebSocketController{hub: hub, jwtService: jwtService, roleService: roleService, logger: logger}
}

// ServeWs. Браузер не умеет ставить заголовок Authorization на WebSocket, поэтому токен приходит в query.
func (c *WebSocketController) ServeWs(ctx echo.Context) error {
	tokenString := ctx.QueryParam("token")
	if tokenString == "" {
		return utils.ErrorResponse(ctx, apperrors.ErrEmptyAuthHeader, c.logger)
	}

	claims, err := c.jwtService.ValidateToken(tokenString)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if claims.IsRefreshToken {
		return utils.ErrorResponse(ctx, apperrors.ErrTokenIsNotAccess, c.logger)
	}
	role, err := c.roleService.GetUserRole(ctx.Request().Context(), claims.UserID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		c.logger.Error("WebSocket: не удалось улучшить соединение", zap.Error(err))
		return err
	}

	client := appwebsocket.NewClient(c.hub, conn, claims.UserID, role.IsStaff())
	c.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	c.logger.Info("WebSocket: клиент успешно подключен", zap.Uint64("userID", claims.UserID), zap.String("role", string(role)))
	return nil
}

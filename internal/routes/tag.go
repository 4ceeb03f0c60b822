package routes

import (
	"github.com/labstack/echo/v4"

	"inventory-system/internal/controllers"
	"inventory-system/pkg/constants"
	"inventory-system/pkg/middleware"
)

func runTagRouter(secureGroup *echo.Group, ctrl *controllers.TagController, authMW *middleware.AuthMiddleware) {
	adminOnly := authMW.RequireRole(constants.RoleAdmin)
	secureGroup.GET("/tags/next", ctrl.NextAvailable, adminOnly)
	secureGroup.POST("/equipment/:serial/tag", ctrl.AssignEquipmentTag, adminOnly)
	secureGroup.POST("/users/:id/tag", ctrl.AssignUserTag, adminOnly)
}

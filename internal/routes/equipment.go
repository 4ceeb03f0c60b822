package routes

import (
	"github.com/labstack/echo/v4"

	"inventory-system/internal/controllers"
	"inventory-system/pkg/constants"
	"inventory-system/pkg/middleware"
)

func runEquipmentRouter(secureGroup *echo.Group, ctrl *controllers.EquipmentController, authMW *middleware.AuthMiddleware) {
	equipment := secureGroup.Group("/equipment", authMW.RequireRole(constants.RoleFaculty, constants.RoleAdmin))
	equipment.GET("", ctrl.GetUnits)
	equipment.GET("/:serial", ctrl.FindUnit)

	adminOnly := authMW.RequireRole(constants.RoleAdmin)
	equipment.POST("", ctrl.CreateUnit, adminOnly)
	equipment.PUT("/:serial", ctrl.UpdateUnit, adminOnly)
	equipment.POST("/import", ctrl.ImportUnits, adminOnly)
}

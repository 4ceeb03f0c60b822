package routes

import (
	"github.com/labstack/echo/v4"

	"inventory-system/internal/controllers"
	"inventory-system/pkg/constants"
	"inventory-system/pkg/middleware"
)

func runCatalogRouter(
	secureGroup *echo.Group,
	ctrl *controllers.CatalogController,
	availabilityCtrl *controllers.AvailabilityController,
	authMW *middleware.AuthMiddleware,
) {
	adminOnly := authMW.RequireRole(constants.RoleAdmin)

	secureGroup.GET("/types", ctrl.GetTypes)
	secureGroup.POST("/types", ctrl.CreateType, adminOnly)

	secureGroup.GET("/models", ctrl.GetModels)
	secureGroup.GET("/models/available", availabilityCtrl.GetAvailableModels)
	secureGroup.GET("/models/:id/availability", availabilityCtrl.GetModelAvailability)
	secureGroup.POST("/models", ctrl.CreateModel, adminOnly)
	secureGroup.PUT("/models/:id", ctrl.UpdateModel, adminOnly)
	secureGroup.DELETE("/models/:id", ctrl.DeleteModel, adminOnly)
}

package routes

import (
	"github.com/labstack/echo/v4"

	"inventory-system/internal/controllers"
	"inventory-system/pkg/constants"
	"inventory-system/pkg/middleware"
)

// Отмену/отклонение различает ядро по роли, поэтому роут открыт всем авторизованным.
func runReservationRouter(secureGroup *echo.Group, ctrl *controllers.ReservationController, authMW *middleware.AuthMiddleware) {
	reservations := secureGroup.Group("/reservations")
	reservations.POST("", ctrl.CreateReservation)
	reservations.GET("", ctrl.GetMyReservations)
	reservations.GET("/:id", ctrl.FindReservation)
	reservations.DELETE("/:id", ctrl.CancelOrRejectReservation)
	reservations.POST("/:id/approve", ctrl.ApproveReservation, authMW.RequireRole(constants.RoleFaculty, constants.RoleAdmin))
}

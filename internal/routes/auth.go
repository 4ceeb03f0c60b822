package routes

import (
	"github.com/labstack/echo/v4"

	"inventory-system/internal/controllers"
	"inventory-system/pkg/constants"
	"inventory-system/pkg/middleware"
)

func runAuthRouter(api *echo.Group, authCtrl *controllers.AuthController, authMW *middleware.AuthMiddleware) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authCtrl.Login)
		authGroup.POST("/refresh_token", authCtrl.RefreshToken)
		authGroup.GET("/me", authCtrl.Me, authMW.Auth)
	}
}

func runUserRouter(secureGroup *echo.Group, ctrl *controllers.UserController, authMW *middleware.AuthMiddleware) {
	users := secureGroup.Group("/users", authMW.RequireRole(constants.RoleAdmin))
	users.POST("", ctrl.CreateUser)
	users.GET("/:id", ctrl.FindUser)
}

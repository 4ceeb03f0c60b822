package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/internal/controllers"
	"inventory-system/pkg/constants"
	"inventory-system/pkg/middleware"
)

// Антенны не имеют пользователей: прием сканов закрыт ключом устройства, а не JWT.
func runScanIngestRouter(api *echo.Group, ctrl *controllers.ScanController, readerKey string, logger *zap.Logger) {
	api.POST("/scans", ctrl.IngestScan, middleware.ReaderKey(readerKey, logger))
}

func runScanRouter(secureGroup *echo.Group, ctrl *controllers.ScanController, authMW *middleware.AuthMiddleware) {
	secureGroup.GET("/scans/:tag", ctrl.GetScanHistory, authMW.RequireRole(constants.RoleFaculty, constants.RoleAdmin))
}

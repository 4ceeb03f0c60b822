package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/internal/dto"
	"inventory-system/internal/services"
	"inventory-system/pkg/api"
	"inventory-system/pkg/utils"
)

type AvailabilityController struct {
	availabilityService services.AvailabilityServiceInterface
	logger              *zap.Logger
}

func NewAvailabilityController(service services.AvailabilityServiceInterface, logger *zap.Logger) *AvailabilityController {
	return &AvailabilityController{availabilityService: service, logger: logger}
}

func (c *AvailabilityController) GetAvailableModels(ctx echo.Context) error {
	var query dto.AvailableModelsQueryDTO
	if err := bindAndValidate(ctx, &query); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	start, end, err := parseDates(query.StartDate, query.EndDate)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := c.availabilityService.GetAvailableModels(reqCtx, start, end)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Доступность моделей получена", res)
}

func (c *AvailabilityController) GetModelAvailability(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	modelID, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var query dto.AvailabilityQueryDTO
	if err := bindAndValidate(ctx, &query); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	start, end, err := parseDates(query.StartDate, query.EndDate)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	count, err := c.availabilityService.AvailableCount(reqCtx, modelID, query.TypeID, start, end)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Доступность модели получена", map[string]interface{}{
		"model_id":        modelID,
		"type_id":         query.TypeID,
		"available_count": count,
	})
}

package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/internal/dto"
	"inventory-system/internal/services"
	"inventory-system/pkg/api"
	apperrors "inventory-system/pkg/errors"
	"inventory-system/pkg/utils"
)

// maxImportSize - предел размера загружаемого .xlsx.
const maxImportSize = 10 << 20

type EquipmentController struct {
	equipmentService services.EquipmentServiceInterface
	importService    services.EquipmentImportServiceInterface
	logger           *zap.Logger
}

func NewEquipmentController(
	equipmentService services.EquipmentServiceInterface,
	importService services.EquipmentImportServiceInterface,
	logger *zap.Logger,
) *EquipmentController {
	return &EquipmentController{
		equipmentService: equipmentService,
		importService:    importService,
		logger:           logger,
	}
}

func (c *EquipmentController) GetUnits(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.equipmentService.GetUnits(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessList(ctx, "Список оборудования получен", res, total, filter.Page, filter.Limit)
}

func (c *EquipmentController) FindUnit(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := c.equipmentService.FindUnit(reqCtx, ctx.Param("serial"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Экземпляр получен", res)
}

func (c *EquipmentController) CreateUnit(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	var payload dto.CreateEquipmentDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentService.CreateUnit(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Экземпляр создан", res)
}

func (c *EquipmentController) UpdateUnit(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	var payload dto.UpdateEquipmentDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.equipmentService.UpdateUnit(reqCtx, ctx.Param("serial"), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Экземпляр обновлен", res)
}

// ImportUnits принимает multipart-поле "file" с .xlsx.
func (c *EquipmentController) ImportUnits(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Файл не передан", err, nil), c.logger)
	}
	if fileHeader.Size > maxImportSize {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Файл слишком большой", nil, nil), c.logger)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	defer file.Close()

	reqCtx, cancel := utils.ContextWithTimeout(ctx, 120)
	defer cancel()

	res, err := c.importService.ImportUnits(reqCtx, file)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	c.logger.Info("импорт оборудования завершен",
		zap.String("file", fileHeader.Filename),
		zap.Int("created", res.Created),
		zap.Int("errors", len(res.Errors)),
	)
	return api.SuccessOne(ctx, http.StatusOK, "Импорт завершен", res)
}

package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/internal/dto"
	"inventory-system/internal/services"
	"inventory-system/pkg/api"
	"inventory-system/pkg/utils"
)

type ScanController struct {
	scanService services.ScanServiceInterface
	logger      *zap.Logger
}

func NewScanController(service services.ScanServiceInterface, logger *zap.Logger) *ScanController {
	return &ScanController{scanService: service, logger: logger}
}

// IngestScan принимает пинг антенны.
func (c *ScanController) IngestScan(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	var payload dto.IngestScanDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var scanTime time.Time
	if payload.ScanTime.Valid {
		scanTime = payload.ScanTime.Time
	}

	event, err := c.scanService.IngestScan(reqCtx, payload.TagID, payload.ReaderID, scanTime)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Скан записан", dto.NewScanEventDTO(*event))
}

func (c *ScanController) GetScanHistory(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	var limit uint64
	if raw := ctx.QueryParam("limit"); raw != "" {
		if l, err := strconv.ParseUint(raw, 10, 64); err == nil {
			limit = l
		}
	}

	list, err := c.scanService.GetScanHistory(reqCtx, ctx.Param("tag"), limit)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res := make([]dto.ScanEventDTO, 0, len(list))
	for _, e := range list {
		res = append(res, dto.NewScanEventDTO(e))
	}
	return api.SuccessOne(ctx, http.StatusOK, "История сканирований получена", res)
}

package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/internal/dto"
	"inventory-system/internal/services"
	"inventory-system/pkg/api"
	"inventory-system/pkg/constants"
	"inventory-system/pkg/utils"
)

type TagController struct {
	tagService services.TagAllocatorServiceInterface
	logger     *zap.Logger
}

func NewTagController(service services.TagAllocatorServiceInterface, logger *zap.Logger) *TagController {
	return &TagController{tagService: service, logger: logger}
}

func (c *TagController) NextAvailable(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	var query dto.NextTagQueryDTO
	if err := bindAndValidate(ctx, &query); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	ns := constants.TagNamespace(query.Namespace)
	hex, err := c.tagService.NextAvailable(reqCtx, ns)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Свободная метка найдена", dto.TagDTO{Namespace: query.Namespace, TagID: hex})
}

func (c *TagController) AssignEquipmentTag(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	serial := ctx.Param("serial")
	hex, err := c.tagService.AssignEquipmentTag(reqCtx, serial)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Метка назначена", dto.TagDTO{
		Namespace: string(constants.TagNamespaceEquipment),
		TagID:     hex,
	})
}

func (c *TagController) AssignUserTag(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	userID, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	hex, err := c.tagService.AssignUserTag(reqCtx, userID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Метка назначена", dto.TagDTO{
		Namespace: string(constants.TagNamespaceStudent),
		TagID:     hex,
	})
}

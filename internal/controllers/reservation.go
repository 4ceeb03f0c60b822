package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory-system/internal/dto"
	"inventory-system/internal/entities"
	"inventory-system/internal/services"
	"inventory-system/pkg/api"
	"inventory-system/pkg/utils"
)

type ReservationController struct {
	reservationService services.ReservationServiceInterface
	logger             *zap.Logger
}

func NewReservationController(service services.ReservationServiceInterface, logger *zap.Logger) *ReservationController {
	return &ReservationController{reservationService: service, logger: logger}
}

func (c *ReservationController) CreateReservation(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	claims, err := utils.GetClaimsFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.CreateReservationDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	start, end, err := parseDates(payload.StartDate, payload.EndDate)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	lines := make([]entities.ReservationLine, 0, len(payload.Lines))
	for _, l := range payload.Lines {
		lines = append(lines, entities.ReservationLine{ModelID: l.ModelID, TypeID: l.TypeID, Quantity: l.Quantity})
	}

	res, err := c.reservationService.CreateReservation(reqCtx, claims.UserID, start, end, lines)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusCreated, "Бронь создана", dto.CreatedReservationDTO{
		ReservationID: res.ID,
		Status:        string(res.Status),
	})
}

func (c *ReservationController) ApproveReservation(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	claims, err := utils.GetClaimsFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.reservationService.ApproveReservation(reqCtx, id, claims.UserID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Бронь одобрена", dto.ReservationStatusDTO{
		ReservationID: res.ID,
		Status:        string(res.Status),
	})
}

func (c *ReservationController) CancelOrRejectReservation(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	claims, err := utils.GetClaimsFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.reservationService.CancelOrRejectReservation(reqCtx, id, claims.UserID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Бронь снята", dto.ReservationStatusDTO{
		ReservationID: res.ID,
		Status:        string(res.Status),
		Removed:       true,
	})
}

func (c *ReservationController) FindReservation(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	claims, err := utils.GetClaimsFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.reservationService.GetReservation(reqCtx, id, claims.UserID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return api.SuccessOne(ctx, http.StatusOK, "Бронь получена", dto.NewReservationDTO(res))
}

// GetMyReservations - брони текущего пользователя.
func (c *ReservationController) GetMyReservations(ctx echo.Context) error {
	reqCtx, cancel := utils.ContextWithTimeout(ctx, requestTimeout)
	defer cancel()

	claims, err := utils.GetClaimsFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	list, total, err := c.reservationService.GetUserReservations(reqCtx, claims.UserID, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res := make([]dto.ReservationDTO, 0, len(list))
	for i := range list {
		res = append(res, dto.NewReservationDTO(&list[i]))
	}
	return api.SuccessList(ctx, "Список броней получен", res, total, filter.Page, filter.Limit)
}

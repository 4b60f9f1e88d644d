package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Creditos-api/internal/application/dto"
	"github.com/jhoicas/Creditos-api/internal/application/holds"
	"github.com/jhoicas/Creditos-api/internal/domain"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
)

// HoldHandler maneja las reservas de crédito (protegido).
type HoldHandler struct {
	uc *holds.HoldUseCase
}

// NewHoldHandler construye el handler.
func NewHoldHandler(uc *holds.HoldUseCase) *HoldHandler {
	return &HoldHandler{uc: uc}
}

// Create godoc
// @Summary      Crear reserva de crédito
// @Tags         holds
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateHoldRequest  true  "student_id, service_type, quantity, expiry_at"
// @Success      201   {object}  dto.HoldResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/holds [post]
func (h *HoldHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	var in dto.CreateHoldRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	hold, err := h.uc.CreateHold(c.Context(), in, userID)
	if err != nil {
		return holdError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toHoldResponse(hold))
}

// Release godoc
// @Summary      Liberar reserva (devuelve el saldo)
// @Tags         holds
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la reserva"
// @Param        body  body  dto.ReleaseHoldRequest  true  "reason"
// @Success      200   {object}  dto.HoldResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/holds/{id}/release [post]
func (h *HoldHandler) Release(c *fiber.Ctx) error {
	var in dto.ReleaseHoldRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	hold, err := h.uc.ReleaseHold(c.Context(), c.Params("id"), in.Reason)
	if err != nil {
		return holdError(c, err)
	}
	return c.JSON(toHoldResponse(hold))
}

// Cancel godoc
// @Summary      Cancelar reserva
// @Description  Misma semántica que liberar: la cantidad vuelve al disponible.
// @Tags         holds
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la reserva"
// @Param        body  body  dto.ReleaseHoldRequest  true  "reason"
// @Success      200   {object}  dto.HoldResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/holds/{id} [delete]
func (h *HoldHandler) Cancel(c *fiber.Ctx) error {
	var in dto.ReleaseHoldRequest
	_ = c.BodyParser(&in) // body opcional en DELETE
	hold, err := h.uc.CancelHold(c.Context(), c.Params("id"), in.Reason)
	if err != nil {
		return holdError(c, err)
	}
	return c.JSON(toHoldResponse(hold))
}

// Update godoc
// @Summary      Modificar reserva (cantidad o expiración)
// @Description  Se aplica como cancelar-y-recrear en una sola transacción: la
//               reserva original queda liberada y se devuelve la nueva.
// @Tags         holds
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la reserva"
// @Param        body  body  dto.UpdateHoldRequest  true  "quantity, expiry_at, reason"
// @Success      200   {object}  dto.HoldResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/holds/{id} [put]
func (h *HoldHandler) Update(c *fiber.Ctx) error {
	userID := GetUserID(c)
	var in dto.UpdateHoldRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	hold, err := h.uc.UpdateHold(c.Context(), c.Params("id"), in, userID)
	if err != nil {
		return holdError(c, err)
	}
	return c.JSON(toHoldResponse(hold))
}

// SetBooking godoc
// @Summary      Asociar una reserva a un booking
// @Tags         holds
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la reserva"
// @Param        body  body  dto.SetBookingRequest  true  "related_booking_id"
// @Success      200   {object}  dto.HoldResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/holds/{id}/booking [post]
func (h *HoldHandler) SetBooking(c *fiber.Ctx) error {
	var in dto.SetBookingRequest
	if err := c.BodyParser(&in); err != nil || in.RelatedBookingID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "related_booking_id es requerido"})
	}
	hold, err := h.uc.SetRelatedBooking(c.Context(), c.Params("id"), in.RelatedBookingID)
	if err != nil {
		return holdError(c, err)
	}
	return c.JSON(toHoldResponse(hold))
}

// ListActive godoc
// @Summary      Reservas activas de un estudiante
// @Tags         holds
// @Security     Bearer
// @Produce      json
// @Param        student_id    path   string  true   "ID del estudiante"
// @Param        service_type  query  string  false  "Filtrar por tipo de servicio"
// @Success      200  {array}   dto.HoldResponse
// @Router       /api/students/{student_id}/holds [get]
func (h *HoldHandler) ListActive(c *fiber.Ctx) error {
	list, err := h.uc.GetActiveHolds(c.Context(), c.Params("student_id"), c.Query("service_type"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.HoldResponse, 0, len(list))
	for _, hold := range list {
		out = append(out, toHoldResponse(hold))
	}
	return c.JSON(out)
}

// Sweep godoc
// @Summary      Liberar reservas expiradas (barrido)
// @Description  Cada reserva se procesa en su propia transacción: una que falle
//               no bloquea al resto. skipped_count = 1 indica que no había nada.
// @Tags         holds
// @Security     Bearer
// @Produce      json
// @Param        batch_size  query  int  false  "Máximo de reservas por corrida (default 50)"
// @Success      200  {object}  dto.SweepResponse
// @Router       /api/holds/sweep-expired [post]
func (h *HoldHandler) Sweep(c *fiber.Ctx) error {
	batchSize, _ := strconv.Atoi(c.Query("batch_size"))
	out, err := h.uc.ReleaseExpiredHolds(c.Context(), batchSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// ListStale godoc
// @Summary      Reservas activas antiguas (monitoreo)
// @Tags         holds
// @Security     Bearer
// @Produce      json
// @Param        hours_old  query  int  false  "Antigüedad mínima en horas (default 72)"
// @Success      200  {array}  dto.HoldResponse
// @Router       /api/holds/stale [get]
func (h *HoldHandler) ListStale(c *fiber.Ctx) error {
	hoursOld, _ := strconv.Atoi(c.Query("hours_old"))
	if hoursOld <= 0 {
		hoursOld = 72
	}
	list, err := h.uc.GetLongUnreleasedHolds(c.Context(), hoursOld)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.HoldResponse, 0, len(list))
	for _, hold := range list {
		out = append(out, toHoldResponse(hold))
	}
	return c.JSON(out)
}

// holdError mapea errores de dominio de reservas a respuestas HTTP.
func holdError(c *fiber.Ctx, err error) error {
	switch err {
	case domain.ErrInvalidInput:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case domain.ErrReasonRequired:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "REASON_REQUIRED", Message: "la operación requiere un motivo"})
	case domain.ErrEntitlementNotFound:
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "ENTITLEMENT_NOT_FOUND", Message: "el estudiante no tiene créditos de ese tipo"})
	case domain.ErrHoldNotFound:
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "HOLD_NOT_FOUND", Message: "la reserva no existe"})
	case domain.ErrHoldNotActive:
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "HOLD_NOT_ACTIVE", Message: "la reserva ya no está activa"})
	case domain.ErrInsufficientBalance:
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_BALANCE", Message: "saldo insuficiente"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func toHoldResponse(h *entity.Hold) dto.HoldResponse {
	return dto.HoldResponse{
		ID:               h.ID,
		StudentID:        h.StudentID,
		ServiceType:      h.ServiceType,
		Quantity:         h.Quantity,
		Status:           h.Status,
		ExpiryAt:         h.ExpiryAt,
		RelatedBookingID: h.RelatedBookingID,
		ReleaseReason:    h.ReleaseReason,
		CreatedBy:        h.CreatedBy,
		CreatedAt:        h.CreatedAt,
		ReleasedAt:       h.ReleasedAt,
	}
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Creditos-api/internal/application/consumption"
	"github.com/jhoicas/Creditos-api/internal/application/dto"
	"github.com/jhoicas/Creditos-api/internal/application/entitlement"
	"github.com/jhoicas/Creditos-api/internal/domain"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
)

// EntitlementHandler maneja saldos, materialización y consumos/ajustes (protegido).
type EntitlementHandler struct {
	entitlementUC *entitlement.EntitlementUseCase
	consumptionUC *consumption.ConsumptionUseCase
}

// NewEntitlementHandler construye el handler.
func NewEntitlementHandler(entitlementUC *entitlement.EntitlementUseCase, consumptionUC *consumption.ConsumptionUseCase) *EntitlementHandler {
	return &EntitlementHandler{entitlementUC: entitlementUC, consumptionUC: consumptionUC}
}

// GetBalance godoc
// @Summary      Saldo de créditos de un estudiante
// @Tags         entitlements
// @Security     Bearer
// @Produce      json
// @Param        student_id    path   string  true   "ID del estudiante"
// @Param        service_type  query  string  false  "Filtrar por tipo de servicio"
// @Success      200  {array}   dto.BalanceDTO
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/students/{student_id}/balance [get]
func (h *EntitlementHandler) GetBalance(c *fiber.Ctx) error {
	studentID := c.Params("student_id")
	serviceType := c.Query("service_type")
	balances, err := h.entitlementUC.GetBalance(c.Context(), studentID, serviceType)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(balances)
}

// Materialize godoc
// @Summary      Materializar créditos desde la activación de un contrato
// @Description  Crea las concesiones del snapshot de producto. Idempotente por
//               (contract_id, service_type): reintentar una activación no duplica saldo.
// @Tags         entitlements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MaterializeRequest  true  "contract_id, student_id, items"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/entitlements/materialize [post]
func (h *EntitlementHandler) Materialize(c *fiber.Ctx) error {
	var in dto.MaterializeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.ContractID == "" || in.StudentID == "" || len(in.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "contract_id, student_id e items son requeridos"})
	}
	if err := h.entitlementUC.Materialize(c.Context(), in); err != nil {
		if err == domain.ErrInvalidInput {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "créditos materializados"})
}

// Consume godoc
// @Summary      Consumir crédito de servicio
// @Tags         consumptions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumeRequest  true  "student_id, service_type, quantity, related_booking_id"
// @Success      201   {object}  dto.LedgerEntryDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/consumptions [post]
func (h *EntitlementHandler) Consume(c *fiber.Ctx) error {
	userID := GetUserID(c)
	var in dto.ConsumeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	entry, err := h.consumptionUC.ConsumeService(c.Context(), in, userID)
	if err != nil {
		if err == domain.ErrInvalidInput {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
		}
		if err == domain.ErrEntitlementNotFound {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "ENTITLEMENT_NOT_FOUND", Message: "el estudiante no tiene créditos de ese tipo"})
		}
		if err == domain.ErrInsufficientBalance {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_BALANCE", Message: "saldo insuficiente"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(toLedgerEntryDTO(entry))
}

// Adjust godoc
// @Summary      Ajuste manual de créditos (enmienda de contrato)
// @Description  Cantidad con signo: positiva concede, negativa recorta. Requiere motivo.
// @Tags         entitlements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "student_id, contract_id, service_type, quantity, reason"
// @Success      201   {object}  dto.LedgerEntryDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/entitlements/adjustments [post]
func (h *EntitlementHandler) Adjust(c *fiber.Ctx) error {
	userID := GetUserID(c)
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	entry, err := h.consumptionUC.AddAmendmentLedger(c.Context(), in, userID)
	if err != nil {
		if err == domain.ErrReasonRequired {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "REASON_REQUIRED", Message: "el ajuste requiere un motivo"})
		}
		if err == domain.ErrInvalidInput {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
		}
		if err == domain.ErrEntitlementNotFound {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "ENTITLEMENT_NOT_FOUND", Message: "no hay concesión para ese contrato y tipo"})
		}
		if err == domain.ErrInsufficientBalance {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_BALANCE", Message: "el recorte excede el saldo disponible"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(toLedgerEntryDTO(entry))
}

func toLedgerEntryDTO(e *entity.LedgerEntry) dto.LedgerEntryDTO {
	return dto.LedgerEntryDTO{
		ID:               e.ID,
		StudentID:        e.StudentID,
		ContractID:       e.ContractID,
		ServiceType:      e.ServiceType,
		Quantity:         e.Quantity,
		Type:             e.Type,
		Source:           e.Source,
		BalanceAfter:     e.BalanceAfter,
		RelatedBookingID: e.RelatedBookingID,
		RelatedHoldID:    e.RelatedHoldID,
		Reason:           e.Reason,
		CreatedBy:        e.CreatedBy,
		CreatedAt:        e.CreatedAt,
	}
}

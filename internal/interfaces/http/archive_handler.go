package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Creditos-api/internal/application/archive"
	"github.com/jhoicas/Creditos-api/internal/application/dto"
	"github.com/jhoicas/Creditos-api/internal/domain"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
)

// ArchiveHandler maneja políticas de archivado y corridas manuales (solo admin).
type ArchiveHandler struct {
	policyUC  *archive.PolicyUseCase
	archiveUC *archive.ArchiveUseCase
}

// NewArchiveHandler construye el handler.
func NewArchiveHandler(policyUC *archive.PolicyUseCase, archiveUC *archive.ArchiveUseCase) *ArchiveHandler {
	return &ArchiveHandler{policyUC: policyUC, archiveUC: archiveUC}
}

// CreatePolicy godoc
// @Summary      Crear política de archivado
// @Tags         archive
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePolicyRequest  true  "scope, contract_id|service_type, archive_after_days, delete_after_archive"
// @Success      201   {object}  dto.PolicyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/archive/policies [post]
func (h *ArchiveHandler) CreatePolicy(c *fiber.Ctx) error {
	var in dto.CreatePolicyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	policy, err := h.policyUC.CreatePolicy(c.Context(), in)
	if err != nil {
		return policyError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toPolicyResponse(policy))
}

// ListPolicies godoc
// @Summary      Listar políticas de archivado
// @Tags         archive
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.PolicyResponse
// @Router       /api/archive/policies [get]
func (h *ArchiveHandler) ListPolicies(c *fiber.Ctx) error {
	policies, err := h.policyUC.ListPolicies(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.PolicyResponse, 0, len(policies))
	for _, p := range policies {
		out = append(out, toPolicyResponse(p))
	}
	return c.JSON(out)
}

// GetPolicy godoc
// @Summary      Obtener política de archivado
// @Tags         archive
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la política"
// @Success      200  {object}  dto.PolicyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/archive/policies/{id} [get]
func (h *ArchiveHandler) GetPolicy(c *fiber.Ctx) error {
	policy, err := h.policyUC.GetPolicy(c.Context(), c.Params("id"))
	if err != nil {
		return policyError(c, err)
	}
	return c.JSON(toPolicyResponse(policy))
}

// SetPolicyEnabled godoc
// @Summary      Habilitar o deshabilitar política
// @Tags         archive
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la política"
// @Param        body  body  object{enabled=bool}  true  "enabled"
// @Success      200   {object}  dto.PolicyResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/archive/policies/{id}/enabled [put]
func (h *ArchiveHandler) SetPolicyEnabled(c *fiber.Ctx) error {
	var in struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	policy, err := h.policyUC.SetPolicyEnabled(c.Context(), c.Params("id"), in.Enabled)
	if err != nil {
		return policyError(c, err)
	}
	return c.JSON(toPolicyResponse(policy))
}

// Run godoc
// @Summary      Ejecutar archivado de asientos antiguos
// @Description  Aplica las políticas habilitadas (o la global implícita de 365
//               días si no hay ninguna). Los fallos por política se cuentan sin
//               abortar la corrida.
// @Tags         archive
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ArchiveRunResponse
// @Router       /api/archive/run [post]
func (h *ArchiveHandler) Run(c *fiber.Ctx) error {
	out, err := h.archiveUC.ArchiveOldLedgers(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// policyError mapea errores de dominio de políticas a respuestas HTTP.
func policyError(c *fiber.Ctx, err error) error {
	switch err {
	case domain.ErrInvalidInput:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case domain.ErrArchiveAfterDaysTooSmall:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "ARCHIVE_AFTER_DAYS_TOO_SMALL", Message: "archive_after_days debe ser al menos 1"})
	case domain.ErrArchivePolicyNotFound:
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "ARCHIVE_POLICY_NOT_FOUND", Message: "la política no existe"})
	case domain.ErrArchivePolicyExists:
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ARCHIVE_POLICY_ALREADY_EXISTS", Message: "ya existe una política habilitada para ese alcance"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func toPolicyResponse(p *entity.ArchivePolicy) dto.PolicyResponse {
	return dto.PolicyResponse{
		ID:                 p.ID,
		Scope:              p.Scope,
		ContractID:         p.ContractID,
		ServiceType:        p.ServiceType,
		ArchiveAfterDays:   p.ArchiveAfterDays,
		DeleteAfterArchive: p.DeleteAfterArchive,
		Enabled:            p.Enabled,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Creditos-api/internal/application/archive"
	"github.com/jhoicas/Creditos-api/internal/application/dto"
	"github.com/jhoicas/Creditos-api/internal/application/statement"
	"github.com/jhoicas/Creditos-api/internal/domain"
)

// LedgerHandler maneja la consulta del ledger (caliente + archivo) y el
// extracto PDF (protegido).
type LedgerHandler struct {
	archiveUC   *archive.ArchiveUseCase
	statementUC *statement.StatementUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(archiveUC *archive.ArchiveUseCase, statementUC *statement.StatementUseCase) *LedgerHandler {
	return &LedgerHandler{archiveUC: archiveUC, statementUC: statementUC}
}

// Query godoc
// @Summary      Consultar el ledger de servicios
// @Description  Une ledger caliente y archivo. Exige contract_id o student_id y
//               un rango de fechas de máximo un año.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        contract_id   query  string  false  "Filtrar por contrato"
// @Param        student_id    query  string  false  "Filtrar por estudiante"
// @Param        service_type  query  string  false  "Filtrar por tipo de servicio"
// @Param        start_date    query  string  true   "Inicio del rango (RFC3339 o YYYY-MM-DD)"
// @Param        end_date      query  string  true   "Fin del rango (RFC3339 o YYYY-MM-DD)"
// @Param        limit         query  int     false  "Máximo de asientos (default 100, máx 500)"
// @Success      200  {array}   dto.LedgerEntryDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger [get]
func (h *LedgerHandler) Query(c *fiber.Ctx) error {
	in, err := parseLedgerQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	entries, err := h.archiveUC.QueryWithArchive(c.Context(), in)
	if err != nil {
		if err == domain.ErrInvalidQuery {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "se requiere contract_id o student_id"})
		}
		if err == domain.ErrArchiveDateRangeTooLarge {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "ARCHIVE_DATE_RANGE_TOO_LARGE", Message: "el rango de fechas no puede superar un año"})
		}
		if err == domain.ErrInvalidInput {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "rango de fechas inválido"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.LedgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toLedgerEntryDTO(e))
	}
	return c.JSON(out)
}

// Statement godoc
// @Summary      Extracto PDF de un estudiante
// @Tags         ledger
// @Security     Bearer
// @Produce      application/pdf
// @Param        student_id  path   string  true  "ID del estudiante"
// @Param        start_date  query  string  true  "Inicio del período"
// @Param        end_date    query  string  true  "Fin del período"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/students/{student_id}/statement [get]
func (h *LedgerHandler) Statement(c *fiber.Ctx) error {
	from, err := parseDate(c.Query("start_date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "start_date inválido"})
	}
	to, err := parseDate(c.Query("end_date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "end_date inválido"})
	}
	pdfBytes, err := h.statementUC.GenerateStatement(c.Context(), c.Params("student_id"), from, to)
	if err != nil {
		if err == domain.ErrInvalidQuery || err == domain.ErrInvalidInput {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos"})
		}
		if err == domain.ErrArchiveDateRangeTooLarge {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "ARCHIVE_DATE_RANGE_TOO_LARGE", Message: "el período no puede superar un año"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `attachment; filename="extracto.pdf"`)
	return c.Send(pdfBytes)
}

func parseLedgerQuery(c *fiber.Ctx) (dto.LedgerQueryRequest, error) {
	var in dto.LedgerQueryRequest
	if v := c.Query("contract_id"); v != "" {
		in.ContractID = &v
	}
	if v := c.Query("student_id"); v != "" {
		in.StudentID = &v
	}
	if v := c.Query("service_type"); v != "" {
		in.ServiceType = &v
	}
	var err error
	if in.StartDate, err = parseDate(c.Query("start_date")); err != nil {
		return in, err
	}
	if in.EndDate, err = parseDate(c.Query("end_date")); err != nil {
		return in, err
	}
	in.Limit, _ = strconv.Atoi(c.Query("limit"))
	return in, nil
}

// parseDate acepta RFC3339 o fecha simple YYYY-MM-DD.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

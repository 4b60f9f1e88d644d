package dto

import "time"

// CreatePolicyRequest body para POST /api/archive/policies.
// ContractID/ServiceType se poblan según el scope.
type CreatePolicyRequest struct {
	Scope              string  `json:"scope" validate:"required,oneof=global service_type contract"`
	ContractID         *string `json:"contract_id,omitempty"`
	ServiceType        *string `json:"service_type,omitempty"`
	ArchiveAfterDays   int     `json:"archive_after_days" validate:"required,min=1"`
	DeleteAfterArchive bool    `json:"delete_after_archive"`
}

// PolicyResponse salida de una política de archivado.
type PolicyResponse struct {
	ID                 string    `json:"id"`
	Scope              string    `json:"scope"`
	ContractID         *string   `json:"contract_id,omitempty"`
	ServiceType        *string   `json:"service_type,omitempty"`
	ArchiveAfterDays   int       `json:"archive_after_days"`
	DeleteAfterArchive bool      `json:"delete_after_archive"`
	Enabled            bool      `json:"enabled"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// LedgerQueryRequest query params de GET /api/ledger.
// Rango máximo un año; se exige contract_id o student_id.
type LedgerQueryRequest struct {
	ContractID  *string   `query:"contract_id"`
	StudentID   *string   `query:"student_id"`
	ServiceType *string   `query:"service_type"`
	StartDate   time.Time `query:"start_date" validate:"required"`
	EndDate     time.Time `query:"end_date" validate:"required"`
	Limit       int       `query:"limit"`
}

// ArchiveRunResponse resultado de una corrida de archivado.
type ArchiveRunResponse struct {
	ArchivedCount int `json:"archived_count"`
	FailedCount   int `json:"failed_count"`
}

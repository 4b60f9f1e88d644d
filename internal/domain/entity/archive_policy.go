package entity

import "time"

// Alcances de una política de archivado, del más específico al más general.
const (
	ArchiveScopeContract    = "contract"
	ArchiveScopeServiceType = "service_type"
	ArchiveScopeGlobal      = "global"
)

// ArchivePolicy regla de retención del ledger caliente. A lo sumo una política
// habilitada por clave exacta de alcance (scope + contract_id|service_type).
type ArchivePolicy struct {
	ID                 string
	Scope              string
	ContractID         *string // poblado si Scope == contract
	ServiceType        *string // poblado si Scope == service_type
	ArchiveAfterDays   int
	DeleteAfterArchive bool
	Enabled            bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Matches indica si la política aplica al par (contrato, tipo de servicio).
func (p *ArchivePolicy) Matches(contractID, serviceType string) bool {
	switch p.Scope {
	case ArchiveScopeContract:
		return p.ContractID != nil && *p.ContractID == contractID
	case ArchiveScopeServiceType:
		return p.ServiceType != nil && *p.ServiceType == serviceType
	case ArchiveScopeGlobal:
		return true
	}
	return false
}

// ResolveArchivePolicy devuelve la primera política habilitada que aplica al
// par, con precedencia contrato -> tipo de servicio -> global. Nil significa
// "sin archivado para ese par". La precedencia vive aquí, en una función pura,
// para poder probarla sin almacenamiento.
func ResolveArchivePolicy(policies []*ArchivePolicy, contractID, serviceType string) *ArchivePolicy {
	for _, scope := range []string{ArchiveScopeContract, ArchiveScopeServiceType, ArchiveScopeGlobal} {
		for _, p := range policies {
			if !p.Enabled || p.Scope != scope {
				continue
			}
			if p.Matches(contractID, serviceType) {
				return p
			}
		}
	}
	return nil
}

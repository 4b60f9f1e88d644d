package repository

import "github.com/jhoicas/Creditos-api/internal/domain/entity"

// EntitlementGrantRepository define el puerto de persistencia para concesiones
// de crédito (DIP). Las operaciones que comprueban y mutan saldo deben usar
// ListForUpdate dentro de una transacción: bloquea todas las filas del par
// (estudiante, tipo de servicio) con SELECT FOR UPDATE, ordenadas por
// granted_at, id — el orden de prioridad de deducción.
type EntitlementGrantRepository interface {
	// List devuelve las concesiones del par, sin bloquear.
	List(studentID, serviceType string) ([]*entity.EntitlementGrant, error)
	// ListByStudent devuelve todas las concesiones del estudiante.
	ListByStudent(studentID string) ([]*entity.EntitlementGrant, error)
	// ListForUpdate bloquea y devuelve las concesiones del par (SELECT FOR UPDATE).
	ListForUpdate(studentID, serviceType string) ([]*entity.EntitlementGrant, error)
	// GetByContractAndType devuelve la concesión de un contrato para un tipo de
	// servicio, o nil si no existe. Base de la idempotencia de la activación.
	GetByContractAndType(contractID, serviceType string) (*entity.EntitlementGrant, error)
	// Create persiste una concesión nueva.
	Create(grant *entity.EntitlementGrant) error
	// UpdateQuantities persiste total/consumed/held de una concesión ya bloqueada.
	UpdateQuantities(grant *entity.EntitlementGrant) error
}

package repository

import (
	"time"

	"github.com/jhoicas/Creditos-api/internal/domain/entity"
)

// HoldRepository define el puerto de persistencia para reservas (DIP).
type HoldRepository interface {
	Create(hold *entity.Hold) error
	// GetByID devuelve la reserva o nil si no existe.
	GetByID(id string) (*entity.Hold, error)
	// GetByIDForUpdate bloquea la fila de la reserva (SELECT FOR UPDATE) para
	// que dos liberaciones concurrentes no procesen la misma reserva dos veces.
	GetByIDForUpdate(id string) (*entity.Hold, error)
	// Update persiste status, release_reason, released_at y related_booking_id.
	Update(hold *entity.Hold) error
	// ListActive devuelve reservas activas del estudiante; serviceType vacío = todos.
	ListActive(studentID, serviceType string) ([]*entity.Hold, error)
	// ListExpiredIDs devuelve hasta limit IDs de reservas activas con expiry_at vencido.
	ListExpiredIDs(now time.Time, limit int) ([]string, error)
	// ListActiveOlderThan devuelve reservas activas creadas antes del corte
	// (monitoreo de reservas olvidadas; sin acción automática).
	ListActiveOlderThan(cutoff time.Time) ([]*entity.Hold, error)
}

package repository

import (
	"time"

	"github.com/jhoicas/Creditos-api/internal/domain/entity"
)

// LedgerRepository define el puerto de persistencia del ledger caliente.
// Append-only: no existe update; el único borrado es la reubicación a archivo.
type LedgerRepository interface {
	Create(entry *entity.LedgerEntry) error
	// Query lista asientos según filtro, ordenados por created_at descendente.
	Query(filter entity.LedgerFilter) ([]*entity.LedgerEntry, error)
	// ListOlderThan devuelve hasta limit asientos con created_at anterior al
	// corte, acotados al alcance de una política (nil = sin restricción).
	ListOlderThan(cutoff time.Time, contractID, serviceType *string, limit int) ([]*entity.LedgerEntry, error)
	// DeleteByIDs elimina asientos ya copiados al archivo (delete_after_archive).
	DeleteByIDs(ids []string) error
}

// LedgerArchiveRepository define el puerto del almacenamiento frío: mismo
// esquema que el ledger caliente más la fecha de archivado.
type LedgerArchiveRepository interface {
	// InsertBatch copia asientos al archivo conservando sus valores originales.
	InsertBatch(entries []*entity.LedgerEntry, archivedAt time.Time) error
	// Query lista asientos archivados según filtro, created_at descendente.
	Query(filter entity.LedgerFilter) ([]*entity.LedgerEntry, error)
}

package repository

import "github.com/jhoicas/Creditos-api/internal/domain/entity"

// ArchivePolicyRepository define el puerto de persistencia de políticas de archivado.
type ArchivePolicyRepository interface {
	Create(policy *entity.ArchivePolicy) error
	// GetByID devuelve la política o nil si no existe.
	GetByID(id string) (*entity.ArchivePolicy, error)
	List() ([]*entity.ArchivePolicy, error)
	// ListEnabled devuelve solo las políticas habilitadas.
	ListEnabled() ([]*entity.ArchivePolicy, error)
	// FindEnabledByScopeKey busca la política habilitada con la clave exacta de
	// alcance, o nil. contractID/serviceType según el scope.
	FindEnabledByScopeKey(scope string, contractID, serviceType *string) (*entity.ArchivePolicy, error)
	// Update persiste enabled, archive_after_days y delete_after_archive.
	Update(policy *entity.ArchivePolicy) error
}

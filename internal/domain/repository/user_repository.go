package repository

import "github.com/jhoicas/Creditos-api/internal/domain/entity"

// UserRepository define el puerto de persistencia para usuarios del staff (DIP).
type UserRepository interface {
	Create(user *entity.User) error
	// GetByID devuelve el usuario o nil si no existe.
	GetByID(id string) (*entity.User, error)
	// FindByEmail devuelve el usuario o nil si no existe.
	FindByEmail(email string) (*entity.User, error)
}

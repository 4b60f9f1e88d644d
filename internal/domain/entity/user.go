package entity

import "time"

// Roles de los usuarios del panel (staff de la academia).
const (
	RoleAdmin    = "admin"    // administra políticas, ajustes y usuarios
	RoleOperator = "operator" // opera reservas y consumos
)

// User usuario del staff que opera la API protegida.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Status       string // active | disabled
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrEntitlementNotFound      = errors.New("el estudiante no tiene saldo para ese tipo de servicio")
	ErrInsufficientBalance      = errors.New("saldo de servicio insuficiente")
	ErrHoldNotFound             = errors.New("reserva no encontrada")
	ErrHoldNotActive            = errors.New("la reserva ya no está activa")
	ErrReasonRequired           = errors.New("el motivo es obligatorio")
	ErrArchivePolicyNotFound    = errors.New("política de archivado no encontrada")
	ErrArchivePolicyExists      = errors.New("ya existe una política habilitada para ese alcance")
	ErrArchiveAfterDaysTooSmall = errors.New("archive_after_days debe ser al menos 1")
	ErrArchiveDateRangeTooLarge = errors.New("el rango de fechas no puede superar un año")
	ErrInvalidQuery             = errors.New("la consulta requiere contract_id o student_id")
	ErrInvalidInput             = errors.New("entrada inválida")
	ErrNotFound                 = errors.New("recurso no encontrado")
	ErrUserNotFound             = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists       = errors.New("el email ya está registrado")
	ErrUnauthorized             = errors.New("no autorizado")
	ErrForbidden                = errors.New("acceso denegado")
)

package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation es el código SQLSTATE de Postgres para violación de
// constraint único.
const uniqueViolation = "23505"

// isUniqueViolation detecta el 23505. En este esquema lo disparan la clave
// (contract_id, service_type) de entitlement_grants, el índice parcial de
// clave de alcance de archive_policies, el email único de users y la PK de
// service_ledger_archive (doble archivado).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return strings.Contains(err.Error(), uniqueViolation)
}

package entitlement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Creditos-api/internal/domain"
	"github.com/jhoicas/Creditos-api/internal/domain/entity"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// Dos concesiones en orden de antigüedad: 3 disponibles en la primera y 5 en la segunda.
func twoGrants() []*entity.EntitlementGrant {
	return []*entity.EntitlementGrant{
		{ID: "g1", TotalQuantity: dec("5"), ConsumedQuantity: dec("2"), HeldQuantity: decimal.Zero},
		{ID: "g2", TotalQuantity: dec("5"), ConsumedQuantity: decimal.Zero, HeldQuantity: decimal.Zero},
	}
}

func TestDeductHeld_RepartePorAntiguedad(t *testing.T) {
	grants := twoGrants()

	touched, err := DeductHeld(grants, dec("4"))
	require.NoError(t, err)
	require.Len(t, touched, 2, "la reserva debe cruzar a la segunda concesión")

	// Primera concesión agotada (3), el resto (1) en la segunda
	assert.True(t, grants[0].HeldQuantity.Equal(dec("3")))
	assert.True(t, grants[1].HeldQuantity.Equal(dec("1")))
	assert.True(t, AvailableSum(grants).Equal(dec("4")))
}

func TestDeductHeld_SaldoInsuficienteNoMuta(t *testing.T) {
	grants := twoGrants() // disponible agregado: 8

	_, err := DeductHeld(grants, dec("9"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestDeductConsumed_IgnoraRetenido(t *testing.T) {
	grants := twoGrants()
	grants[0].HeldQuantity = dec("3") // primera sin disponible

	touched, err := DeductConsumed(grants, dec("2"))
	require.NoError(t, err)
	require.Len(t, touched, 1)
	assert.Equal(t, "g2", touched[0].ID, "debe saltar la concesión sin disponible")
	assert.True(t, grants[1].ConsumedQuantity.Equal(dec("2")))
}

func TestRestoreHeld_DevuelveContraFilasConRetenido(t *testing.T) {
	grants := twoGrants()
	_, err := DeductHeld(grants, dec("4"))
	require.NoError(t, err)

	// Liberación total: los retenidos vuelven a cero
	touched, err := RestoreHeld(grants, dec("4"))
	require.NoError(t, err)
	require.Len(t, touched, 2)
	assert.True(t, grants[0].HeldQuantity.IsZero())
	assert.True(t, grants[1].HeldQuantity.IsZero())
	assert.True(t, AvailableSum(grants).Equal(dec("8")))
}

func TestReduceTotal_NoBajaDeConsumidoMasRetenido(t *testing.T) {
	grants := twoGrants() // totales 5+5, consumido 2, disponible 8

	touched, err := ReduceTotal(grants, dec("6"))
	require.NoError(t, err)
	require.Len(t, touched, 2)
	// g1 solo puede recortar 3 (consumido 2), g2 los 3 restantes
	assert.True(t, grants[0].TotalQuantity.Equal(dec("2")))
	assert.True(t, grants[1].TotalQuantity.Equal(dec("2")))
	assert.True(t, AvailableSum(grants).Equal(dec("2")))

	// Un recorte mayor que el disponible restante falla
	_, err = ReduceTotal(grants, dec("3"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestAllocate_CantidadNoPositivaInvalida(t *testing.T) {
	grants := twoGrants()
	_, err := DeductHeld(grants, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = DeductConsumed(grants, dec("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

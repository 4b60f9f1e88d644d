package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestEntitlementGrant_Available(t *testing.T) {
	g := &EntitlementGrant{
		TotalQuantity:    dec("10"),
		ConsumedQuantity: dec("3"),
		HeldQuantity:     dec("2.5"),
	}
	assert.True(t, g.Available().Equal(dec("4.5")))
}

func TestAggregateBalance_SumaSobreConcesiones(t *testing.T) {
	grants := []*EntitlementGrant{
		{TotalQuantity: dec("10"), ConsumedQuantity: dec("4"), HeldQuantity: dec("1")},
		{TotalQuantity: dec("5"), ConsumedQuantity: dec("0"), HeldQuantity: dec("2")},
	}
	b := AggregateBalance("st-1", "session", grants)

	assert.True(t, b.TotalQuantity.Equal(dec("15")))
	assert.True(t, b.ConsumedQuantity.Equal(dec("4")))
	assert.True(t, b.HeldQuantity.Equal(dec("3")))
	assert.True(t, b.Available().Equal(dec("8")))
}

func TestAggregateBalance_SinConcesionesEsCero(t *testing.T) {
	b := AggregateBalance("st-1", "session", nil)
	assert.True(t, b.Available().IsZero())
	assert.True(t, b.TotalQuantity.IsZero())
}

func TestHold_IsExpiredAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	// Activa y vencida
	h := &Hold{Status: HoldStatusActive, ExpiryAt: &past}
	assert.True(t, h.IsExpiredAt(now))

	// Activa pero aún no vence
	h = &Hold{Status: HoldStatusActive, ExpiryAt: &future}
	assert.False(t, h.IsExpiredAt(now))

	// Sin expiración: nunca expira sola
	h = &Hold{Status: HoldStatusActive}
	assert.False(t, h.IsExpiredAt(now))

	// Ya liberada: terminal, no cuenta como expirada
	h = &Hold{Status: HoldStatusReleased, ExpiryAt: &past}
	assert.False(t, h.IsExpiredAt(now))
}

package allocation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-allocation/internal/domain"
	"github.com/jhoicas/stock-allocation/internal/domain/allocation"
)

func TestToStockUnits_SinRedondeo(t *testing.T) {
	got, err := allocation.ToStockUnits(decimal.RequireFromString("2.5"), decimal.RequireFromString("1.333"))
	require.NoError(t, err)
	assert.Equal(t, "3.3325", got.String())
}

func TestToStockUnits_FactorInvalido(t *testing.T) {
	_, err := allocation.ToStockUnits(d(3), decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = allocation.ToStockUnits(d(-3), d(2))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMovementValue(t *testing.T) {
	// 30 placas, 3 placas por m², 1000 por m² → 10 m² → 10000
	v := allocation.MovementValue(d(-30), d(3), d(1000))
	assert.True(t, v.Equal(d(10000)), "obtenido %s", v)

	assert.True(t, allocation.MovementValue(d(30), decimal.Zero, d(1000)).IsZero())
}

func TestDiffDemands(t *testing.T) {
	before := map[string]decimal.Decimal{"s1": d(5), "s2": d(3), "s3": d(1)}
	after := map[string]decimal.Decimal{"s1": d(5), "s2": d(4), "s4": d(2)}

	diff := allocation.DiffDemands(before, after)

	assert.Equal(t, []allocation.Demand{{StockID: "s4", Quantity: d(2)}}, diff.Added)
	assert.Equal(t, []string{"s3"}, diff.Removed)
	require.Len(t, diff.Changed, 1)
	assert.Equal(t, "s2", diff.Changed[0].StockID)
	assert.Equal(t, []string{"s1"}, diff.Unchanged)
	assert.False(t, diff.Empty())

	assert.True(t, allocation.DiffDemands(before, before).Empty())
}

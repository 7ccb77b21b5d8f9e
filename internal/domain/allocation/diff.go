package allocation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Demand demanda agregada de un pedido sobre un stock, en unidades de stock.
type Demand struct {
	StockID  string
	Quantity decimal.Decimal
}

// DemandDiff resultado de comparar la demanda previa y la nueva de un pedido, por stock.
type DemandDiff struct {
	Added     []Demand
	Removed   []string
	Changed   []Demand
	Unchanged []string
}

// Empty indica que no hay nada que aplicar.
func (d DemandDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// DiffDemands compara demandas por stock. Los resultados se ordenan por StockID.
func DiffDemands(before, after map[string]decimal.Decimal) DemandDiff {
	var d DemandDiff
	for _, id := range sortedKeys(after) {
		q := after[id]
		prev, ok := before[id]
		switch {
		case !ok:
			d.Added = append(d.Added, Demand{StockID: id, Quantity: q})
		case !prev.Equal(q):
			d.Changed = append(d.Changed, Demand{StockID: id, Quantity: q})
		default:
			d.Unchanged = append(d.Unchanged, id)
		}
	}
	for _, id := range sortedKeys(before) {
		if _, ok := after[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	return d
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

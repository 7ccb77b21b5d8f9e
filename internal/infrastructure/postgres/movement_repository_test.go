package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

func TestMovementWhere_SinFiltros(t *testing.T) {
	where, args := movementWhere(repository.MovementFilter{}, nil, nil)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestMovementWhere_NumeraParametrosEnOrden(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := repository.MovementFilter{
		StockID:    "s1",
		Type:       entity.MovementDelivery,
		ClientName: "José",
		Terms:      []string{"calacatta", "50%"},
	}
	where, args := movementWhere(f, &from, nil)

	assert.Equal(t,
		` WHERE stock_id = $1 AND type = $2 AND created_at >= $3`+
			` AND client_folded LIKE $4 ESCAPE '\' AND search_text LIKE $5 ESCAPE '\' AND search_text LIKE $6 ESCAPE '\'`,
		where)
	assert.Equal(t, []any{"s1", "entrega", from, "%jose%", "%calacatta%", `%50\%%`}, args)
}

func TestContainsPattern_EscapaComodines(t *testing.T) {
	assert.Equal(t, `%a\_b%`, containsPattern("a_b"))
	assert.Equal(t, `%c:\\tmp%`, containsPattern(`c:\tmp`))
}

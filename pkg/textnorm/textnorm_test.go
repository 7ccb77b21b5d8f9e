package textnorm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-allocation/pkg/textnorm"
)

func TestFold_QuitaTildesYMayusculas(t *testing.T) {
	assert.Equal(t, "marmol nandu", textnorm.Fold("  Mármol   ÑANDÚ "))
	assert.Equal(t, "", textnorm.Fold("   "))
}

func TestTerms_SinRepetidos(t *testing.T) {
	assert.Equal(t, []string{"placa", "blanca"}, textnorm.Terms("Placa blanca PLACA"))
	assert.Nil(t, textnorm.Terms(""))
}

func TestMatchAll(t *testing.T) {
	text := textnorm.SearchText("Porcelanato", "Calacatta Oro", "José Pérez", "R-0001")

	assert.True(t, textnorm.MatchAll(text, textnorm.Terms("jose calacatta")))
	assert.False(t, textnorm.MatchAll(text, textnorm.Terms("jose travertino")))
	assert.True(t, textnorm.MatchAll(text, nil))
}

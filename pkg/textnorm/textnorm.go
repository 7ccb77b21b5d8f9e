package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normaliza texto para búsquedas: sin tildes, minúsculas (case folding) y espacios colapsados.
// "Mármol  Ñandú" -> "marmol nandu".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = cases.Fold().String(out)
	return strings.Join(strings.Fields(out), " ")
}

// Terms separa una consulta libre en términos normalizados, sin repetidos.
func Terms(query string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, f := range strings.Fields(Fold(query)) {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// SearchText arma el texto indexable a partir de varios campos.
func SearchText(fields ...string) string {
	return Fold(strings.Join(fields, " "))
}

// MatchAll indica si todos los términos aparecen en el texto ya normalizado.
func MatchAll(folded string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(folded, t) {
			return false
		}
	}
	return true
}

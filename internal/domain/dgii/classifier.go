// Package dgii contiene las reglas de dominio fiscales de la República Dominicana:
// clasificación de impuestos, agregación de montos por factura y validaciones de posteo.
package dgii

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
)

// Rango de códigos DGII que identifican un impuesto selectivo al consumo.
const (
	iscCodeMin = 6
	iscCodeMax = 39
)

// Classifier resuelve categoría, exención e ISC de un impuesto.
// La categoría estructurada manda; el clasificador por nombre solo actúa si está habilitado
// y el impuesto no trae categoría.
type Classifier struct {
	Legacy *LegacyClassifier
}

// NewClassifier crea el clasificador; legacyNames habilita el respaldo por nombre.
func NewClassifier(legacyNames bool) Classifier {
	if legacyNames {
		return Classifier{Legacy: &LegacyClassifier{}}
	}
	return Classifier{}
}

// Category devuelve la categoría del impuesto.
func (c Classifier) Category(t *entity.Tax) entity.TaxCategory {
	if t == nil {
		return entity.TaxCategoryNone
	}
	if t.Category != "" && t.Category.Valid() {
		return t.Category
	}
	if c.Legacy != nil {
		if cat := c.Legacy.Category(t.Name); cat != "" {
			return cat
		}
	}
	return entity.TaxCategoryNone
}

// IsExempt indica si el impuesto marca la línea como exenta.
func (c Classifier) IsExempt(t *entity.Tax) bool {
	if t == nil {
		return false
	}
	if t.Exempt || t.ETax == entity.ETaxExempt {
		return true
	}
	return c.Legacy != nil && c.Legacy.Exempt(t.Name)
}

// IsISC indica si el impuesto es selectivo al consumo: código DGII 6..39 o categoría isc.
func (c Classifier) IsISC(t *entity.Tax) bool {
	if t == nil {
		return false
	}
	if code, err := strconv.Atoi(strings.TrimSpace(t.DGIICode)); err == nil {
		return code >= iscCodeMin && code <= iscCodeMax
	}
	return c.Category(t) == entity.TaxCategoryISC
}

// ── Clasificación por nombre (respaldo) ─────────────────────────────────────

// LegacyClassifier infiere la categoría a partir del nombre del impuesto
// ("ITBIS 18%", "Retención ISR", "Exento"). Ignora mayúsculas y tildes.
type LegacyClassifier struct{}

// Category devuelve la categoría inferida o "" si el nombre no es reconocible.
func (LegacyClassifier) Category(name string) entity.TaxCategory {
	words := nameWords(name)
	withheld := words["retencion"] || words["retenido"]
	switch {
	case withheld && words["itbis"]:
		return entity.TaxCategoryRITBIS
	case withheld && words["isr"]:
		return entity.TaxCategoryISR
	case words["selectivo"] || words["isc"]:
		return entity.TaxCategoryISC
	case words["propina"]:
		return entity.TaxCategoryTip
	case words["itbis"]:
		return entity.TaxCategoryITBIS
	}
	return ""
}

// Exempt indica si el nombre corresponde a un impuesto exento.
func (LegacyClassifier) Exempt(name string) bool {
	words := nameWords(name)
	return words["exento"] || words["exenta"]
}

// nameWords devuelve el conjunto de palabras normalizadas del nombre.
func nameWords(name string) map[string]bool {
	words := map[string]bool{}
	for _, w := range strings.FieldsFunc(normalizeName(name), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		words[w] = true
	}
	return words
}

// normalizeName quita tildes y pasa a minúsculas ("Retención" -> "retencion").
func normalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

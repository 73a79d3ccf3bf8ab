package dgii

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TotalDecimals cantidad de decimales con que se informa MontoTotal.
// El conector redondea el total a un decimal; el resto de montos va con dos.
const TotalDecimals = 1

// DateLayout formato de fecha dd-mm-aaaa usado en el e-CF.
const DateLayout = "02-01-2006"

// Round2 redondea half-up a dos decimales.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Amount formatea un monto con dos decimales ("1180.00").
func Amount(d decimal.Decimal) string {
	return Round2(d).StringFixed(2)
}

// Total formatea el monto total con TotalDecimals decimales ("1180.0").
func Total(d decimal.Decimal) string {
	return d.Round(TotalDecimals).StringFixed(TotalDecimals)
}

// Quantity formatea una cantidad conservando los decimales significativos ("1.0", "2.5").
func Quantity(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Date formatea una fecha como dd-mm-aaaa.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// DatePtr formatea una fecha opcional; vacío si es nil.
func DatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return Date(*t)
}

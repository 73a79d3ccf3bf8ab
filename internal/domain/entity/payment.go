package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Formas de pago de un diario.
const (
	PaymentFormCash = "cash"
	PaymentFormBank = "bank"
	PaymentFormCard = "card"
)

// PaymentEntry representa una conciliación aplicada a la factura.
// PaymentID vacío y MoveID informado indica un cruce con otro documento (permuta);
// ambos vacíos indica aplicación de una nota de crédito.
type PaymentEntry struct {
	Date        time.Time
	Amount      decimal.Decimal
	PaymentID   string
	MoveID      string
	JournalType string // cash | bank | otros
	PaymentForm string // cash | bank | card (forma de pago configurada en el diario)
}

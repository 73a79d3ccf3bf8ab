package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoveType tipo de documento contable.
type MoveType string

const (
	MoveOutInvoice MoveType = "out_invoice" // factura de cliente (o nota de débito de venta)
	MoveOutRefund  MoveType = "out_refund"  // nota de crédito de venta
	MoveInInvoice  MoveType = "in_invoice"  // factura de proveedor
	MoveInRefund   MoveType = "in_refund"   // nota de crédito de compra
)

// IsSale indica si el documento es de venta.
func (m MoveType) IsSale() bool { return m == MoveOutInvoice || m == MoveOutRefund }

// IsRefund indica si el documento es una nota de crédito.
func (m MoveType) IsRefund() bool { return m == MoveOutRefund || m == MoveInRefund }

// Estados contables de la factura.
const (
	InvoiceStateDraft  = "draft"
	InvoiceStatePosted = "posted"
	InvoiceStateCancel = "cancel"
)

// Estados de pago.
const (
	PaymentStateNotPaid   = "not_paid"
	PaymentStatePartial   = "partial"
	PaymentStateInPayment = "in_payment"
	PaymentStatePaid      = "paid"
)

// Estados de envío del e-CF a la DGII.
const (
	ECFStatusPending     = ""                     // sin enviar
	ECFStatusAccepted    = "Aceptado"             // aceptado por la DGII
	ECFStatusConditional = "Aceptado Condicional" // aceptado con observaciones
	ECFStatusRejected    = "Rechazado"            // rechazado por la DGII
	ECFStatusError       = "Error"                // fallo de transporte o autenticación
)

// Invoice representa un documento contable con sus datos fiscales dominicanos.
type Invoice struct {
	ID               string
	CompanyID        string
	PartnerID        string
	Name             string // número interno (ej: "INV/2024/0001")
	MoveType         MoveType
	State            string
	PaymentState     string
	FiscalTypeID     string
	FiscalSequenceID string
	Ref              string // NCF asignado
	InvoiceDate      time.Time
	DueDate          *time.Time
	// NCFExpirationDate vencimiento de la secuencia con la que se emitió el NCF.
	NCFExpirationDate *time.Time
	CurrencyCode      string
	CurrencyRate      decimal.Decimal // tasa a moneda de la empresa; cero si es la misma moneda
	AmountUntaxed     decimal.Decimal
	AmountTax         decimal.Decimal
	AmountTotal       decimal.Decimal
	AmountResidual    decimal.Decimal
	IncomeType        string // tipo de ingresos (01..06)

	// Notas de crédito y débito.
	OriginRef          string // NCF del comprobante afectado
	IsDebitNote        bool
	ModificationCode   string // 1..5 según la DGII
	ModificationReason string

	Lines    []*InvoiceLine
	TaxLines []*TaxLine
	Payments []*PaymentEntry

	// Resultado del envío e-CF.
	ECFStatus       string
	ECFTrackID      string
	ECFQRImage      []byte // PNG
	ECFSecurityCode string
	ECFSignedAt     *time.Time
	ECFSubmitted    bool
	ECFPayload      string // último JSON enviado (o intentado)
	ECFErrorMessage string // último error o mensajes de rechazo

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCreditNote indica si la factura es una nota de crédito de venta.
func (i *Invoice) IsCreditNote() bool {
	return i.MoveType == MoveOutRefund
}

// IsDebitNoteDocument indica si la factura es una nota de débito (venta o compra).
func (i *Invoice) IsDebitNoteDocument() bool {
	return i.IsDebitNote && (i.MoveType == MoveOutInvoice || i.MoveType == MoveInInvoice)
}

// IsPaid indica si el estado de pago habilita el reporte de retenciones.
func (i *Invoice) IsPaid() bool {
	return i.PaymentState == PaymentStatePaid || i.PaymentState == PaymentStateInPayment
}

// IsECFAccepted indica si el e-CF ya fue aceptado (total o condicionalmente).
func (i *Invoice) IsECFAccepted() bool {
	return i.ECFSubmitted && (i.ECFStatus == ECFStatusAccepted || i.ECFStatus == ECFStatusConditional)
}

// TaxLine representa un apunte contable de impuesto (balance con signo).
type TaxLine struct {
	Tax     *Tax
	Balance decimal.Decimal
}

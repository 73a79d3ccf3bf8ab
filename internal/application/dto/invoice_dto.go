package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceResponse factura fiscal para GET /api/invoices/:id.
type InvoiceResponse struct {
	ID            string            `json:"id"`
	CompanyID     string            `json:"company_id"`
	PartnerID     string            `json:"partner_id"`
	Name          string            `json:"name"`
	MoveType      string            `json:"move_type"`
	State         string            `json:"state"`
	PaymentState  string            `json:"payment_state"`
	NCF           string            `json:"ncf,omitempty"`
	NCFExpiration *time.Time        `json:"ncf_expiration,omitempty"`
	OriginNCF     string            `json:"origin_ncf,omitempty"`
	InvoiceDate   string            `json:"invoice_date"`
	CurrencyCode  string            `json:"currency_code"`
	AmountUntaxed decimal.Decimal   `json:"amount_untaxed"`
	AmountTax     decimal.Decimal   `json:"amount_tax"`
	AmountTotal   decimal.Decimal   `json:"amount_total"`
	PaymentForm   string            `json:"payment_form"` // 01..07 (formato 607)
	Taxes         TaxTotalsResponse `json:"taxes"`
	Report        ReportResponse    `json:"report"`
	ECF           ECFStatusResponse `json:"ecf"`
}

// ReportResponse datos de la factura para los formatos 606/607.
type ReportResponse struct {
	Goods              decimal.Decimal `json:"goods"`
	Services           decimal.Decimal `json:"services"`
	ISRWithholdingType string          `json:"isr_withholding_type,omitempty"`
	PaymentDate        string          `json:"payment_date,omitempty"`
}

// TaxTotalsResponse totales de impuestos por categoría, en moneda de la empresa.
type TaxTotalsResponse struct {
	ITBIS         decimal.Decimal `json:"itbis"`
	ISC           decimal.Decimal `json:"isc"`
	Other         decimal.Decimal `json:"other"`
	Tip           decimal.Decimal `json:"tip"`
	ITBISWithheld decimal.Decimal `json:"itbis_withheld"`
	ISRWithheld   decimal.Decimal `json:"isr_withheld"`
}

// ECFStatusResponse estado del envío electrónico de la factura.
type ECFStatusResponse struct {
	Status       string     `json:"status"`
	TrackID      string     `json:"track_id,omitempty"`
	Submitted    bool       `json:"submitted"`
	SecurityCode string     `json:"security_code,omitempty"`
	SignedAt     *time.Time `json:"signed_at,omitempty"`
	Error        string     `json:"error,omitempty"` // último mensaje de rechazo o de fallo
}

// SubmissionResponse resultado de POST /api/invoices/:id/einvoice.
type SubmissionResponse struct {
	InvoiceID string            `json:"invoice_id"`
	NCF       string            `json:"ncf"`
	ECF       ECFStatusResponse `json:"ecf"`
	Messages  []DGIIMessage     `json:"messages,omitempty"`
}

// DGIIMessage mensaje devuelto por la DGII.
type DGIIMessage struct {
	Code  string `json:"code"`
	Value string `json:"value"`
}

// PayloadResponse vista previa del e-CF.
type PayloadResponse struct {
	InvoiceID  string            `json:"invoice_id"`
	EmitterRNC string            `json:"emitter_rnc,omitempty"`
	Payload    json.RawMessage   `json:"payload"`
	Taxes      TaxTotalsResponse `json:"taxes"`
}

// FiscalSequenceStatusResponse disponibilidad de una secuencia de NCF.
type FiscalSequenceStatusResponse struct {
	ID             string `json:"id"`
	Prefix         string `json:"prefix"`
	NextNumber     int64  `json:"next_number"`
	SequenceEnd    int64  `json:"sequence_end"`
	Remaining      int64  `json:"remaining"`
	ExpirationDate string `json:"expiration_date"`
	State          string `json:"state"`
	Status         string `json:"status"` // fiscal_ok | almost_no_sequence | no_sequence
}

// PostInvoiceResponse resultado de POST /api/invoices/:id/post.
type PostInvoiceResponse struct {
	ID            string     `json:"id"`
	State         string     `json:"state"`
	NCF           string     `json:"ncf"`
	NCFExpiration *time.Time `json:"ncf_expiration,omitempty"`
}

// RejectionResponse cuerpo 422 cuando la DGII rechaza el e-CF.
type RejectionResponse struct {
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Status   string        `json:"status"`
	TrackID  string        `json:"track_id,omitempty"`
	Messages []DGIIMessage `json:"messages"`
}

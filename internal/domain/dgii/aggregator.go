package dgii

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ecf-dgii/internal/domain"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/pkg/dgii"
)

// TaxTotals montos de impuestos de una factura por categoría (moneda de la empresa, valores absolutos).
type TaxTotals struct {
	ITBIS         decimal.Decimal
	ISC           decimal.Decimal
	Other         decimal.Decimal
	Tip           decimal.Decimal
	ITBISWithheld decimal.Decimal
	ISRWithheld   decimal.Decimal
}

// HasWithholding indica si hay alguna retención reportable.
func (t TaxTotals) HasWithholding() bool {
	return !t.ITBISWithheld.IsZero() || !t.ISRWithheld.IsZero()
}

// Aggregate suma por categoría los balances de los apuntes de impuesto de la factura.
// Borradores o facturas sin apuntes devuelven todo en cero. Las retenciones solo se
// informan cuando la factura está pagada, en proceso de pago o parcialmente pagada.
func Aggregate(inv *entity.Invoice, c Classifier) TaxTotals {
	var t TaxTotals
	if inv == nil || inv.State == entity.InvoiceStateDraft || len(inv.TaxLines) == 0 {
		return t
	}
	sums := map[entity.TaxCategory]decimal.Decimal{}
	for _, tl := range inv.TaxLines {
		cat := c.Category(tl.Tax)
		sums[cat] = sums[cat].Add(tl.Balance)
	}
	t.ITBIS = sums[entity.TaxCategoryITBIS].Abs()
	t.ISC = sums[entity.TaxCategoryISC].Abs()
	t.Other = sums[entity.TaxCategoryOther].Abs()
	t.Tip = sums[entity.TaxCategoryTip].Abs()
	if withholdingReportable(inv) {
		t.ITBISWithheld = sums[entity.TaxCategoryRITBIS].Abs()
		t.ISRWithheld = sums[entity.TaxCategoryISR].Abs()
	}
	return t
}

func withholdingReportable(inv *entity.Invoice) bool {
	return inv.IsPaid() || inv.PaymentState == entity.PaymentStatePartial
}

// ValidateSingleWithholding rechaza facturas con más de un apunte del mismo tipo de retención.
func ValidateSingleWithholding(inv *entity.Invoice, c Classifier) error {
	seen := map[entity.TaxCategory]bool{}
	for _, tl := range inv.TaxLines {
		cat := c.Category(tl.Tax)
		if !cat.IsWithholding() {
			continue
		}
		if seen[cat] {
			return domain.ErrMultipleWithholding
		}
		seen[cat] = true
	}
	return nil
}

// GoodsAndServices separa el subtotal de bienes y servicios en moneda de la empresa.
// Las notas de crédito se devuelven en negativo.
func GoodsAndServices(inv *entity.Invoice) (goods, services decimal.Decimal) {
	if inv == nil || inv.State == entity.InvoiceStateDraft || inv.InvoiceDate.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	for _, l := range inv.Lines {
		if l.IsService() {
			services = services.Add(l.Subtotal)
		} else {
			goods = goods.Add(l.Subtotal)
		}
	}
	return ToCompanyCurrency(inv, goods), ToCompanyCurrency(inv, services)
}

// ToCompanyCurrency convierte un monto de la factura a la moneda de la empresa con signo de documento.
func ToCompanyCurrency(inv *entity.Invoice, amount decimal.Decimal) decimal.Decimal {
	if !inv.CurrencyRate.IsZero() {
		amount = dgii.Round2(amount.Mul(inv.CurrencyRate))
	}
	if inv.MoveType.IsRefund() {
		return amount.Neg()
	}
	return amount
}

// ISRWithholdingType devuelve el tipo de retención ISR (01..08) de una factura de proveedor validada.
func ISRWithholdingType(inv *entity.Invoice, c Classifier) string {
	if inv == nil || inv.MoveType != entity.MoveInInvoice || inv.State == entity.InvoiceStateDraft {
		return ""
	}
	for _, tl := range inv.TaxLines {
		if c.Category(tl.Tax) == entity.TaxCategoryISR {
			return tl.Tax.ISRReason
		}
	}
	return ""
}

// PaymentDate fecha del último pago, acotada inferiormente por la fecha de la factura.
// Nil si la factura no está pagada.
func PaymentDate(inv *entity.Invoice) *time.Time {
	if inv == nil || !inv.IsPaid() {
		return nil
	}
	var last time.Time
	for _, p := range inv.Payments {
		if p.Date.After(last) {
			last = p.Date
		}
	}
	if last.IsZero() {
		return nil
	}
	if !inv.InvoiceDate.IsZero() && last.Before(inv.InvoiceDate) {
		d := inv.InvoiceDate
		return &d
	}
	return &last
}

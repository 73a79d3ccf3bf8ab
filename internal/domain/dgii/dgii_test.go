package dgii_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ecf-dgii/internal/domain"
	"github.com/jhoicas/ecf-dgii/internal/domain/dgii"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tax(cat entity.TaxCategory, rate string) *entity.Tax {
	return &entity.Tax{Name: string(cat), Category: cat, Rate: dec(rate)}
}

func postedInvoice(lines ...*entity.TaxLine) *entity.Invoice {
	return &entity.Invoice{
		MoveType:     entity.MoveOutInvoice,
		State:        entity.InvoiceStatePosted,
		PaymentState: entity.PaymentStateNotPaid,
		InvoiceDate:  time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		AmountTotal:  dec("1180"),
		TaxLines:     lines,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Clasificador
// ──────────────────────────────────────────────────────────────────────────────

func TestClassifier_CategoriaEstructuradaManda(t *testing.T) {
	c := dgii.NewClassifier(true)
	tx := &entity.Tax{Name: "Retención ISR", Category: entity.TaxCategoryITBIS}
	assert.Equal(t, entity.TaxCategoryITBIS, c.Category(tx), "la categoría explícita no se reemplaza por el nombre")
}

func TestClassifier_RespaldoPorNombreSoloSiHabilitado(t *testing.T) {
	tx := &entity.Tax{Name: "RETENCIÓN ITBIS 30%"}

	assert.Equal(t, entity.TaxCategoryNone, dgii.NewClassifier(false).Category(tx))
	assert.Equal(t, entity.TaxCategoryRITBIS, dgii.NewClassifier(true).Category(tx))

	legacy := dgii.LegacyClassifier{}
	assert.Equal(t, entity.TaxCategoryISR, legacy.Category("Retencion ISR Honorarios"))
	assert.Equal(t, entity.TaxCategoryISC, legacy.Category("Selectivo al Consumo"))
	assert.Equal(t, entity.TaxCategoryTip, legacy.Category("Propina Legal 10%"))
	assert.Equal(t, entity.TaxCategoryITBIS, legacy.Category("ITBIS 18%"))
	assert.Equal(t, entity.TaxCategory(""), legacy.Category("IVA"))
}

func TestClassifier_Exento(t *testing.T) {
	off := dgii.NewClassifier(false)
	on := dgii.NewClassifier(true)

	assert.True(t, off.IsExempt(&entity.Tax{Exempt: true}))
	assert.True(t, off.IsExempt(&entity.Tax{ETax: entity.ETaxExempt}))
	assert.False(t, off.IsExempt(&entity.Tax{Name: "Exento"}), "sin respaldo el nombre no cuenta")
	assert.True(t, on.IsExempt(&entity.Tax{Name: "ITBIS Exento"}))
}

func TestClassifier_ISCPorCodigoDGII(t *testing.T) {
	c := dgii.NewClassifier(false)
	assert.True(t, c.IsISC(&entity.Tax{DGIICode: "6"}))
	assert.True(t, c.IsISC(&entity.Tax{DGIICode: "39"}))
	assert.False(t, c.IsISC(&entity.Tax{DGIICode: "40", Category: entity.TaxCategoryISC}), "el código DGII tiene prioridad")
	assert.True(t, c.IsISC(&entity.Tax{Category: entity.TaxCategoryISC}))
	assert.False(t, c.IsISC(&entity.Tax{Category: entity.TaxCategoryITBIS}))
}

// ──────────────────────────────────────────────────────────────────────────────
// Agregador
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregate_BorradorEnCero(t *testing.T) {
	inv := postedInvoice(&entity.TaxLine{Tax: tax(entity.TaxCategoryITBIS, "18"), Balance: dec("-180")})
	inv.State = entity.InvoiceStateDraft

	got := dgii.Aggregate(inv, dgii.Classifier{})
	assert.True(t, got.ITBIS.IsZero())
	assert.False(t, got.HasWithholding())
}

func TestAggregate_SumaAbsolutaPorCategoria(t *testing.T) {
	inv := postedInvoice(
		&entity.TaxLine{Tax: tax(entity.TaxCategoryITBIS, "18"), Balance: dec("-180")},
		&entity.TaxLine{Tax: tax(entity.TaxCategoryITBIS, "16"), Balance: dec("-16")},
		&entity.TaxLine{Tax: tax(entity.TaxCategoryISC, "10"), Balance: dec("-50")},
		&entity.TaxLine{Tax: tax(entity.TaxCategoryTip, "10"), Balance: dec("-100")},
		&entity.TaxLine{Tax: tax(entity.TaxCategoryOther, "2"), Balance: dec("-20")},
	)

	got := dgii.Aggregate(inv, dgii.Classifier{})
	assert.True(t, got.ITBIS.Equal(dec("196")), "ITBIS = |-180 - 16|")
	assert.True(t, got.ISC.Equal(dec("50")))
	assert.True(t, got.Tip.Equal(dec("100")))
	assert.True(t, got.Other.Equal(dec("20")))
}

func TestAggregate_RetencionesSoloSiPagada(t *testing.T) {
	lines := []*entity.TaxLine{
		{Tax: tax(entity.TaxCategoryRITBIS, "-18"), Balance: dec("54")},
		{Tax: tax(entity.TaxCategoryISR, "-10"), Balance: dec("100")},
	}
	inv := postedInvoice(lines...)

	got := dgii.Aggregate(inv, dgii.Classifier{})
	assert.True(t, got.ITBISWithheld.IsZero(), "sin pago no se reporta retención")
	assert.True(t, got.ISRWithheld.IsZero())

	for _, state := range []string{entity.PaymentStatePaid, entity.PaymentStateInPayment, entity.PaymentStatePartial} {
		inv.PaymentState = state
		got = dgii.Aggregate(inv, dgii.Classifier{})
		assert.True(t, got.ITBISWithheld.Equal(dec("54")), state)
		assert.True(t, got.ISRWithheld.Equal(dec("100")), state)
	}
}

func TestValidateSingleWithholding(t *testing.T) {
	ok := postedInvoice(
		&entity.TaxLine{Tax: tax(entity.TaxCategoryRITBIS, "-18"), Balance: dec("54")},
		&entity.TaxLine{Tax: tax(entity.TaxCategoryISR, "-10"), Balance: dec("100")},
	)
	require.NoError(t, dgii.ValidateSingleWithholding(ok, dgii.Classifier{}))

	dup := postedInvoice(
		&entity.TaxLine{Tax: tax(entity.TaxCategoryISR, "-10"), Balance: dec("100")},
		&entity.TaxLine{Tax: tax(entity.TaxCategoryISR, "-2"), Balance: dec("20")},
	)
	assert.ErrorIs(t, dgii.ValidateSingleWithholding(dup, dgii.Classifier{}), domain.ErrMultipleWithholding)
}

func TestGoodsAndServices_ConversionYSigno(t *testing.T) {
	inv := postedInvoice()
	inv.MoveType = entity.MoveOutRefund
	inv.CurrencyRate = dec("58.50")
	inv.Lines = []*entity.InvoiceLine{
		{ProductID: "p1", ProductType: entity.ProductTypeStorable, Subtotal: dec("10")},
		{Subtotal: dec("2")}, // sin producto: servicio
	}

	goods, services := dgii.GoodsAndServices(inv)
	assert.True(t, goods.Equal(dec("-585")), "10 * 58.50 con signo de nota de crédito")
	assert.True(t, services.Equal(dec("-117")))
}

func TestISRWithholdingType_FacturaProveedor(t *testing.T) {
	isr := tax(entity.TaxCategoryISR, "-10")
	isr.ISRReason = entity.ISRReasonServices
	inv := postedInvoice(&entity.TaxLine{Tax: isr, Balance: dec("100")})

	assert.Equal(t, "", dgii.ISRWithholdingType(inv, dgii.Classifier{}), "solo aplica a compras")
	inv.MoveType = entity.MoveInInvoice
	assert.Equal(t, "02", dgii.ISRWithholdingType(inv, dgii.Classifier{}))
}

func TestPaymentDate_AcotadaPorFechaFactura(t *testing.T) {
	inv := postedInvoice()
	inv.PaymentState = entity.PaymentStatePaid
	inv.Payments = []*entity.PaymentEntry{
		{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), PaymentID: "p1"},
	}
	got := dgii.PaymentDate(inv)
	require.NotNil(t, got)
	assert.Equal(t, inv.InvoiceDate, *got, "un pago anterior a la factura se reporta en la fecha de la factura")

	inv.PaymentState = entity.PaymentStateNotPaid
	assert.Nil(t, dgii.PaymentDate(inv))
}

// ──────────────────────────────────────────────────────────────────────────────
// Forma de pago
// ──────────────────────────────────────────────────────────────────────────────

func TestPaymentForm_PorDefectoCredito(t *testing.T) {
	inv := postedInvoice()
	inv.Payments = []*entity.PaymentEntry{{PaymentID: "p1", JournalType: "cash", PaymentForm: "cash"}}
	assert.Equal(t, "04", dgii.PaymentForm(inv), "sin pagar siempre es compra a crédito")
}

func TestPaymentForm_Clasificacion(t *testing.T) {
	inv := postedInvoice()
	inv.PaymentState = entity.PaymentStatePaid

	inv.Payments = []*entity.PaymentEntry{{PaymentID: "p1", JournalType: "bank", PaymentForm: "card"}}
	assert.Equal(t, "03", dgii.PaymentForm(inv))

	inv.Payments = []*entity.PaymentEntry{{PaymentID: "p1", JournalType: "cash"}}
	assert.Equal(t, "01", dgii.PaymentForm(inv), "sin forma configurada se usa el tipo de diario")

	inv.Payments = []*entity.PaymentEntry{{MoveID: "m1"}}
	assert.Equal(t, "05", dgii.PaymentForm(inv))

	inv.Payments = []*entity.PaymentEntry{{}}
	assert.Equal(t, "06", dgii.PaymentForm(inv))

	inv.Payments = []*entity.PaymentEntry{
		{PaymentID: "p1", JournalType: "cash", PaymentForm: "cash"},
		{PaymentID: "p2", JournalType: "bank", PaymentForm: "bank"},
	}
	assert.Equal(t, "07", dgii.PaymentForm(inv))
}

// ──────────────────────────────────────────────────────────────────────────────
// Tipo fiscal sugerido para contactos
// ──────────────────────────────────────────────────────────────────────────────

func TestSuggestSaleFiscalType(t *testing.T) {
	assert.Equal(t, "B16", dgii.SuggestSaleFiscalType(&entity.Partner{CountryCode: "US"}, ""))
	assert.Equal(t, "B14", dgii.SuggestSaleFiscalType(&entity.Partner{ParentID: "x", VAT: "131098193"}, "B14"))
	assert.Equal(t, "B15", dgii.SuggestSaleFiscalType(&entity.Partner{Name: "Ministerio de Hacienda", VAT: "131098193"}, ""))
	assert.Equal(t, "B14", dgii.SuggestSaleFiscalType(&entity.Partner{Name: "IGLESIA SAN JUAN", VAT: "131098193"}, ""))
	assert.Equal(t, "B01", dgii.SuggestSaleFiscalType(&entity.Partner{Name: "ACME SRL", VAT: "131098193"}, ""))
	assert.Equal(t, "B02", dgii.SuggestSaleFiscalType(&entity.Partner{Name: "Juan Pérez", VAT: "00113918205"}, ""))
	assert.True(t, dgii.FiscalInfoRequired("B01"))
	assert.False(t, dgii.FiscalInfoRequired("B02"))
}

func TestValidatePartnerVAT(t *testing.T) {
	assert.NoError(t, dgii.ValidatePartnerVAT(&entity.Partner{VAT: "131098193", CountryCode: "DO"}))
	assert.ErrorIs(t, dgii.ValidatePartnerVAT(&entity.Partner{VAT: "131-09819-3", CountryCode: "DO"}), domain.ErrInvalidTaxpayerID)
	assert.ErrorIs(t, dgii.ValidatePartnerVAT(&entity.Partner{VAT: "131098194", CountryCode: "DO"}), domain.ErrInvalidTaxpayerID)
	assert.NoError(t, dgii.ValidatePartnerVAT(&entity.Partner{VAT: "EIN-123", CountryCode: "US"}))
}

// ──────────────────────────────────────────────────────────────────────────────
// Validaciones de posteo
// ──────────────────────────────────────────────────────────────────────────────

func postingFixture() dgii.PostingCheck {
	inv := postedInvoice()
	inv.State = entity.InvoiceStateDraft
	inv.AmountUntaxed = dec("1000")
	return dgii.PostingCheck{
		Invoice:    inv,
		FiscalType: &entity.FiscalType{Name: "Crédito Fiscal", Prefix: "E31", AssignedSequence: true, RequiresDocument: true},
		Partner:    &entity.Partner{ID: "p1", Name: "ACME SRL", VAT: "131098193", CountryCode: "DO"},
		Sequence:   &entity.FiscalSequence{ID: "s1"},
	}
}

func TestValidatePosting_Valida(t *testing.T) {
	require.NoError(t, dgii.ValidatePosting(postingFixture(), dgii.Classifier{}))
}

func TestValidatePosting_Errores(t *testing.T) {
	c := dgii.Classifier{}

	pc := postingFixture()
	pc.Invoice.AmountTotal = decimal.Zero
	assert.ErrorIs(t, dgii.ValidatePosting(pc, c), domain.ErrZeroAmountInvoice)

	pc = postingFixture()
	pc.Sequence = nil
	assert.ErrorIs(t, dgii.ValidatePosting(pc, c), domain.ErrNoFiscalSequence)

	pc = postingFixture()
	pc.Partner.VAT = ""
	assert.ErrorIs(t, dgii.ValidatePosting(pc, c), domain.ErrMissingTaxpayerID)

	pc = postingFixture()
	pc.FiscalType = &entity.FiscalType{Prefix: "B02", AssignedSequence: true}
	pc.Partner.VAT = ""
	pc.Invoice.AmountUntaxed = dec("250000")
	assert.ErrorIs(t, dgii.ValidatePosting(pc, c), domain.ErrMissingTaxpayerID, "desde 250,000 se exige RNC")

	pc = postingFixture()
	pc.FiscalType = &entity.FiscalType{Prefix: "B11", AssignedSequence: false}
	pc.Invoice.Ref = "B11-123"
	assert.ErrorIs(t, dgii.ValidatePosting(pc, c), domain.ErrInvalidNCF)
}

func TestValidatePosting_NotaDeCredito(t *testing.T) {
	c := dgii.Classifier{}
	pc := postingFixture()
	pc.Invoice.MoveType = entity.MoveOutRefund
	pc.Invoice.OriginRef = "E310000000001"

	assert.ErrorIs(t, dgii.ValidatePosting(pc, c), domain.ErrOriginNotFound)

	pc.Origin = &entity.Invoice{InvoiceDate: pc.Invoice.InvoiceDate.AddDate(0, 0, -31)}
	pc.Invoice.TaxLines = []*entity.TaxLine{{Tax: tax(entity.TaxCategoryITBIS, "18"), Balance: dec("18")}}
	assert.ErrorIs(t, dgii.ValidatePosting(pc, c), domain.ErrCreditNoteITBISAfter30Days)

	pc.Origin.InvoiceDate = pc.Invoice.InvoiceDate.AddDate(0, 0, -30)
	assert.NoError(t, dgii.ValidatePosting(pc, c), "30 días exactos siguen dentro del plazo")
}

func TestValidatePosting_NotaDeDebitoExigeOrigen(t *testing.T) {
	c := dgii.Classifier{}
	pc := postingFixture()
	pc.FiscalType.Prefix = "E33"
	pc.Invoice.IsDebitNote = true
	pc.Invoice.OriginRef = "E310000009999"

	assert.ErrorIs(t, dgii.ValidatePosting(pc, c), domain.ErrOriginNotFound)

	pc.Origin = &entity.Invoice{InvoiceDate: pc.Invoice.InvoiceDate.AddDate(0, 0, -90)}
	pc.Invoice.TaxLines = []*entity.TaxLine{{Tax: tax(entity.TaxCategoryITBIS, "18"), Balance: dec("18")}}
	assert.NoError(t, dgii.ValidatePosting(pc, c), "el plazo de 30 días solo aplica a notas de crédito")

	pc.Invoice.OriginRef = "E31-9999"
	assert.ErrorIs(t, dgii.ValidatePosting(pc, c), domain.ErrInvalidNCF)
}

func TestValidatePosting_RNCInvalido(t *testing.T) {
	pc := postingFixture()
	pc.Partner.VAT = "13109819X"
	assert.ErrorIs(t, dgii.ValidatePosting(pc, dgii.Classifier{}), domain.ErrInvalidTaxpayerID)

	pc.Partner.VAT = "131098194"
	assert.ErrorIs(t, dgii.ValidatePosting(pc, dgii.Classifier{}), domain.ErrInvalidTaxpayerID, "dígito verificador")

	pc = postingFixture()
	pc.FiscalType = &entity.FiscalType{Prefix: "B02", AssignedSequence: true}
	pc.Partner.VAT = "13109819X"
	assert.NoError(t, dgii.ValidatePosting(pc, dgii.Classifier{}), "consumo no exige datos fiscales")
}

func TestValidatePosting_Exportacion(t *testing.T) {
	pc := postingFixture()
	pc.Partner.CountryCode = "US"
	pc.Invoice.Lines = []*entity.InvoiceLine{{ProductID: "p", ProductType: entity.ProductTypeStorable}}
	assert.ErrorIs(t, dgii.ValidatePosting(pc, dgii.Classifier{}), domain.ErrExportFiscalType)

	pc.FiscalType.Prefix = "E46"
	assert.NoError(t, dgii.ValidatePosting(pc, dgii.Classifier{}))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 30, dgii.DaysBetween(a, b))
	assert.False(t, dgii.AfterCreditNoteWindow(a, b))
	assert.True(t, dgii.AfterCreditNoteWindow(a, b.AddDate(0, 0, 1)))
}

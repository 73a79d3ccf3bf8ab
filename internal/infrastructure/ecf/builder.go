package ecf

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ecf-dgii/internal/domain"
	domaindgii "github.com/jhoicas/ecf-dgii/internal/domain/dgii"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/internal/domain/repository"
	"github.com/jhoicas/ecf-dgii/pkg/dgii"
)

var (
	itbis1Rate = decimal.RequireFromString("0.18")
	itbis2Rate = decimal.RequireFromString("0.16")
	rate18     = decimal.NewFromInt(18)
	rate16     = decimal.NewFromInt(16)
	consumoCap = decimal.NewFromInt(dgii.ConsumoThreshold)
)

// Tramos de ITBIS del e-CF.
const (
	bucketNone = iota
	bucketI1   // 18 % o retención de ITBIS distinta de cero
	bucketI2   // 16 %
	bucketI3   // 0 %
)

// ── Puertos ───────────────────────────────────────────────────────────────────

// OriginFinder localiza el comprobante afectado por una nota de crédito o débito.
type OriginFinder interface {
	FindPostedByRef(ctx context.Context, q repository.OriginQuery) (*entity.Invoice, error)
}

// RateProvider resuelve la tasa de cambio de la moneda de la factura a la de la empresa.
type RateProvider interface {
	Rate(ctx context.Context, companyID, from, to string, date time.Time) (decimal.Decimal, error)
}

// BuildInput datos necesarios para construir el e-CF de una factura.
type BuildInput struct {
	Invoice    *entity.Invoice
	Company    *entity.Company
	Partner    *entity.Partner
	FiscalType *entity.FiscalType
	Sequence   *entity.FiscalSequence // opcional, para FechaVencimientoSecuencia
}

// Payload documento e-CF construido y su serialización.
type Payload struct {
	Document Object
	JSON     []byte
	Totals   domaindgii.TaxTotals
}

// Builder construye el JSON del e-CF a partir de una factura validada.
type Builder struct {
	origins    OriginFinder
	rates      RateProvider
	classifier domaindgii.Classifier
}

// NewBuilder construye el generador de e-CF.
func NewBuilder(origins OriginFinder, rates RateProvider, classifier domaindgii.Classifier) *Builder {
	return &Builder{origins: origins, rates: rates, classifier: classifier}
}

// ── Cálculo intermedio ────────────────────────────────────────────────────────

// reference datos de InformacionReferencia para notas.
type reference struct {
	originDate  *time.Time
	after30Days bool
}

// lineCalc clasificación y montos de una línea.
type lineCalc struct {
	line    *entity.InvoiceLine
	bucket  int
	exempt  bool
	isc     decimal.Decimal // ISC de la línea en moneda de la factura
	ritbis  decimal.Decimal // ITBIS retenido de la línea (valor absoluto, moneda de la factura)
	isr     decimal.Decimal // ISR retenido de la línea (valor absoluto, moneda de la factura)
	include bool            // el primer impuesto está incluido en el precio
}

// amounts totales en moneda de la empresa.
type amounts struct {
	base     [4]decimal.Decimal // indexado por bucket
	isc      [4]decimal.Decimal
	exempt   decimal.Decimal
	t1, t2   decimal.Decimal
	itbis    decimal.Decimal
	gravado  decimal.Decimal
	total    decimal.Decimal
	rate     decimal.Decimal // cero si la factura está en moneda de la empresa
	withheld domaindgii.TaxTotals
}

func (a *amounts) has(bucket int) bool { return a.base[bucket].IsPositive() }

func (a *amounts) toCompany(d decimal.Decimal) decimal.Decimal {
	if a.rate.IsZero() {
		return d
	}
	return dgii.Round2(d.Mul(a.rate))
}

func (a *amounts) toOther(d decimal.Decimal) decimal.Decimal {
	return dgii.Round2(d.Div(a.rate))
}

// ── Build ─────────────────────────────────────────────────────────────────────

// Build valida precondiciones, calcula montos y arma el documento podado.
// Si la moneda difiere de la de la empresa, guarda la tasa (2 decimales) en la factura.
func (b *Builder) Build(ctx context.Context, in BuildInput) (*Payload, error) {
	inv, ft := in.Invoice, in.FiscalType
	if ft == nil || !ft.IsElectronic {
		return nil, domain.ErrNotElectronicDocument
	}
	switch inv.MoveType {
	case entity.MoveOutInvoice, entity.MoveOutRefund, entity.MoveInInvoice:
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMoveType, inv.MoveType)
	}

	var ref *reference
	if inv.IsCreditNote() || inv.IsDebitNoteDocument() {
		r, err := b.resolveReference(ctx, in)
		if err != nil {
			return nil, err
		}
		ref = r
	}

	a := &amounts{}
	if in.Company.CurrencyCode != "" && inv.CurrencyCode != "" && inv.CurrencyCode != in.Company.CurrencyCode {
		rate, err := b.rates.Rate(ctx, inv.CompanyID, inv.CurrencyCode, in.Company.CurrencyCode, inv.InvoiceDate)
		if err != nil {
			return nil, fmt.Errorf("ecf: tasa de cambio %s->%s: %w", inv.CurrencyCode, in.Company.CurrencyCode, err)
		}
		a.rate = dgii.Round2(rate)
		inv.CurrencyRate = a.rate
	}

	lines := b.classifyLines(inv)
	b.computeTotals(inv, lines, a)

	doc := Object{
		{"Encabezado", b.header(in, a, ref)},
		{"Emisor", emitter(in)},
		{"Comprador", buyer(in)},
		{"Totales", totalsBlock(in, a)},
		{"Items", b.items(in, lines, a)},
	}
	if !a.rate.IsZero() {
		if om := otherCurrency(inv, a); om != nil {
			doc = append(doc, Member{"OtraMoneda", om})
		}
	}
	if ref != nil {
		doc = append(doc, Member{"InformacionReferencia", referenceBlock(inv, ref)})
	}

	doc = Prune(doc)
	raw, err := Serialize(doc)
	if err != nil {
		return nil, fmt.Errorf("ecf: serializar documento: %w", err)
	}
	return &Payload{Document: doc, JSON: raw, Totals: a.withheld}, nil
}

// resolveReference localiza el comprobante original entre los validados de la misma
// empresa emitidos al contacto, su padre o sus hijos.
func (b *Builder) resolveReference(ctx context.Context, in BuildInput) (*reference, error) {
	inv := in.Invoice
	var partnerIDs []string
	if in.Partner != nil {
		partnerIDs = in.Partner.FamilyIDs()
	}
	if inv.OriginRef == "" {
		return nil, fmt.Errorf("%w: la nota no indica el NCF modificado", domain.ErrOriginNotFound)
	}
	origin, err := b.origins.FindPostedByRef(ctx, repository.OriginQuery{
		CompanyID:  inv.CompanyID,
		Ref:        inv.OriginRef,
		PartnerIDs: partnerIDs,
		MoveTypes:  []entity.MoveType{domaindgii.OriginMoveType(inv)},
	})
	if err != nil {
		return nil, fmt.Errorf("ecf: buscar NCF modificado: %w", err)
	}
	if origin == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrOriginNotFound, inv.OriginRef)
	}
	ref := &reference{}
	if !origin.InvoiceDate.IsZero() {
		d := origin.InvoiceDate
		ref.originDate = &d
		if !inv.InvoiceDate.IsZero() {
			ref.after30Days = domaindgii.AfterCreditNoteWindow(origin.InvoiceDate, inv.InvoiceDate)
		}
	}
	return ref, nil
}

func (b *Builder) classifyLines(inv *entity.Invoice) []*lineCalc {
	out := make([]*lineCalc, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lc := &lineCalc{line: l}
		for _, t := range l.Taxes {
			if b.classifier.IsExempt(t) {
				lc.exempt = true
			}
			amount := dgii.Round2(t.AmountOn(l.Subtotal))
			if b.classifier.IsISC(t) {
				lc.isc = lc.isc.Add(amount)
			}
			switch b.classifier.Category(t) {
			case entity.TaxCategoryRITBIS:
				lc.ritbis = lc.ritbis.Add(amount)
			case entity.TaxCategoryISR:
				lc.isr = lc.isr.Add(amount)
			}
		}
		lc.ritbis = lc.ritbis.Abs()
		lc.isr = lc.isr.Abs()
		if len(l.Taxes) > 0 {
			lc.include = l.Taxes[0].PriceInclude
		}
		lc.bucket = b.bucketOf(l)
		out = append(out, lc)
	}
	return out
}

// bucketOf aplica la precedencia I1 -> I2 -> I3 sobre los impuestos de la línea.
func (b *Builder) bucketOf(l *entity.InvoiceLine) int {
	match := func(pred func(cat entity.TaxCategory, rate decimal.Decimal) bool) bool {
		for _, t := range l.Taxes {
			if pred(b.classifier.Category(t), t.Rate) {
				return true
			}
		}
		return false
	}
	switch {
	case match(func(cat entity.TaxCategory, rate decimal.Decimal) bool {
		return (cat == entity.TaxCategoryITBIS && rate.Equal(rate18)) ||
			(cat == entity.TaxCategoryRITBIS && !rate.IsZero())
	}):
		return bucketI1
	case match(func(cat entity.TaxCategory, rate decimal.Decimal) bool {
		return cat == entity.TaxCategoryITBIS && rate.Equal(rate16)
	}):
		return bucketI2
	case match(func(cat entity.TaxCategory, rate decimal.Decimal) bool {
		return (cat == entity.TaxCategoryITBIS || cat == entity.TaxCategoryRITBIS) && rate.IsZero()
	}):
		return bucketI3
	}
	return bucketNone
}

func (b *Builder) computeTotals(inv *entity.Invoice, lines []*lineCalc, a *amounts) {
	for _, lc := range lines {
		subtotal := a.toCompany(lc.line.Subtotal)
		if lc.exempt {
			a.exempt = a.exempt.Add(lc.line.Subtotal)
			continue
		}
		if lc.bucket == bucketNone {
			continue
		}
		a.base[lc.bucket] = a.base[lc.bucket].Add(subtotal)
		if lc.bucket == bucketI1 || lc.bucket == bucketI2 {
			a.isc[lc.bucket] = a.isc[lc.bucket].Add(a.toCompany(lc.isc))
		}
	}
	a.exempt = a.toCompany(a.exempt)

	if base := a.base[bucketI1].Add(a.isc[bucketI1]); base.IsPositive() {
		a.t1 = dgii.Round2(base.Mul(itbis1Rate))
	}
	if base := a.base[bucketI2].Add(a.isc[bucketI2]); base.IsPositive() {
		a.t2 = dgii.Round2(base.Mul(itbis2Rate))
	}
	a.itbis = dgii.Round2(a.t1.Add(a.t2))
	a.gravado = a.base[bucketI1].Add(a.base[bucketI2]).Add(a.base[bucketI3])
	a.total = a.gravado.Add(a.itbis).Add(a.exempt).Round(dgii.TotalDecimals)
	a.withheld = domaindgii.Aggregate(inv, b.classifier)
}

// ── Bloques del documento ─────────────────────────────────────────────────────

func (b *Builder) header(in BuildInput, a *amounts, ref *reference) Object {
	inv := in.Invoice
	tipo := in.FiscalType.ECFCode()
	smallConsumo := tipo == dgii.ECFTypeConsumo && a.total.LessThan(consumoCap)

	var tipoPago string
	switch {
	case inv.AmountResidual.IsZero():
		tipoPago = dgii.PaymentTypeCash
	case smallConsumo:
		tipoPago = dgii.PaymentTypeFree
	case inv.AmountResidual.IsPositive():
		tipoPago = dgii.PaymentTypeCredit
	default:
		tipoPago = dgii.PaymentTypeFree
	}

	var fechaLimite string
	if inv.DueDate != nil && inv.AmountResidual.IsPositive() && !smallConsumo {
		fechaLimite = dgii.Date(*inv.DueDate)
	}

	expiration := inv.NCFExpirationDate
	if expiration == nil && in.Sequence != nil && !in.Sequence.ExpirationDate.IsZero() {
		d := in.Sequence.ExpirationDate
		expiration = &d
	}

	var indicadorNC any
	if inv.IsCreditNote() {
		indicadorNC = "0"
		if ref != nil && ref.after30Days {
			indicadorNC = "1"
		}
	}

	incomeType := inv.IncomeType
	if incomeType == "" {
		incomeType = dgii.IncomeOperations
	}

	montoPago := "0.00"
	if inv.MoveType == entity.MoveOutInvoice {
		montoPago = dgii.Amount(a.toCompany(inv.AmountTotal))
	}

	return Object{
		{"TipoeCF", tipo},
		{"eNCF", inv.Ref},
		{"FechaVencimientoSecuencia", dgii.DatePtr(expiration)},
		{"IndicadorNotaCredito", indicadorNC},
		{"IndicadorMontoGravado", "0"},
		{"TipoIngresos", incomeType},
		{"TipoPago", tipoPago},
		{"FechaLimitePago", fechaLimite},
		{"NumeroFacturaInterna", inv.Name},
		{"NumeroPedidoInterno", inv.Name},
		{"FormasDePago", []Object{{
			{"FormaPago", b.ecfPaymentForm(inv)},
			{"MontoPago", montoPago},
		}}},
	}
}

// ecfPaymentForm: notas de crédito siempre "7"; el resto según cómo se saldó la factura.
func (b *Builder) ecfPaymentForm(inv *entity.Invoice) string {
	if inv.MoveType.IsRefund() {
		return dgii.ECFPaymentCreditNote
	}
	if code, ok := dgii.ECFPaymentForms[domaindgii.PaymentForm(inv)]; ok {
		return code
	}
	return dgii.ECFPaymentCredit
}

func emitter(in BuildInput) Object {
	c := in.Company
	var fecha string
	if !in.Invoice.InvoiceDate.IsZero() {
		fecha = dgii.Date(in.Invoice.InvoiceDate)
	}
	return Object{
		{"RNCEmisor", c.RNC},
		{"RazonSocialEmisor", c.Name},
		{"NombreComercial", c.Name},
		{"DireccionEmisor", c.Address()},
		{"FechaEmision", fecha},
	}
}

// buyer: RNC o Cédula si la identificación tiene 9 u 11 dígitos; si no, identificador extranjero.
func buyer(in BuildInput) Object {
	p := in.Partner
	if p == nil {
		return nil
	}
	var rnc, foreign string
	if dgii.IsLocalTaxpayerID(p.VAT) {
		rnc = string(dgii.ExtractDigits(p.VAT))
	} else {
		foreign = p.VAT
	}
	return Object{
		{"RNCComprador", rnc},
		{"IdentificadorExtranjero", foreign},
		{"RazonSocialComprador", p.Name},
		{"ContactoComprador", p.Contact()},
		{"CorreoComprador", p.Email},
		{"DireccionComprador", p.Address()},
		{"codigoProvinciaComprador", p.ProvinceCode},
		{"fechaEntrega", dgii.DatePtr(in.Invoice.DueDate)},
	}
}

// agentIndicator "1" si el comprobante es de compras o hay retenciones reportables.
func agentIndicator(in BuildInput, a *amounts) string {
	if in.FiscalType.ECFCode() == dgii.ECFTypeCompras || a.withheld.HasWithholding() {
		return "1"
	}
	return ""
}

func totalsBlock(in BuildInput, a *amounts) Object {
	hasI1, hasI2, hasI3 := a.has(bucketI1), a.has(bucketI2), a.has(bucketI3)
	opt := func(cond bool, v string) any {
		if cond {
			return v
		}
		return nil
	}

	var retenido any
	switch {
	case a.withheld.ITBISWithheld.IsPositive():
		retenido = dgii.Amount(a.withheld.ITBISWithheld)
	case agentIndicator(in, a) != "":
		retenido = "0.00"
	}

	return Object{
		{"MontoGravadoTotal", opt(hasI1 || hasI2 || hasI3, dgii.Amount(a.gravado))},
		{"MontoGravadoI1", opt(hasI1, dgii.Amount(a.base[bucketI1]))},
		{"MontoGravadoI2", opt(hasI2, dgii.Amount(a.base[bucketI2]))},
		{"MontoGravadoI3", opt(hasI3, dgii.Amount(a.base[bucketI3]))},
		{"MontoExento", opt(a.exempt.IsPositive(), dgii.Amount(a.exempt))},
		{"ITBIS1", opt(hasI1, dgii.ITBISRate1)},
		{"ITBIS2", opt(hasI2, dgii.ITBISRate2)},
		{"ITBIS3", opt(hasI3, dgii.ITBISRate3)},
		{"TotalITBIS", opt(a.t1.IsPositive() || a.t2.IsPositive() || hasI3, dgii.Amount(a.itbis))},
		{"TotalITBIS1", opt(hasI1, dgii.Amount(a.t1))},
		{"TotalITBIS2", opt(hasI2, dgii.Amount(a.t2))},
		{"TotalITBIS3", opt(hasI3, "0.00")},
		{"TotalITBISRetenido", retenido},
		{"TotalISRRetencion", opt(a.withheld.ISRWithheld.IsPositive(), dgii.Amount(a.withheld.ISRWithheld))},
		{"MontoTotal", dgii.Total(a.total)},
	}
}

// otherCurrency bloque OtraMoneda; nil si todos los montos son cero.
func otherCurrency(inv *entity.Invoice, a *amounts) Object {
	hasI3 := a.has(bucketI3)
	taxes := a.t1.Add(a.t2)
	opt := func(cond bool, d decimal.Decimal) any {
		if cond {
			return dgii.Amount(a.toOther(d))
		}
		return nil
	}
	var totalITBIS any
	switch {
	case !taxes.IsZero():
		totalITBIS = dgii.Amount(a.toOther(taxes))
	case hasI3:
		totalITBIS = "0.00"
	}
	var itbis3 any
	if hasI3 {
		itbis3 = "0.00"
	}
	grandTotal := a.gravado.Add(a.exempt).Add(taxes)

	om := Prune(Object{
		{"TipoMoneda", inv.CurrencyCode},
		{"TipoCambio", dgii.Amount(a.rate)},
		{"MontoGravadoTotalOtraMoneda", opt(a.gravado.IsPositive(), a.gravado)},
		{"MontoGravado1OtraMoneda", opt(a.has(bucketI1), a.base[bucketI1])},
		{"MontoGravado2OtraMoneda", opt(a.has(bucketI2), a.base[bucketI2])},
		{"MontoGravado3OtraMoneda", opt(hasI3, a.base[bucketI3])},
		{"MontoExentoOtraMoneda", opt(a.exempt.IsPositive(), a.exempt)},
		{"TotalITBIS1OtraMoneda", opt(a.t1.IsPositive(), a.t1)},
		{"TotalITBIS2OtraMoneda", opt(a.t2.IsPositive(), a.t2)},
		{"TotalITBIS3OtraMoneda", itbis3},
		{"TotalITBISOtraMoneda", totalITBIS},
		{"MontoTotalOtraMoneda", opt(grandTotal.IsPositive(), grandTotal)},
	})
	for _, m := range om {
		if s, _ := m.Value.(string); !isZeroString(s) {
			return om
		}
	}
	return nil
}

func isZeroString(s string) bool {
	return s == "" || s == "0" || s == "0.0" || s == "0.00"
}

func (b *Builder) items(in BuildInput, lines []*lineCalc, a *amounts) []Object {
	inv := in.Invoice
	agent := agentIndicator(in, a)
	zeroAmounts := inv.MoveType == entity.MoveOutInvoice && inv.ModificationCode == dgii.ModificationTextFix
	foreign := !a.rate.IsZero()

	var out []Object
	n := 1
	for _, lc := range lines {
		l := lc.line
		if l.Subtotal.IsZero() || len(l.Taxes) == 0 {
			continue
		}

		baseUnit := l.PriceUnit
		if foreign && hasPriceIncluded(l) {
			qty := l.Quantity
			if qty.IsZero() {
				qty = decimal.NewFromInt(1)
			}
			baseUnit = l.Subtotal.Div(qty)
		}
		unitPrice := dgii.Amount(l.PriceUnit)
		montoItem := dgii.Amount(l.Subtotal)
		if foreign {
			unitPrice = dgii.Amount(a.toCompany(baseUnit))
			montoItem = dgii.Amount(a.toCompany(l.Subtotal))
		}
		if zeroAmounts {
			montoItem = "0.00"
		}

		indicador := "3"
		if e := l.Taxes[0].ETax; e != 0 {
			indicador = strconv.Itoa(e)
		}

		bienServicio := "1"
		if l.IsService() {
			bienServicio = "2"
		}

		var uom string
		if l.UoMCode != 0 {
			uom = strconv.Itoa(l.UoMCode)
		}

		item := Object{
			{"NumeroLinea", strconv.Itoa(n)},
			{"IndicadorFacturacion", indicador},
			{"IndicadorAgenteRetencionoPercepcion", agent},
			{"MontoITBISRetenido", withheldAmount(lc.ritbis, a, lc.bucket == bucketI3)},
			{"MontoISRRetenido", withheldAmount(lc.isr, a, false)},
			{"NombreItem", l.ItemName()},
			{"IndicadorBienoServicio", bienServicio},
			{"CantidadItem", dgii.Quantity(l.Quantity)},
			{"UnidadMedida", uom},
			{"PrecioUnitarioItem", unitPrice},
			{"MontoItem", montoItem},
		}
		if foreign {
			other := l.Subtotal
			if lc.include {
				other = l.PriceUnit.Mul(l.Quantity)
			}
			item = append(item, Member{"OtraMonedaDetalle", Object{
				{"PrecioOtraMoneda", dgii.Amount(baseUnit)},
				{"MontoItemOtraMoneda", dgii.Amount(other)},
			}})
		}
		out = append(out, item)
		n++
	}
	return out
}

// withheldAmount monto retenido de la línea en moneda de la empresa; "0.00" forzado en líneas al 0 %.
func withheldAmount(amount decimal.Decimal, a *amounts, forceZero bool) any {
	amt := dgii.Round2(a.toCompany(amount))
	if amt.IsZero() {
		if forceZero {
			return "0.00"
		}
		return nil
	}
	return dgii.Amount(amt)
}

func hasPriceIncluded(l *entity.InvoiceLine) bool {
	for _, t := range l.Taxes {
		if t.PriceInclude {
			return true
		}
	}
	return false
}

func referenceBlock(inv *entity.Invoice, ref *reference) Object {
	code := inv.ModificationCode
	if code == "" {
		code = dgii.ModificationCancel
	}
	reason := inv.ModificationReason
	if reason == "" {
		reason = dgii.DefaultModificationReason
	}
	return Object{
		{"NCFModificado", inv.OriginRef},
		{"FechaNCFModificado", dgii.DatePtr(ref.originDate)},
		{"CodigoModificacion", code},
		{"RazonModificacion", reason},
	}
}

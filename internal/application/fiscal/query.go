package fiscal

import (
	"context"

	"github.com/jhoicas/ecf-dgii/internal/application/dto"
	"github.com/jhoicas/ecf-dgii/internal/domain"
	domaindgii "github.com/jhoicas/ecf-dgii/internal/domain/dgii"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/internal/domain/repository"
)

// QueryUseCase lecturas fiscales: factura con totales por categoría y estado de secuencias.
type QueryUseCase struct {
	invoiceRepo  repository.InvoiceRepository
	sequenceRepo repository.FiscalSequenceRepository
	classifier   domaindgii.Classifier
}

// NewQueryUseCase construye el caso de uso de consulta.
func NewQueryUseCase(invoiceRepo repository.InvoiceRepository, sequenceRepo repository.FiscalSequenceRepository, classifier domaindgii.Classifier) *QueryUseCase {
	return &QueryUseCase{invoiceRepo: invoiceRepo, sequenceRepo: sequenceRepo, classifier: classifier}
}

// GetInvoice devuelve la factura con impuestos agregados y forma de pago.
func (uc *QueryUseCase) GetInvoice(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	totals := domaindgii.Aggregate(inv, uc.classifier)
	out := ToInvoiceResponse(inv, totals)
	out.Report = uc.report(inv)
	return &out, nil
}

// SequenceStatus disponibilidad de la secuencia; solo las de la empresa del usuario.
func (uc *QueryUseCase) SequenceStatus(ctx context.Context, companyID, id string) (*dto.FiscalSequenceStatusResponse, error) {
	seq, err := uc.sequenceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if seq == nil || seq.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return &dto.FiscalSequenceStatusResponse{
		ID:             seq.ID,
		Prefix:         seq.Prefix,
		NextNumber:     seq.NextNumber,
		SequenceEnd:    seq.SequenceEnd,
		Remaining:      seq.Remaining(),
		ExpirationDate: seq.ExpirationDate.Format("2006-01-02"),
		State:          seq.State,
		Status:         seq.Status(),
	}, nil
}

// report campos 606/607 de la factura. El ITBIS facturado va en Taxes.ITBIS.
func (uc *QueryUseCase) report(inv *entity.Invoice) dto.ReportResponse {
	goods, services := domaindgii.GoodsAndServices(inv)
	r := dto.ReportResponse{
		Goods:              goods,
		Services:           services,
		ISRWithholdingType: domaindgii.ISRWithholdingType(inv, uc.classifier),
	}
	if d := domaindgii.PaymentDate(inv); d != nil {
		r.PaymentDate = d.Format("2006-01-02")
	}
	return r
}

// ToInvoiceResponse arma la respuesta HTTP de una factura.
func ToInvoiceResponse(inv *entity.Invoice, totals domaindgii.TaxTotals) dto.InvoiceResponse {
	return dto.InvoiceResponse{
		ID:            inv.ID,
		CompanyID:     inv.CompanyID,
		PartnerID:     inv.PartnerID,
		Name:          inv.Name,
		MoveType:      string(inv.MoveType),
		State:         inv.State,
		PaymentState:  inv.PaymentState,
		NCF:           inv.Ref,
		NCFExpiration: inv.NCFExpirationDate,
		OriginNCF:     inv.OriginRef,
		InvoiceDate:   inv.InvoiceDate.Format("2006-01-02"),
		CurrencyCode:  inv.CurrencyCode,
		AmountUntaxed: inv.AmountUntaxed,
		AmountTax:     inv.AmountTax,
		AmountTotal:   inv.AmountTotal,
		PaymentForm:   domaindgii.PaymentForm(inv),
		Taxes:         ToTaxTotalsResponse(totals),
		ECF:           ToECFStatusResponse(inv),
	}
}

// ToTaxTotalsResponse copia los totales por categoría.
func ToTaxTotalsResponse(t domaindgii.TaxTotals) dto.TaxTotalsResponse {
	return dto.TaxTotalsResponse{
		ITBIS:         t.ITBIS,
		ISC:           t.ISC,
		Other:         t.Other,
		Tip:           t.Tip,
		ITBISWithheld: t.ITBISWithheld,
		ISRWithheld:   t.ISRWithheld,
	}
}

// ToECFStatusResponse estado e-CF persistido en la factura.
func ToECFStatusResponse(inv *entity.Invoice) dto.ECFStatusResponse {
	return dto.ECFStatusResponse{
		Status:       inv.ECFStatus,
		TrackID:      inv.ECFTrackID,
		Submitted:    inv.ECFSubmitted,
		SecurityCode: inv.ECFSecurityCode,
		SignedAt:     inv.ECFSignedAt,
		Error:        inv.ECFErrorMessage,
	}
}

package fiscal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ecf-dgii/internal/application/fiscal"
	"github.com/jhoicas/ecf-dgii/internal/domain"
	domaindgii "github.com/jhoicas/ecf-dgii/internal/domain/dgii"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/internal/domain/repository"
	"github.com/jhoicas/ecf-dgii/pkg/dgii"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeInvoices struct {
	byID      map[string]*entity.Invoice
	posted    []*entity.Invoice
	lastQuery repository.OriginQuery
}

func (f *fakeInvoices) GetByID(_ context.Context, companyID, id string) (*entity.Invoice, error) {
	inv, ok := f.byID[id]
	if !ok || inv.CompanyID != companyID {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoices) FindPostedByRef(_ context.Context, q repository.OriginQuery) (*entity.Invoice, error) {
	f.lastQuery = q
	for _, inv := range f.byID {
		if inv.Ref == q.Ref && inv.State == entity.InvoiceStatePosted {
			return inv, nil
		}
	}
	return nil, nil
}

func (f *fakeInvoices) Post(_ context.Context, inv *entity.Invoice) error {
	f.posted = append(f.posted, inv)
	return nil
}

func (f *fakeInvoices) SaveSubmission(context.Context, *entity.Invoice) error { return nil }

type fakePartners map[string]*entity.Partner

func (f fakePartners) GetByID(_ context.Context, _, id string) (*entity.Partner, error) {
	return f[id], nil
}

type fakeTypes map[string]*entity.FiscalType

func (f fakeTypes) GetByID(_ context.Context, id string) (*entity.FiscalType, error) {
	return f[id], nil
}

type fakeSequences struct {
	seq      *entity.FiscalSequence
	issueErr error
}

func (f *fakeSequences) GetByID(_ context.Context, id string) (*entity.FiscalSequence, error) {
	if f.seq != nil && f.seq.ID == id {
		return f.seq, nil
	}
	return nil, nil
}

func (f *fakeSequences) Allocate(_ context.Context, _, fiscalTypeID string, date time.Time) (*entity.FiscalSequence, error) {
	if f.seq == nil || f.seq.FiscalTypeID != fiscalTypeID || !f.seq.CanIssue(date) {
		return nil, nil
	}
	return f.seq, nil
}

func (f *fakeSequences) IssueNext(_ context.Context, id string) (string, error) {
	if f.issueErr != nil {
		return "", f.issueErr
	}
	n := f.seq.NextNumber
	f.seq.NextNumber++
	return dgii.FormatNCF(f.seq.Prefix, n), nil
}

type fakeTx struct {
	invoices  *fakeInvoices
	sequences *fakeSequences
}

func (f fakeTx) RunPosting(_ context.Context, fn func(repository.InvoiceRepository, repository.FiscalSequenceRepository) error) error {
	return fn(f.invoices, f.sequences)
}

// ── Fixture ───────────────────────────────────────────────────────────────────

var invoiceDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

type fixture struct {
	invoices  *fakeInvoices
	sequences *fakeSequences
	types     fakeTypes
	partners  fakePartners
	uc        *fiscal.PostInvoiceUseCase
}

func newFixture() *fixture {
	itbis := &entity.Tax{ID: "t18", Name: "ITBIS 18%", Category: entity.TaxCategoryITBIS, Rate: decimal.NewFromInt(18)}
	inv := &entity.Invoice{
		ID:            "inv-1",
		CompanyID:     "c1",
		PartnerID:     "p1",
		MoveType:      entity.MoveOutInvoice,
		State:         entity.InvoiceStateDraft,
		FiscalTypeID:  "ft-e31",
		InvoiceDate:   invoiceDate,
		AmountUntaxed: decimal.NewFromInt(1000),
		AmountTax:     decimal.NewFromInt(180),
		AmountTotal:   decimal.NewFromInt(1180),
		Lines: []*entity.InvoiceLine{{
			ID: "l1", Name: "Servicio", Quantity: decimal.NewFromInt(1),
			PriceUnit: decimal.NewFromInt(1000), Subtotal: decimal.NewFromInt(1000),
			Taxes: []*entity.Tax{itbis},
		}},
		TaxLines: []*entity.TaxLine{{Tax: itbis, Balance: decimal.NewFromInt(-180)}},
	}
	f := &fixture{
		invoices: &fakeInvoices{byID: map[string]*entity.Invoice{inv.ID: inv}},
		sequences: &fakeSequences{seq: &entity.FiscalSequence{
			ID: "seq-1", CompanyID: "c1", FiscalTypeID: "ft-e31", Prefix: "E31",
			SequenceStart: 1, SequenceEnd: 100, NextNumber: 7, WarningPercentage: 10,
			ExpirationDate: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
			State:          entity.SequenceStateActive,
		}},
		types: fakeTypes{
			"ft-e31": {ID: "ft-e31", Name: "Crédito Fiscal Electrónico", Prefix: "E31", AssignedSequence: true, RequiresDocument: true, IsElectronic: true},
			"ft-e33": {ID: "ft-e33", Name: "Nota de Débito Electrónica", Prefix: "E33", AssignedSequence: true, IsElectronic: true},
			"ft-e34": {ID: "ft-e34", Name: "Nota de Crédito Electrónica", Prefix: "E34", AssignedSequence: true, IsElectronic: true},
			"ft-b11": {ID: "ft-b11", Name: "Comprobante de Compras", Prefix: "B11"},
		},
	}
	f.partners = fakePartners{
		"p1": {ID: "p1", ParentID: "p0", Name: "ACME SRL", VAT: "131098193", CountryCode: "DO"},
	}
	f.uc = fiscal.NewPostInvoiceUseCase(
		fakeTx{invoices: f.invoices, sequences: f.sequences},
		f.invoices, f.partners, f.types, f.sequences,
		domaindgii.NewClassifier(false), zerolog.Nop(),
	)
	return f
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestPostInvoice_AsignaNCFDeLaSecuencia(t *testing.T) {
	f := newFixture()

	inv, err := f.uc.Post(context.Background(), "c1", "inv-1")
	require.NoError(t, err)

	assert.Equal(t, "E310000000007", inv.Ref)
	assert.Equal(t, entity.InvoiceStatePosted, inv.State)
	assert.Equal(t, "seq-1", inv.FiscalSequenceID)
	require.NotNil(t, inv.NCFExpirationDate)
	assert.Equal(t, 2025, inv.NCFExpirationDate.Year())
	assert.Equal(t, int64(8), f.sequences.seq.NextNumber)
	require.Len(t, f.invoices.posted, 1)
}

func TestPostInvoice_SinSecuenciaVigente(t *testing.T) {
	f := newFixture()
	f.sequences.seq.ExpirationDate = invoiceDate.AddDate(0, 0, -1)

	_, err := f.uc.Post(context.Background(), "c1", "inv-1")
	assert.ErrorIs(t, err, domain.ErrNoFiscalSequence)
	assert.Empty(t, f.invoices.posted)
}

func TestPostInvoice_SoloBorradores(t *testing.T) {
	f := newFixture()
	f.invoices.byID["inv-1"].State = entity.InvoiceStatePosted

	_, err := f.uc.Post(context.Background(), "c1", "inv-1")
	assert.ErrorIs(t, err, domain.ErrInvoiceNotDraft)
}

func TestPostInvoice_OtraEmpresaNoEncuentra(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Post(context.Background(), "c2", "inv-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostInvoice_NCFManualMalFormado(t *testing.T) {
	f := newFixture()
	inv := f.invoices.byID["inv-1"]
	inv.FiscalTypeID = "ft-b11"
	inv.Ref = "B11-0001"

	_, err := f.uc.Post(context.Background(), "c1", "inv-1")
	assert.ErrorIs(t, err, domain.ErrInvalidNCF)
}

func TestPostInvoice_NotaDeCreditoSinOrigen(t *testing.T) {
	f := newFixture()
	inv := f.invoices.byID["inv-1"]
	inv.MoveType = entity.MoveOutRefund
	inv.FiscalTypeID = "ft-e34"
	inv.OriginRef = "E310000000001"
	f.sequences.seq.FiscalTypeID = "ft-e34"
	f.sequences.seq.Prefix = "E34"

	_, err := f.uc.Post(context.Background(), "c1", "inv-1")
	assert.ErrorIs(t, err, domain.ErrOriginNotFound)
	assert.Equal(t, []string{"p1", "p0"}, f.invoices.lastQuery.PartnerIDs)
	assert.Equal(t, []entity.MoveType{entity.MoveOutInvoice}, f.invoices.lastQuery.MoveTypes)
}

func TestPostInvoice_NotaDeCreditoConOrigen(t *testing.T) {
	f := newFixture()
	f.invoices.byID["orig"] = &entity.Invoice{
		ID: "orig", CompanyID: "c1", PartnerID: "p0", MoveType: entity.MoveOutInvoice,
		State: entity.InvoiceStatePosted, Ref: "E310000000001", InvoiceDate: invoiceDate.AddDate(0, 0, -10),
	}
	inv := f.invoices.byID["inv-1"]
	inv.MoveType = entity.MoveOutRefund
	inv.FiscalTypeID = "ft-e34"
	inv.OriginRef = "E310000000001"
	f.sequences.seq.FiscalTypeID = "ft-e34"
	f.sequences.seq.Prefix = "E34"

	got, err := f.uc.Post(context.Background(), "c1", "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "E340000000007", got.Ref)
}

func TestPostInvoice_NotaDeDebitoSinOrigen(t *testing.T) {
	f := newFixture()
	inv := f.invoices.byID["inv-1"]
	inv.IsDebitNote = true
	inv.FiscalTypeID = "ft-e33"
	inv.OriginRef = "E310000009999"
	f.sequences.seq.FiscalTypeID = "ft-e33"
	f.sequences.seq.Prefix = "E33"

	_, err := f.uc.Post(context.Background(), "c1", "inv-1")
	assert.ErrorIs(t, err, domain.ErrOriginNotFound)
	assert.Equal(t, []entity.MoveType{entity.MoveOutInvoice}, f.invoices.lastQuery.MoveTypes)
	assert.Empty(t, f.invoices.posted)
	assert.Equal(t, int64(7), f.sequences.seq.NextNumber)
}

func TestPostInvoice_RNCInvalidoNoPostea(t *testing.T) {
	f := newFixture()
	f.partners["p1"].VAT = "13109819X"

	_, err := f.uc.Post(context.Background(), "c1", "inv-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTaxpayerID)
	assert.Empty(t, f.invoices.posted)
}

func TestPostInvoice_FalloAlEmitirNoPostea(t *testing.T) {
	f := newFixture()
	f.sequences.issueErr = errors.New("secuencia bloqueada")

	_, err := f.uc.Post(context.Background(), "c1", "inv-1")
	require.Error(t, err)
	assert.Empty(t, f.invoices.posted)
	assert.Equal(t, int64(7), f.sequences.seq.NextNumber)
}

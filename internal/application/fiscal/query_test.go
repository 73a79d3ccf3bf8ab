package fiscal_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ecf-dgii/internal/application/fiscal"
	"github.com/jhoicas/ecf-dgii/internal/domain"
	domaindgii "github.com/jhoicas/ecf-dgii/internal/domain/dgii"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
)

func TestQuery_FacturaConTotales(t *testing.T) {
	f := newFixture()
	inv := f.invoices.byID["inv-1"]
	inv.State = entity.InvoiceStatePosted
	inv.Ref = "E310000000001"
	inv.PaymentState = entity.PaymentStatePaid
	inv.Payments = []*entity.PaymentEntry{{
		Date: invoiceDate, Amount: decimal.NewFromInt(1180), PaymentID: "pay-1",
		JournalType: "cash", PaymentForm: entity.PaymentFormCash,
	}}

	q := fiscal.NewQueryUseCase(f.invoices, f.sequences, domaindgii.NewClassifier(false))
	out, err := q.GetInvoice(context.Background(), "c1", "inv-1")
	require.NoError(t, err)

	assert.Equal(t, "E310000000001", out.NCF)
	assert.Equal(t, "180", out.Taxes.ITBIS.String())
	assert.Equal(t, "01", out.PaymentForm, "pago en efectivo")
	assert.Equal(t, "2024-03-15", out.InvoiceDate)

	assert.Equal(t, "1000", out.Report.Services.String(), "línea sin producto")
	assert.True(t, out.Report.Goods.IsZero())
	report, err := json.Marshal(out.Report)
	require.NoError(t, err)
	assert.NotContains(t, string(report), "advance_itbis", "sin modelo de ITBIS al costo no se informa ITBIS por adelantar")
	assert.Equal(t, "2024-03-15", out.Report.PaymentDate)
	assert.Empty(t, out.Report.ISRWithholdingType)
}

func TestQuery_EstadoDeSecuencia(t *testing.T) {
	f := newFixture()
	f.sequences.seq.NextNumber = 95
	q := fiscal.NewQueryUseCase(f.invoices, f.sequences, domaindgii.NewClassifier(false))

	out, err := q.SequenceStatus(context.Background(), "c1", "seq-1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), out.Remaining)
	assert.Equal(t, entity.SequenceStatusAlmost, out.Status)
	assert.Equal(t, "2025-12-31", out.ExpirationDate)

	_, err = q.SequenceStatus(context.Background(), "otra", "seq-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuery_SecuenciaAgotada(t *testing.T) {
	seq := &entity.FiscalSequence{SequenceStart: 1, SequenceEnd: 10, NextNumber: 11, ExpirationDate: time.Now()}
	assert.Equal(t, entity.SequenceStatusDepleted, seq.Status())
}

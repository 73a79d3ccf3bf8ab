package notify_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jhoicas/ecf-dgii/internal/application/einvoice"
	"github.com/jhoicas/ecf-dgii/internal/infrastructure/notify"
)

type fakeSender struct {
	msgs []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.msgs = append(f.msgs, m...)
	return f.err
}

type fakeNotifier struct {
	calls int
	err   error
}

func (f *fakeNotifier) Notify(context.Context, einvoice.Alert) error {
	f.calls++
	return f.err
}

func sampleAlert() einvoice.Alert {
	return einvoice.Alert{
		AttemptID:   "a-1",
		CompanyID:   "c1",
		InvoiceID:   "inv-1",
		InvoiceName: "INV/2024/0001",
		NCF:         "E310000000007",
		Status:      "Rechazado",
		Message:     "1: RNC del comprador inválido",
		Payload:     []byte(`{"ECF":{"Encabezado":{"Version":"1.0"}}}`),
		OccurredAt:  time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestMailNotifier_AdjuntaPayload(t *testing.T) {
	sender := &fakeSender{}
	n := notify.NewMailNotifier(sender, notify.MailConfig{From: "ecf@emisor.do", Recipients: []string{"conta@emisor.do", "ti@emisor.do"}})

	require.NoError(t, n.Notify(context.Background(), sampleAlert()))
	require.Len(t, sender.msgs, 1)

	m := sender.msgs[0]
	assert.Equal(t, []string{"conta@emisor.do", "ti@emisor.do"}, m.GetHeader("To"))
	assert.Contains(t, m.GetHeader("Subject")[0], "E310000000007")

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "payload_INV_2024_0001.json")

	pretty := "{\n  \"ECF\": {\n    \"Encabezado\": {\n      \"Version\": \"1.0\"\n    }\n  }\n}"
	assert.Contains(t, strings.ReplaceAll(raw, "\r\n", ""), base64.StdEncoding.EncodeToString([]byte(pretty))[:40])
}

func TestMailNotifier_SinDestinatariosNoEnvia(t *testing.T) {
	sender := &fakeSender{}
	n := notify.NewMailNotifier(sender, notify.MailConfig{From: "ecf@emisor.do"})

	require.NoError(t, n.Notify(context.Background(), sampleAlert()))
	assert.Empty(t, sender.msgs)
}

func TestMailNotifier_ErrorDeEnvio(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp: conexión rechazada")}
	n := notify.NewMailNotifier(sender, notify.MailConfig{From: "ecf@emisor.do", Recipients: []string{"conta@emisor.do"}})

	err := n.Notify(context.Background(), sampleAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conexión rechazada")
}

func TestMulti_UnFalloNoDetieneALosDemas(t *testing.T) {
	failing := &fakeNotifier{err: errors.New("caído")}
	ok := &fakeNotifier{}
	m := notify.NewMulti(zerolog.Nop(), failing, nil, ok, notify.NewLogNotifier(zerolog.Nop()))

	err := m.Notify(context.Background(), sampleAlert())
	require.Error(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}

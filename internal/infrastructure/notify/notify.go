package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jhoicas/ecf-dgii/internal/application/einvoice"
)

// LogNotifier registra la alerta en el log estructurado.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier construye el notificador por log.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify nunca falla.
func (n *LogNotifier) Notify(_ context.Context, a einvoice.Alert) error {
	n.log.Warn().
		Str("attempt_id", a.AttemptID).
		Str("company_id", a.CompanyID).
		Str("invoice_id", a.InvoiceID).
		Str("ncf", a.NCF).
		Str("status", a.Status).
		Int("payload_bytes", len(a.Payload)).
		Msg("envío e-CF requiere intervención: " + a.Message)
	return nil
}

// Multi reparte la alerta a varios notificadores; un fallo no impide los demás.
type Multi struct {
	notifiers []einvoice.Notifier
	log       zerolog.Logger
}

// NewMulti ignora los notificadores nil.
func NewMulti(log zerolog.Logger, notifiers ...einvoice.Notifier) *Multi {
	m := &Multi{log: log}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Notify devuelve los errores unidos.
func (m *Multi) Notify(ctx context.Context, a einvoice.Alert) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, a); err != nil {
			m.log.Error().Err(err).Str("invoice_id", a.InvoiceID).Msg("notificador falló")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

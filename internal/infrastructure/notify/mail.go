package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/ecf-dgii/internal/application/einvoice"
)

// Sender envía mensajes ya armados; *gomail.Dialer lo implementa.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailConfig remitente y destinatarios de las alertas.
type MailConfig struct {
	From       string
	Recipients []string
}

// MailNotifier envía la alerta por correo con el payload como adjunto.
type MailNotifier struct {
	sender Sender
	cfg    MailConfig
}

// NewMailNotifier construye el notificador por correo.
func NewMailNotifier(sender Sender, cfg MailConfig) *MailNotifier {
	return &MailNotifier{sender: sender, cfg: cfg}
}

// NewSMTPSender devuelve un dialer SMTP de gomail.
func NewSMTPSender(host string, port int, user, password string) *gomail.Dialer {
	return gomail.NewDialer(host, port, user, password)
}

// Notify arma y envía el correo. gomail no acepta contexto; se respeta solo la cancelación previa.
func (n *MailNotifier) Notify(ctx context.Context, a einvoice.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(n.cfg.Recipients) == 0 {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", n.cfg.Recipients...)
	m.SetHeader("Subject", subject(a))
	m.SetBody("text/plain", body(a))
	if len(a.Payload) > 0 {
		data := prettyJSON(a.Payload)
		m.Attach(attachmentName(a), gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}
	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("notify: correo de alerta: %w", err)
	}
	return nil
}

func subject(a einvoice.Alert) string {
	ref := a.NCF
	if ref == "" {
		ref = a.InvoiceName
	}
	return fmt.Sprintf("[e-CF] Fallo en envío %s (%s)", ref, a.Status)
}

func body(a einvoice.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Factura: %s\n", a.InvoiceName)
	fmt.Fprintf(&b, "NCF: %s\n", a.NCF)
	fmt.Fprintf(&b, "Estado: %s\n", a.Status)
	fmt.Fprintf(&b, "Intento: %s\n", a.AttemptID)
	fmt.Fprintf(&b, "Fecha: %s\n\n", a.OccurredAt.Format("2006-01-02 15:04:05"))
	b.WriteString(a.Message)
	b.WriteString("\n")
	return b.String()
}

// attachmentName payload_<factura>.json con separadores reemplazados por "_".
func attachmentName(a einvoice.Alert) string {
	name := a.InvoiceName
	if name == "" {
		name = a.InvoiceID
	}
	name = strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(name)
	return "payload_" + name + ".json"
}

// prettyJSON indenta el payload; si no es JSON válido se adjunta tal cual.
func prettyJSON(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return raw
	}
	return buf.Bytes()
}

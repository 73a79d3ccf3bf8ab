package einvoice

import (
	"context"
	"time"

	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/internal/infrastructure/ecf"
)

// PayloadBuilder construye el e-CF de una factura.
type PayloadBuilder interface {
	Build(ctx context.Context, in ecf.BuildInput) (*ecf.Payload, error)
}

// Submitter envía el e-CF al conector y devuelve la respuesta interpretada.
type Submitter interface {
	Submit(ctx context.Context, company *entity.Company, payload []byte) (*ecf.Outcome, error)
}

// Alert aviso de un envío fallido para intervención manual.
type Alert struct {
	AttemptID   string
	CompanyID   string
	InvoiceID   string
	InvoiceName string
	NCF         string
	Status      string
	Message     string
	Payload     []byte // JSON intentado
	OccurredAt  time.Time
}

// Notifier despacha alertas. El servicio registra los errores pero no los propaga.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

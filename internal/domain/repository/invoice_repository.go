package repository

import (
	"context"

	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
)

// OriginQuery criterios para localizar el comprobante afectado por una nota.
type OriginQuery struct {
	CompanyID  string
	Ref        string
	PartnerIDs []string // contacto, su padre y sus hijos
	MoveTypes  []entity.MoveType
}

// InvoiceRepository define el puerto de persistencia para Invoice.
type InvoiceRepository interface {
	// GetByID devuelve la factura con líneas, impuestos, apuntes de impuesto y pagos; nil si no existe.
	GetByID(ctx context.Context, companyID, id string) (*entity.Invoice, error)
	// FindPostedByRef busca un comprobante validado por NCF; nil si no existe.
	FindPostedByRef(ctx context.Context, q OriginQuery) (*entity.Invoice, error)
	// Post persiste estado, NCF, secuencia y vencimiento tras la validación.
	Post(ctx context.Context, invoice *entity.Invoice) error
	// SaveSubmission persiste los campos del envío e-CF y la tasa de cambio.
	SaveSubmission(ctx context.Context, invoice *entity.Invoice) error
}

package repository

import (
	"context"
	"time"

	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
)

// FiscalTypeRepository define el puerto de lectura de tipos de comprobante.
type FiscalTypeRepository interface {
	GetByID(ctx context.Context, id string) (*entity.FiscalType, error)
}

// FiscalSequenceRepository es el proveedor de secuencias fiscales (NCF).
type FiscalSequenceRepository interface {
	GetByID(ctx context.Context, id string) (*entity.FiscalSequence, error)
	// Allocate devuelve la secuencia activa de la empresa y tipo con vencimiento >= date,
	// priorizando la que vence primero; nil si no hay ninguna.
	Allocate(ctx context.Context, companyID, fiscalTypeID string, date time.Time) (*entity.FiscalSequence, error)
	// IssueNext consume atómicamente el siguiente número y devuelve el NCF formateado.
	IssueNext(ctx context.Context, sequenceID string) (string, error)
}

package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}

// PartnerRepository define el puerto de lectura de contactos fiscales.
type PartnerRepository interface {
	// GetByID devuelve el contacto con sus hijos cargados en ChildIDs; nil si no existe.
	GetByID(ctx context.Context, companyID, id string) (*entity.Partner, error)
}

// PartnerStore lectura y alta de contactos fiscales.
type PartnerStore interface {
	PartnerRepository
	// GetByVAT busca el contacto principal (sin padre) por RNC/Cédula; nil si no existe.
	GetByVAT(ctx context.Context, companyID, vat string) (*entity.Partner, error)
	Create(ctx context.Context, p *entity.Partner) error
}

// CurrencyRateRepository resuelve tasas de cambio entre monedas.
type CurrencyRateRepository interface {
	// Rate devuelve cuántas unidades de "to" vale una unidad de "from" en la fecha dada.
	Rate(ctx context.Context, companyID, from, to string, date time.Time) (decimal.Decimal, error)
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ecf-dgii/internal/domain"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/internal/domain/repository"
)

var (
	_ repository.CompanyRepository      = (*CompanyRepo)(nil)
	_ repository.ECFTokenStore          = (*CompanyRepo)(nil)
	_ repository.PartnerStore           = (*PartnerRepo)(nil)
	_ repository.CurrencyRateRepository = (*CurrencyRateRepo)(nil)
)

// ── Empresas ──────────────────────────────────────────────────────────────────

// CompanyRepo lee empresas y guarda en la propia fila el token del conector e-CF.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// GetByID obtiene una empresa por ID; nil si no existe.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	const query = `
		SELECT id, name, rnc, COALESCE(street, ''), COALESCE(street2, ''), COALESCE(city, ''),
		       COALESCE(phone, ''), COALESCE(email, ''), currency_code,
		       COALESCE(ecf_username, ''), COALESCE(ecf_password, ''), created_at, updated_at
		FROM companies WHERE id = $1`
	var c entity.Company
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.RNC, &c.Street, &c.Street2, &c.City,
		&c.Phone, &c.Email, &c.CurrencyCode,
		&c.ECFUsername, &c.ECFPassword, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

// GetToken devuelve el token e-CF guardado en la empresa; nil si no hay.
func (r *CompanyRepo) GetToken(ctx context.Context, companyID string) (*entity.ECFToken, error) {
	const query = `SELECT ecf_token, ecf_token_expires_at FROM companies WHERE id = $1`
	var token *string
	var expires *time.Time
	if err := r.q.QueryRow(ctx, query, companyID).Scan(&token, &expires); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ecf token: %w", err)
	}
	if token == nil || expires == nil {
		return nil, nil
	}
	return &entity.ECFToken{AccessToken: *token, ExpiresAt: expires.UTC()}, nil
}

// SaveToken guarda el token e-CF y su vencimiento (UTC) en la empresa.
func (r *CompanyRepo) SaveToken(ctx context.Context, companyID string, token entity.ECFToken) error {
	const query = `
		UPDATE companies SET ecf_token = $2, ecf_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, companyID, token.AccessToken, token.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("save ecf token: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ── Contactos ─────────────────────────────────────────────────────────────────

// PartnerRepo lectura de contactos fiscales.
type PartnerRepo struct {
	q Querier
}

// NewPartnerRepository construye el adaptador.
func NewPartnerRepository(q Querier) *PartnerRepo {
	return &PartnerRepo{q: q}
}

// GetByID obtiene el contacto con los IDs de sus hijos; nil si no existe.
func (r *PartnerRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Partner, error) {
	const query = `
		SELECT id, company_id, COALESCE(parent_id::text, ''), name, COALESCE(vat, ''),
		       COALESCE(email, ''), COALESCE(phone, ''), COALESCE(street, ''), COALESCE(street2, ''),
		       COALESCE(city, ''), COALESCE(province_code, ''), COALESCE(country_code, ''),
		       is_company, created_at, updated_at
		FROM partners WHERE company_id = $1 AND id = $2`
	var p entity.Partner
	err := r.q.QueryRow(ctx, query, companyID, id).Scan(
		&p.ID, &p.CompanyID, &p.ParentID, &p.Name, &p.VAT,
		&p.Email, &p.Phone, &p.Street, &p.Street2,
		&p.City, &p.ProvinceCode, &p.CountryCode,
		&p.IsCompany, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}

	rows, err := r.q.Query(ctx, `SELECT id FROM partners WHERE parent_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list partner children: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var child string
		if err := rows.Scan(&child); err != nil {
			return nil, fmt.Errorf("scan partner child: %w", err)
		}
		p.ChildIDs = append(p.ChildIDs, child)
	}
	return &p, rows.Err()
}

// GetByVAT obtiene el contacto principal (sin padre) con ese RNC/Cédula; nil si no existe.
func (r *PartnerRepo) GetByVAT(ctx context.Context, companyID, vat string) (*entity.Partner, error) {
	var id string
	err := r.q.QueryRow(ctx,
		`SELECT id FROM partners WHERE company_id = $1 AND vat = $2 AND parent_id IS NULL`,
		companyID, vat).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get partner by vat: %w", err)
	}
	return r.GetByID(ctx, companyID, id)
}

// Create inserta el contacto. Un RNC repetido en la empresa devuelve domain.ErrConflict.
func (r *PartnerRepo) Create(ctx context.Context, p *entity.Partner) error {
	const query = `
		INSERT INTO partners (id, company_id, parent_id, name, vat, email, phone, street, street2,
		                      city, province_code, country_code, is_company, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.CompanyID, nullIfEmpty(p.ParentID), p.Name, nullIfEmpty(p.VAT),
		nullIfEmpty(p.Email), nullIfEmpty(p.Phone), nullIfEmpty(p.Street), nullIfEmpty(p.Street2),
		nullIfEmpty(p.City), nullIfEmpty(p.ProvinceCode), nullIfEmpty(p.CountryCode), p.IsCompany,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: contacto con RNC %s", domain.ErrConflict, p.VAT)
		}
		return fmt.Errorf("create partner: %w", err)
	}
	return nil
}

// ── Tasas de cambio ───────────────────────────────────────────────────────────

// CurrencyRateRepo tasas de cambio por empresa y fecha.
type CurrencyRateRepo struct {
	q Querier
}

// NewCurrencyRateRepository construye el adaptador.
func NewCurrencyRateRepository(q Querier) *CurrencyRateRepo {
	return &CurrencyRateRepo{q: q}
}

// Rate devuelve la última tasa vigente a la fecha. Si solo existe la inversa (to -> from), la invierte.
func (r *CurrencyRateRepo) Rate(ctx context.Context, companyID, from, to string, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	const query = `
		SELECT rate FROM currency_rates
		WHERE company_id = $1 AND from_currency = $2 AND to_currency = $3 AND rate_date <= $4
		ORDER BY rate_date DESC LIMIT 1`
	var rate decimal.Decimal
	err := r.q.QueryRow(ctx, query, companyID, from, to, date).Scan(&rate)
	if err == nil {
		return rate, nil
	}
	if !isNoRows(err) {
		return decimal.Zero, fmt.Errorf("get currency rate: %w", err)
	}

	err = r.q.QueryRow(ctx, query, companyID, to, from, date).Scan(&rate)
	if err != nil {
		if isNoRows(err) {
			return decimal.Zero, fmt.Errorf("%w: tasa %s->%s al %s", domain.ErrNotFound, from, to, date.Format("2006-01-02"))
		}
		return decimal.Zero, fmt.Errorf("get currency rate: %w", err)
	}
	if rate.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: tasa %s->%s en cero", domain.ErrInvalidInput, to, from)
	}
	return decimal.NewFromInt(1).DivRound(rate, 6), nil
}

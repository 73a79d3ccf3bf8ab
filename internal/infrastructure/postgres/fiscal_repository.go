package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/ecf-dgii/internal/domain"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/internal/domain/repository"
	"github.com/jhoicas/ecf-dgii/pkg/dgii"
)

var (
	_ repository.FiscalTypeRepository     = (*FiscalTypeRepo)(nil)
	_ repository.FiscalSequenceRepository = (*FiscalSequenceRepo)(nil)
)

// FiscalTypeRepo lectura de tipos de comprobante fiscal.
type FiscalTypeRepo struct {
	q Querier
}

// NewFiscalTypeRepository construye el adaptador.
func NewFiscalTypeRepository(q Querier) *FiscalTypeRepo {
	return &FiscalTypeRepo{q: q}
}

// GetByID obtiene un tipo de comprobante; nil si no existe.
func (r *FiscalTypeRepo) GetByID(ctx context.Context, id string) (*entity.FiscalType, error) {
	const query = `
		SELECT id, company_id, name, prefix, document_type, assigned_sequence, requires_document, is_electronic, active
		FROM fiscal_types WHERE id = $1`
	var ft entity.FiscalType
	err := r.q.QueryRow(ctx, query, id).Scan(
		&ft.ID, &ft.CompanyID, &ft.Name, &ft.Prefix, &ft.DocumentType,
		&ft.AssignedSequence, &ft.RequiresDocument, &ft.IsElectronic, &ft.Active,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fiscal type: %w", err)
	}
	return &ft, nil
}

// FiscalSequenceRepo proveedor de secuencias fiscales sobre PostgreSQL.
type FiscalSequenceRepo struct {
	q Querier
}

// NewFiscalSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFiscalSequenceRepository(q Querier) *FiscalSequenceRepo {
	return &FiscalSequenceRepo{q: q}
}

const sequenceColumns = `id, company_id, fiscal_type_id, prefix, sequence_start, sequence_end, next_number,
	warning_percentage, expiration_date, state, created_at, updated_at`

func scanSequence(row interface{ Scan(dest ...any) error }) (*entity.FiscalSequence, error) {
	var s entity.FiscalSequence
	err := row.Scan(&s.ID, &s.CompanyID, &s.FiscalTypeID, &s.Prefix, &s.SequenceStart, &s.SequenceEnd, &s.NextNumber,
		&s.WarningPercentage, &s.ExpirationDate, &s.State, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID obtiene una secuencia; nil si no existe.
func (r *FiscalSequenceRepo) GetByID(ctx context.Context, id string) (*entity.FiscalSequence, error) {
	s, err := scanSequence(r.q.QueryRow(ctx, `SELECT `+sequenceColumns+` FROM fiscal_sequences WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fiscal sequence: %w", err)
	}
	return s, nil
}

// Allocate devuelve la secuencia activa con números disponibles que vence primero; nil si no hay.
func (r *FiscalSequenceRepo) Allocate(ctx context.Context, companyID, fiscalTypeID string, date time.Time) (*entity.FiscalSequence, error) {
	query := `SELECT ` + sequenceColumns + `
		FROM fiscal_sequences
		WHERE company_id = $1 AND fiscal_type_id = $2 AND state = 'active'
		  AND expiration_date >= $3::date AND next_number <= sequence_end
		ORDER BY expiration_date ASC, sequence_start ASC
		LIMIT 1`
	s, err := scanSequence(r.q.QueryRow(ctx, query, companyID, fiscalTypeID, date))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("allocate fiscal sequence: %w", err)
	}
	return s, nil
}

// IssueNext consume el siguiente número en una sola sentencia y devuelve el NCF formateado.
// Al consumir el último número la secuencia pasa a agotada. Una secuencia vencida, agotada
// o inactiva no emite y devuelve domain.ErrNoFiscalSequence.
func (r *FiscalSequenceRepo) IssueNext(ctx context.Context, sequenceID string) (string, error) {
	const query = `
		UPDATE fiscal_sequences
		SET next_number = next_number + 1,
		    state       = CASE WHEN next_number + 1 > sequence_end THEN 'depleted' ELSE state END,
		    updated_at  = NOW()
		WHERE id = $1 AND state = 'active' AND next_number <= sequence_end
		  AND expiration_date >= CURRENT_DATE
		RETURNING prefix, next_number - 1`
	var prefix string
	var number int64
	if err := r.q.QueryRow(ctx, query, sequenceID).Scan(&prefix, &number); err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("%w: secuencia %s vencida, agotada o inactiva", domain.ErrNoFiscalSequence, sequenceID)
		}
		return "", fmt.Errorf("issue ncf: %w", err)
	}
	return dgii.FormatNCF(prefix, number), nil
}

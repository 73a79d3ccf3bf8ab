package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/ecf-dgii/internal/domain"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	id, company_id, partner_id, name, move_type, state, payment_state,
	COALESCE(fiscal_type_id::text, ''), COALESCE(fiscal_sequence_id::text, ''), COALESCE(ref, ''),
	invoice_date, due_date, ncf_expiration_date, currency_code, currency_rate,
	amount_untaxed, amount_tax, amount_total, amount_residual, COALESCE(income_type, ''),
	COALESCE(origin_ref, ''), is_debit_note, COALESCE(modification_code, ''), COALESCE(modification_reason, ''),
	COALESCE(ecf_status, ''), COALESCE(ecf_track_id, ''), ecf_qr_image, COALESCE(ecf_security_code, ''),
	ecf_signed_at, ecf_submitted, COALESCE(ecf_payload, ''), COALESCE(ecf_error_message, ''),
	created_at, updated_at`

func scanInvoice(row interface{ Scan(dest ...any) error }) (*entity.Invoice, error) {
	var inv entity.Invoice
	var moveType string
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.PartnerID, &inv.Name, &moveType, &inv.State, &inv.PaymentState,
		&inv.FiscalTypeID, &inv.FiscalSequenceID, &inv.Ref,
		&inv.InvoiceDate, &inv.DueDate, &inv.NCFExpirationDate, &inv.CurrencyCode, &inv.CurrencyRate,
		&inv.AmountUntaxed, &inv.AmountTax, &inv.AmountTotal, &inv.AmountResidual, &inv.IncomeType,
		&inv.OriginRef, &inv.IsDebitNote, &inv.ModificationCode, &inv.ModificationReason,
		&inv.ECFStatus, &inv.ECFTrackID, &inv.ECFQRImage, &inv.ECFSecurityCode,
		&inv.ECFSignedAt, &inv.ECFSubmitted, &inv.ECFPayload, &inv.ECFErrorMessage,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.MoveType = entity.MoveType(moveType)
	return &inv, nil
}

// GetByID obtiene la factura con líneas, impuestos por línea, apuntes de impuesto y pagos.
func (r *InvoiceRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE company_id = $1 AND id = $2`
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if err := r.loadLines(ctx, inv); err != nil {
		return nil, err
	}
	if err := r.loadTaxLines(ctx, inv); err != nil {
		return nil, err
	}
	if err := r.loadPayments(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

const taxColumns = `t.id, t.company_id, t.name, COALESCE(t.category, ''), t.rate, COALESCE(t.isr_reason, ''),
	t.e_tax, t.exempt, COALESCE(t.dgii_code, ''), t.price_include`

func scanTax(dest []any, t *entity.Tax) []any {
	return append(dest, &t.ID, &t.CompanyID, &t.Name, &t.Category, &t.Rate, &t.ISRReason,
		&t.ETax, &t.Exempt, &t.DGIICode, &t.PriceInclude)
}

func (r *InvoiceRepo) loadLines(ctx context.Context, inv *entity.Invoice) error {
	const query = `
		SELECT id, invoice_id, name, COALESCE(product_id::text, ''), COALESCE(product_name, ''),
		       COALESCE(product_type, ''), quantity, price_unit, subtotal, uom_code
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY sequence, id`
	rows, err := r.q.Query(ctx, query, inv.ID)
	if err != nil {
		return fmt.Errorf("list invoice lines: %w", err)
	}
	defer rows.Close()

	byID := map[string]*entity.InvoiceLine{}
	for rows.Next() {
		var l entity.InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Name, &l.ProductID, &l.ProductName,
			&l.ProductType, &l.Quantity, &l.PriceUnit, &l.Subtotal, &l.UoMCode); err != nil {
			return fmt.Errorf("scan invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, &l)
		byID[l.ID] = &l
	}
	if err := rows.Err(); err != nil {
		return err
	}

	taxQuery := `
		SELECT lt.line_id, ` + taxColumns + `
		FROM invoice_line_taxes lt
		JOIN taxes t ON t.id = lt.tax_id
		JOIN invoice_lines l ON l.id = lt.line_id
		WHERE l.invoice_id = $1
		ORDER BY lt.line_id, lt.sequence`
	taxRows, err := r.q.Query(ctx, taxQuery, inv.ID)
	if err != nil {
		return fmt.Errorf("list line taxes: %w", err)
	}
	defer taxRows.Close()
	for taxRows.Next() {
		var lineID string
		var t entity.Tax
		if err := taxRows.Scan(scanTax([]any{&lineID}, &t)...); err != nil {
			return fmt.Errorf("scan line tax: %w", err)
		}
		if l, ok := byID[lineID]; ok {
			l.Taxes = append(l.Taxes, &t)
		}
	}
	return taxRows.Err()
}

func (r *InvoiceRepo) loadTaxLines(ctx context.Context, inv *entity.Invoice) error {
	query := `
		SELECT tl.balance, ` + taxColumns + `
		FROM invoice_tax_lines tl
		JOIN taxes t ON t.id = tl.tax_id
		WHERE tl.invoice_id = $1
		ORDER BY tl.id`
	rows, err := r.q.Query(ctx, query, inv.ID)
	if err != nil {
		return fmt.Errorf("list tax lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		tl := entity.TaxLine{Tax: &entity.Tax{}}
		if err := rows.Scan(scanTax([]any{&tl.Balance}, tl.Tax)...); err != nil {
			return fmt.Errorf("scan tax line: %w", err)
		}
		inv.TaxLines = append(inv.TaxLines, &tl)
	}
	return rows.Err()
}

func (r *InvoiceRepo) loadPayments(ctx context.Context, inv *entity.Invoice) error {
	const query = `
		SELECT payment_date, amount, COALESCE(payment_id::text, ''), COALESCE(counterpart_move_id::text, ''),
		       COALESCE(journal_type, ''), COALESCE(payment_form, '')
		FROM invoice_payments WHERE invoice_id = $1 ORDER BY payment_date, id`
	rows, err := r.q.Query(ctx, query, inv.ID)
	if err != nil {
		return fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p entity.PaymentEntry
		if err := rows.Scan(&p.Date, &p.Amount, &p.PaymentID, &p.MoveID, &p.JournalType, &p.PaymentForm); err != nil {
			return fmt.Errorf("scan payment: %w", err)
		}
		inv.Payments = append(inv.Payments, &p)
	}
	return rows.Err()
}

// FindPostedByRef busca el comprobante validado más reciente con ese NCF; nil si no existe.
func (r *InvoiceRepo) FindPostedByRef(ctx context.Context, q repository.OriginQuery) (*entity.Invoice, error) {
	moveTypes := make([]string, 0, len(q.MoveTypes))
	for _, m := range q.MoveTypes {
		moveTypes = append(moveTypes, string(m))
	}
	query := `SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE company_id = $1 AND ref = $2 AND state = 'posted'
		  AND partner_id::text = ANY($3) AND move_type = ANY($4)
		ORDER BY invoice_date DESC LIMIT 1`
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, q.CompanyID, q.Ref, q.PartnerIDs, moveTypes))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find invoice by ref: %w", err)
	}
	return inv, nil
}

// Post marca la factura en borrador como validada con su NCF.
func (r *InvoiceRepo) Post(ctx context.Context, inv *entity.Invoice) error {
	const query = `
		UPDATE invoices
		SET state               = $3,
		    ref                 = $4,
		    fiscal_sequence_id  = $5,
		    ncf_expiration_date = $6,
		    updated_at          = $7
		WHERE company_id = $1 AND id = $2 AND state = 'draft'`
	inv.UpdatedAt = time.Now().UTC()
	cmd, err := r.q.Exec(ctx, query,
		inv.CompanyID, inv.ID, inv.State, inv.Ref,
		nullIfEmpty(inv.FiscalSequenceID), inv.NCFExpirationDate, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: el NCF %s ya fue usado", domain.ErrConflict, inv.Ref)
		}
		return fmt.Errorf("post invoice: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrInvoiceNotDraft
	}
	return nil
}

// SaveSubmission persiste el resultado del envío e-CF y la tasa de cambio usada.
func (r *InvoiceRepo) SaveSubmission(ctx context.Context, inv *entity.Invoice) error {
	const query = `
		UPDATE invoices
		SET currency_rate     = $3,
		    ecf_status        = $4,
		    ecf_track_id      = $5,
		    ecf_qr_image      = $6,
		    ecf_security_code = $7,
		    ecf_signed_at     = $8,
		    ecf_submitted     = $9,
		    ecf_payload       = $10,
		    ecf_error_message = $11,
		    updated_at        = $12
		WHERE company_id = $1 AND id = $2`
	inv.UpdatedAt = time.Now().UTC()
	cmd, err := r.q.Exec(ctx, query,
		inv.CompanyID, inv.ID, inv.CurrencyRate,
		nullIfEmpty(inv.ECFStatus), nullIfEmpty(inv.ECFTrackID), inv.ECFQRImage,
		nullIfEmpty(inv.ECFSecurityCode), inv.ECFSignedAt, inv.ECFSubmitted,
		nullIfEmpty(inv.ECFPayload), nullIfEmpty(inv.ECFErrorMessage), inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save ecf submission: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

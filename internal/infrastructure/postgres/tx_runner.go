package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/ecf-dgii/internal/application/fiscal"
	"github.com/jhoicas/ecf-dgii/internal/domain/repository"
)

var _ fiscal.PostingTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunPosting ejecuta fn con los repos de facturas y secuencias atados a una misma transacción:
// el consumo del NCF y la validación de la factura se confirman juntos o no se confirman.
func (r *TxRunner) RunPosting(ctx context.Context, fn func(
	invoices repository.InvoiceRepository,
	sequences repository.FiscalSequenceRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewInvoiceRepository(tx), NewFiscalSequenceRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

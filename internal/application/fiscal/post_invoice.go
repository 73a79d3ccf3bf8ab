package fiscal

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/ecf-dgii/internal/domain"
	domaindgii "github.com/jhoicas/ecf-dgii/internal/domain/dgii"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/internal/domain/repository"
)

// PostingTxRunner ejecuta una función dentro de una transacción con los repos de factura y secuencia.
type PostingTxRunner interface {
	RunPosting(ctx context.Context, fn func(
		invoices repository.InvoiceRepository,
		sequences repository.FiscalSequenceRepository,
	) error) error
}

// PostInvoiceUseCase valida una factura fiscal en borrador y le asigna el NCF.
type PostInvoiceUseCase struct {
	txRunner       PostingTxRunner
	invoiceRepo    repository.InvoiceRepository
	partnerRepo    repository.PartnerRepository
	fiscalTypeRepo repository.FiscalTypeRepository
	sequenceRepo   repository.FiscalSequenceRepository
	classifier     domaindgii.Classifier
	log            zerolog.Logger
	now            func() time.Time
}

// NewPostInvoiceUseCase construye el caso de uso.
func NewPostInvoiceUseCase(
	txRunner PostingTxRunner,
	invoiceRepo repository.InvoiceRepository,
	partnerRepo repository.PartnerRepository,
	fiscalTypeRepo repository.FiscalTypeRepository,
	sequenceRepo repository.FiscalSequenceRepository,
	classifier domaindgii.Classifier,
	log zerolog.Logger,
) *PostInvoiceUseCase {
	return &PostInvoiceUseCase{
		txRunner:       txRunner,
		invoiceRepo:    invoiceRepo,
		partnerRepo:    partnerRepo,
		fiscalTypeRepo: fiscalTypeRepo,
		sequenceRepo:   sequenceRepo,
		classifier:     classifier,
		log:            log,
		now:            time.Now,
	}
}

// Post valida la factura y, en una sola transacción, consume el siguiente número de la
// secuencia vigente y la deja en estado posted.
func (uc *PostInvoiceUseCase) Post(ctx context.Context, companyID, invoiceID string) (*entity.Invoice, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, companyID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("post invoice: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.State != entity.InvoiceStateDraft {
		return nil, domain.ErrInvoiceNotDraft
	}
	if inv.FiscalTypeID == "" {
		return nil, fmt.Errorf("%w: la factura no tiene tipo de comprobante", domain.ErrInvalidInput)
	}

	ft, err := uc.fiscalTypeRepo.GetByID(ctx, inv.FiscalTypeID)
	if err != nil {
		return nil, fmt.Errorf("post invoice: tipo de comprobante: %w", err)
	}
	if ft == nil {
		return nil, domain.ErrNotFound
	}
	partner, err := uc.partnerRepo.GetByID(ctx, companyID, inv.PartnerID)
	if err != nil {
		return nil, fmt.Errorf("post invoice: contacto: %w", err)
	}
	if partner == nil {
		return nil, domain.ErrNotFound
	}

	// Un NCF ya asignado (factura devuelta a borrador) se conserva.
	var seq *entity.FiscalSequence
	if ft.AssignedSequence && inv.Ref == "" {
		seq, err = uc.sequenceRepo.Allocate(ctx, companyID, ft.ID, inv.InvoiceDate)
		if err != nil {
			return nil, fmt.Errorf("post invoice: secuencia: %w", err)
		}
	}

	origin, err := uc.findOrigin(ctx, inv, partner)
	if err != nil {
		return nil, err
	}

	if err := domaindgii.ValidatePosting(domaindgii.PostingCheck{
		Invoice:    inv,
		FiscalType: ft,
		Partner:    partner,
		Sequence:   seq,
		Origin:     origin,
	}, uc.classifier); err != nil {
		return nil, err
	}

	err = uc.txRunner.RunPosting(ctx, func(invoices repository.InvoiceRepository, sequences repository.FiscalSequenceRepository) error {
		if seq != nil {
			ncf, err := sequences.IssueNext(ctx, seq.ID)
			if err != nil {
				return err
			}
			expiration := seq.ExpirationDate
			inv.Ref = ncf
			inv.FiscalSequenceID = seq.ID
			inv.NCFExpirationDate = &expiration
		}
		inv.State = entity.InvoiceStatePosted
		inv.UpdatedAt = uc.now()
		return invoices.Post(ctx, inv)
	})
	if err != nil {
		inv.State = entity.InvoiceStateDraft
		return nil, err
	}

	uc.log.Info().
		Str("invoice_id", inv.ID).
		Str("company_id", companyID).
		Str("ncf", inv.Ref).
		Msg("factura validada")
	return inv, nil
}

// findOrigin busca el comprobante afectado por una nota de crédito o débito entre los
// documentos validados del contacto, su padre o sus hijos.
func (uc *PostInvoiceUseCase) findOrigin(ctx context.Context, inv *entity.Invoice, partner *entity.Partner) (*entity.Invoice, error) {
	if !domaindgii.IsNote(inv) || inv.OriginRef == "" {
		return nil, nil
	}
	origin, err := uc.invoiceRepo.FindPostedByRef(ctx, repository.OriginQuery{
		CompanyID:  inv.CompanyID,
		Ref:        inv.OriginRef,
		PartnerIDs: partner.FamilyIDs(),
		MoveTypes:  []entity.MoveType{domaindgii.OriginMoveType(inv)},
	})
	if err != nil {
		return nil, fmt.Errorf("post invoice: comprobante afectado: %w", err)
	}
	return origin, nil
}

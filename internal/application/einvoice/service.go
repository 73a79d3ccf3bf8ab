package einvoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/ecf-dgii/internal/domain"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/internal/domain/repository"
	"github.com/jhoicas/ecf-dgii/internal/infrastructure/ecf"
)

// RejectedError la DGII respondió con un rechazo o con un estado no reconocido.
type RejectedError struct {
	Status   string
	TrackID  string
	Code     string
	Messages []ecf.Message
}

func (e *RejectedError) Error() string {
	parts := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		parts = append(parts, m.Code+": "+m.Value)
	}
	msg := "e-CF rechazado por la DGII"
	if e.Status != "" {
		msg += " (" + e.Status + ")"
	}
	if len(parts) > 0 {
		msg += ": " + strings.Join(parts, "; ")
	}
	return msg
}

// Service orquesta construcción, envío y registro del resultado de un e-CF.
//
//	factura validada → JSON e-CF → conector DGII → estado, trackId y QR en la factura
//
// Todo camino de fallo posterior a la construcción guarda el payload y el mensaje en la
// factura y dispara una alerta.
type Service struct {
	invoiceRepo    repository.InvoiceRepository
	companyRepo    repository.CompanyRepository
	partnerRepo    repository.PartnerRepository
	fiscalTypeRepo repository.FiscalTypeRepository
	sequenceRepo   repository.FiscalSequenceRepository
	builder        PayloadBuilder
	submitter      Submitter
	notifier       Notifier
	log            zerolog.Logger
	now            func() time.Time
}

// NewService construye el servicio. notifier puede ser nil.
func NewService(
	invoiceRepo repository.InvoiceRepository,
	companyRepo repository.CompanyRepository,
	partnerRepo repository.PartnerRepository,
	fiscalTypeRepo repository.FiscalTypeRepository,
	sequenceRepo repository.FiscalSequenceRepository,
	builder PayloadBuilder,
	submitter Submitter,
	notifier Notifier,
	log zerolog.Logger,
) *Service {
	return &Service{
		invoiceRepo:    invoiceRepo,
		companyRepo:    companyRepo,
		partnerRepo:    partnerRepo,
		fiscalTypeRepo: fiscalTypeRepo,
		sequenceRepo:   sequenceRepo,
		builder:        builder,
		submitter:      submitter,
		notifier:       notifier,
		log:            log,
		now:            time.Now,
	}
}

// Preview construye el payload sin enviarlo.
func (s *Service) Preview(ctx context.Context, companyID, invoiceID string) (*ecf.Payload, error) {
	in, err := s.load(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(ctx, in)
}

// QRImage devuelve el PNG del QR guardado tras la aceptación.
func (s *Service) QRImage(ctx context.Context, companyID, invoiceID string) ([]byte, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil || len(inv.ECFQRImage) == 0 {
		return nil, domain.ErrNotFound
	}
	return inv.ECFQRImage, nil
}

// Submit construye y envía el e-CF de la factura y persiste el resultado.
// Devuelve la factura actualizada; en rechazo, también un *RejectedError.
func (s *Service) Submit(ctx context.Context, companyID, invoiceID string) (*entity.Invoice, error) {
	attemptID := uuid.NewString()
	log := s.log.With().
		Str("attempt_id", attemptID).
		Str("invoice_id", invoiceID).
		Str("company_id", companyID).
		Logger()

	in, err := s.load(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	inv := in.Invoice
	if inv.IsECFAccepted() {
		return nil, domain.ErrAlreadySubmitted
	}

	payload, err := s.builder.Build(ctx, in)
	if err != nil {
		log.Warn().Err(err).Msg("no se pudo construir el e-CF")
		return nil, err
	}
	inv.ECFPayload = string(payload.JSON)

	start := s.now()
	outcome, err := s.submitter.Submit(ctx, in.Company, payload.JSON)
	if err != nil {
		inv.ECFStatus = entity.ECFStatusError
		inv.ECFErrorMessage = err.Error()
		log.Error().Err(err).Dur("elapsed", s.now().Sub(start)).Msg("fallo en el envío del e-CF")
		s.persist(ctx, log, inv)
		s.alert(ctx, log, attemptID, inv, payload.JSON)
		return nil, err
	}

	inv.ECFStatus = outcome.ECFStatus()
	inv.ECFTrackID = outcome.TrackID

	if !outcome.Accepted() {
		inv.ECFErrorMessage = outcome.ErrorMessage()
		keepEvidence(inv, outcome)
		log.Warn().
			Str("track_id", outcome.TrackID).
			Str("status", outcome.Status).
			Str("detail", inv.ECFErrorMessage).
			Msg("e-CF rechazado")
		s.persist(ctx, log, inv)
		s.alert(ctx, log, attemptID, inv, payload.JSON)
		return inv, &RejectedError{
			Status:   outcome.Status,
			TrackID:  outcome.TrackID,
			Code:     outcome.Code,
			Messages: outcome.Messages,
		}
	}

	inv.ECFSubmitted = true
	inv.ECFErrorMessage = ""
	inv.ECFQRImage = outcome.QRImage
	inv.ECFSecurityCode = outcome.SecurityCode
	inv.ECFSignedAt = outcome.SignedAt
	inv.UpdatedAt = s.now()
	if err := s.invoiceRepo.SaveSubmission(ctx, inv); err != nil {
		log.Error().Err(err).
			Str("track_id", outcome.TrackID).
			Str("status", inv.ECFStatus).
			Str("security_code", outcome.SecurityCode).
			Msg("e-CF aceptado pero no se pudo guardar el resultado")
		return nil, fmt.Errorf("einvoice: guardar resultado: %w", err)
	}
	log.Info().
		Str("track_id", outcome.TrackID).
		Str("status", inv.ECFStatus).
		Msg("e-CF aceptado")
	return inv, nil
}

// load reúne factura, empresa, contacto, tipo y secuencia; la factura debe estar validada.
func (s *Service) load(ctx context.Context, companyID, invoiceID string) (ecf.BuildInput, error) {
	var in ecf.BuildInput
	inv, err := s.invoiceRepo.GetByID(ctx, companyID, invoiceID)
	if err != nil {
		return in, err
	}
	if inv == nil {
		return in, domain.ErrNotFound
	}
	if inv.State != entity.InvoiceStatePosted {
		return in, domain.ErrInvoiceNotPosted
	}
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return in, err
	}
	if company == nil {
		return in, domain.ErrNotFound
	}
	partner, err := s.partnerRepo.GetByID(ctx, companyID, inv.PartnerID)
	if err != nil {
		return in, err
	}
	if partner == nil {
		return in, fmt.Errorf("%w: contacto %s", domain.ErrNotFound, inv.PartnerID)
	}
	if inv.FiscalTypeID == "" {
		return in, domain.ErrNotElectronicDocument
	}
	ft, err := s.fiscalTypeRepo.GetByID(ctx, inv.FiscalTypeID)
	if err != nil {
		return in, err
	}
	if ft == nil {
		return in, domain.ErrNotElectronicDocument
	}
	var seq *entity.FiscalSequence
	if inv.FiscalSequenceID != "" {
		if seq, err = s.sequenceRepo.GetByID(ctx, inv.FiscalSequenceID); err != nil {
			return in, err
		}
	}
	return ecf.BuildInput{
		Invoice:    inv,
		Company:    company,
		Partner:    partner,
		FiscalType: ft,
		Sequence:   seq,
	}, nil
}

// ── Fallos ────────────────────────────────────────────────────────────────────

// keepEvidence copia QR, código de seguridad y fecha de firma cuando el conector los devuelve
// aunque el comprobante no haya sido aceptado.
func keepEvidence(inv *entity.Invoice, o *ecf.Outcome) {
	if len(o.QRImage) > 0 {
		inv.ECFQRImage = o.QRImage
	}
	if o.SecurityCode != "" {
		inv.ECFSecurityCode = o.SecurityCode
	}
	if o.SignedAt != nil {
		inv.ECFSignedAt = o.SignedAt
	}
}

func (s *Service) persist(ctx context.Context, log zerolog.Logger, inv *entity.Invoice) {
	inv.ECFSubmitted = false
	inv.UpdatedAt = s.now()
	if err := s.invoiceRepo.SaveSubmission(ctx, inv); err != nil {
		log.Error().Err(err).Msg("no se pudo guardar el intento fallido")
	}
}

func (s *Service) alert(ctx context.Context, log zerolog.Logger, attemptID string, inv *entity.Invoice, payload []byte) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(ctx, Alert{
		AttemptID:   attemptID,
		CompanyID:   inv.CompanyID,
		InvoiceID:   inv.ID,
		InvoiceName: inv.Name,
		NCF:         inv.Ref,
		Status:      inv.ECFStatus,
		Message:     inv.ECFErrorMessage,
		Payload:     payload,
		OccurredAt:  s.now(),
	})
	if err != nil {
		log.Error().Err(err).Msg("no se pudo enviar la alerta")
	}
}

// IsRejection indica si err es un rechazo de negocio de la DGII.
func IsRejection(err error) bool {
	var rej *RejectedError
	return errors.As(err, &rej)
}

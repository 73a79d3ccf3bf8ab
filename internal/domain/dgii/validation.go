package dgii

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ecf-dgii/internal/domain"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/pkg/dgii"
)

// CreditNoteITBISDays días tras el comprobante original a partir de los cuales
// una nota de crédito ya no puede afectar el ITBIS.
const CreditNoteITBISDays = 30

// PostingCheck agrupa lo necesario para validar el posteo de una factura fiscal.
type PostingCheck struct {
	Invoice    *entity.Invoice
	FiscalType *entity.FiscalType
	Partner    *entity.Partner
	Sequence   *entity.FiscalSequence // secuencia vigente; nil si no hay
	Origin     *entity.Invoice        // comprobante afectado, resuelto por el llamador
}

// ValidatePosting aplica las reglas de la DGII antes de asignar el NCF.
// Devuelve el primer error encontrado, envuelto con el detalle para el usuario.
func ValidatePosting(pc PostingCheck, c Classifier) error {
	inv, ft, partner := pc.Invoice, pc.FiscalType, pc.Partner

	if inv.AmountTotal.IsZero() {
		return domain.ErrZeroAmountInvoice
	}
	if !ft.AssignedSequence {
		if err := dgii.ValidateNCFFormat(inv.Ref); err != nil {
			return fmt.Errorf("%w: %s", domain.ErrInvalidNCF, inv.Ref)
		}
	}
	if inv.Ref == "" && pc.Sequence == nil && ft.AssignedSequence {
		return domain.ErrNoFiscalSequence
	}
	if ft.RequiresDocument && partner.VAT == "" {
		return fmt.Errorf("%w: contacto [%s] %s, tipo %s", domain.ErrMissingTaxpayerID, partner.ID, partner.Name, ft.Name)
	}
	if ft.RequiresDocument || FiscalInfoRequired(ft.Prefix) {
		if err := ValidatePartnerVAT(partner); err != nil {
			return fmt.Errorf("%w: contacto [%s] %s", err, partner.ID, partner.Name)
		}
	}
	if inv.MoveType.IsSale() &&
		inv.AmountUntaxed.GreaterThanOrEqual(decimal.NewFromInt(dgii.ConsumoThreshold)) &&
		ft.Prefix != dgii.NCFRegistroUnico && partner.VAT == "" {
		return fmt.Errorf("%w: facturas desde RD$250,000.00 exigen identificar al cliente", domain.ErrMissingTaxpayerID)
	}
	if err := validateExport(inv, ft, partner); err != nil {
		return err
	}
	if inv.OriginRef != "" && IsNote(inv) {
		if err := dgii.ValidateNCFFormat(inv.OriginRef); err != nil {
			return fmt.Errorf("%w: %s", domain.ErrInvalidNCF, inv.OriginRef)
		}
		if pc.Origin == nil {
			return fmt.Errorf("%w: %s no existe o no pertenece a %s", domain.ErrOriginNotFound, inv.OriginRef, partner.Name)
		}
		if days := DaysBetween(pc.Origin.InvoiceDate, inv.InvoiceDate); inv.MoveType.IsRefund() &&
			days > CreditNoteITBISDays && hasITBISLines(inv, c) {
			return fmt.Errorf("%w: %s tiene %d días", domain.ErrCreditNoteITBISAfter30Days, inv.OriginRef, days)
		}
	}
	return ValidateSingleWithholding(inv, c)
}

// IsNote indica si la factura es una nota de crédito o de débito que modifica otro comprobante.
func IsNote(inv *entity.Invoice) bool {
	return inv.MoveType.IsRefund() || inv.IsDebitNoteDocument()
}

// OriginMoveType tipo de documento que puede modificar la nota.
func OriginMoveType(inv *entity.Invoice) entity.MoveType {
	if inv.MoveType == entity.MoveInRefund || inv.MoveType == entity.MoveInInvoice {
		return entity.MoveInInvoice
	}
	return entity.MoveOutInvoice
}

// validateExport: ventas de bienes al exterior van con comprobante de exportación;
// solo servicios al exterior van con consumo.
func validateExport(inv *entity.Invoice, ft *entity.FiscalType, partner *entity.Partner) error {
	if inv.MoveType != entity.MoveOutInvoice || !partner.IsForeign() {
		return nil
	}
	goods := false
	for _, l := range inv.Lines {
		if !l.IsService() {
			goods = true
			break
		}
	}
	switch {
	case goods && ft.Prefix != dgii.NCFExportaciones && ft.Prefix != dgii.ECFExportaciones:
		return fmt.Errorf("%w: venta de bienes al exterior requiere Exportaciones", domain.ErrExportFiscalType)
	case !goods && ft.Prefix != dgii.NCFConsumo && ft.Prefix != dgii.ECFConsumo &&
		ft.Prefix != dgii.NCFExportaciones && ft.Prefix != dgii.ECFExportaciones:
		return fmt.Errorf("%w: servicios al exterior van con Consumo", domain.ErrExportFiscalType)
	}
	return nil
}

func hasITBISLines(inv *entity.Invoice, c Classifier) bool {
	for _, tl := range inv.TaxLines {
		if c.Category(tl.Tax) == entity.TaxCategoryITBIS {
			return true
		}
	}
	return false
}

// DaysBetween días calendario de from a to (negativo si to es anterior).
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// AfterCreditNoteWindow indica si la nota se emite más de 30 días después del original.
func AfterCreditNoteWindow(origin, note time.Time) bool {
	return DaysBetween(origin, note) > CreditNoteITBISDays
}

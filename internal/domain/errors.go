package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrUserNotFound = errors.New("usuario no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores de precondición fiscal: bloquean la acción y se muestran tal cual al usuario.
var (
	ErrNotElectronicDocument      = errors.New("el tipo de comprobante fiscal no es electrónico")
	ErrUnsupportedMoveType        = errors.New("tipo de documento no soportado para e-CF")
	ErrOriginNotFound             = errors.New("no se encontró el comprobante afectado (NCF modificado)")
	ErrNoFiscalSequence           = errors.New("no hay secuencia fiscal vigente para este tipo de comprobante")
	ErrZeroAmountInvoice          = errors.New("no se puede validar una factura con monto total cero")
	ErrMissingTaxpayerID          = errors.New("el cliente requiere RNC o Cédula para este comprobante")
	ErrInvalidNCF                 = errors.New("el NCF no tiene un formato válido")
	ErrInvalidTaxpayerID          = errors.New("el RNC o Cédula no es válido")
	ErrMultipleWithholding        = errors.New("una factura solo puede tener un tipo de retención")
	ErrCreditNoteITBISAfter30Days = errors.New("una nota de crédito emitida después de 30 días no puede llevar ITBIS")
	ErrExportFiscalType           = errors.New("el tipo de comprobante no corresponde a una venta al exterior")
	ErrInvoiceNotDraft            = errors.New("la factura no está en borrador")
	ErrInvoiceNotPosted           = errors.New("la factura no está validada")
	ErrAlreadySubmitted           = errors.New("el comprobante ya fue aceptado por la DGII")
)

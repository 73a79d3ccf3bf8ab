package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ecf-dgii/internal/application/dto"
	"github.com/jhoicas/ecf-dgii/internal/domain"
	"github.com/jhoicas/ecf-dgii/internal/infrastructure/ecf"
)

// Precondiciones fiscales: se muestran al usuario con el mensaje tal cual.
var preconditionErrors = []error{
	domain.ErrNotElectronicDocument,
	domain.ErrUnsupportedMoveType,
	domain.ErrOriginNotFound,
	domain.ErrNoFiscalSequence,
	domain.ErrZeroAmountInvoice,
	domain.ErrMissingTaxpayerID,
	domain.ErrInvalidNCF,
	domain.ErrInvalidTaxpayerID,
	domain.ErrMultipleWithholding,
	domain.ErrCreditNoteITBISAfter30Days,
	domain.ErrExportFiscalType,
}

var conflictErrors = []error{
	domain.ErrConflict,
	domain.ErrInvoiceNotDraft,
	domain.ErrInvoiceNotPosted,
	domain.ErrAlreadySubmitted,
}

// writeError traduce errores de dominio y del conector a respuestas HTTP.
func writeError(c *fiber.Ctx, err error) error {
	status, code, msg := fiber.StatusInternalServerError, "INTERNAL", err.Error()

	var pe *ecf.ProtocolError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrUnauthorized):
		status, code, msg = fiber.StatusUnauthorized, "UNAUTHORIZED", "credenciales inválidas"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case isAny(err, conflictErrors):
		status, code = fiber.StatusConflict, "CONFLICT"
	case isAny(err, preconditionErrors):
		status, code = fiber.StatusUnprocessableEntity, "FISCAL_PRECONDITION"
	case errors.As(err, &pe):
		status, code = fiber.StatusBadGateway, "ECF_TRANSPORT_ERROR"
		if pe.Stage == ecf.StageAuth {
			code = "ECF_AUTH_ERROR"
		}
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ecf-dgii/internal/application/dto"
)

// SequenceStatusReader estado de disponibilidad de secuencias de NCF.
type SequenceStatusReader interface {
	SequenceStatus(ctx context.Context, companyID, id string) (*dto.FiscalSequenceStatusResponse, error)
}

// FiscalSequenceHandler consulta de secuencias fiscales.
type FiscalSequenceHandler struct {
	reader SequenceStatusReader
}

// NewFiscalSequenceHandler construye el handler.
func NewFiscalSequenceHandler(reader SequenceStatusReader) *FiscalSequenceHandler {
	return &FiscalSequenceHandler{reader: reader}
}

// Status godoc
// @Summary      Disponibilidad de una secuencia de NCF
// @Description  Números restantes, vencimiento y si la secuencia cruzó el umbral de aviso.
// @Tags         fiscal-sequences
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la secuencia"
// @Success      200  {object}  dto.FiscalSequenceStatusResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/fiscal-sequences/{id}/status [get]
func (h *FiscalSequenceHandler) Status(c *fiber.Ctx) error {
	companyID, id, ok := scope(c)
	if !ok {
		return nil
	}
	out, err := h.reader.SequenceStatus(c.UserContext(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

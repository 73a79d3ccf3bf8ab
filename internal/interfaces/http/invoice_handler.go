package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ecf-dgii/internal/application/dto"
	"github.com/jhoicas/ecf-dgii/internal/application/einvoice"
	"github.com/jhoicas/ecf-dgii/internal/application/fiscal"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/internal/infrastructure/ecf"
)

// InvoiceReader consulta de facturas con totales fiscales.
type InvoiceReader interface {
	GetInvoice(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error)
}

// InvoicePoster valida facturas y asigna NCF.
type InvoicePoster interface {
	Post(ctx context.Context, companyID, invoiceID string) (*entity.Invoice, error)
}

// EInvoiceService construcción y envío de e-CF.
type EInvoiceService interface {
	Preview(ctx context.Context, companyID, invoiceID string) (*ecf.Payload, error)
	Submit(ctx context.Context, companyID, invoiceID string) (*entity.Invoice, error)
	QRImage(ctx context.Context, companyID, invoiceID string) ([]byte, error)
}

// InvoiceHandler maneja las peticiones HTTP de facturas fiscales (protegido).
type InvoiceHandler struct {
	reader   InvoiceReader
	poster   InvoicePoster
	einvoice EInvoiceService
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(reader InvoiceReader, poster InvoicePoster, einvoice EInvoiceService) *InvoiceHandler {
	return &InvoiceHandler{reader: reader, poster: poster, einvoice: einvoice}
}

// GetByID godoc
// @Summary      Consultar factura fiscal
// @Description  Factura con totales por impuesto, forma de pago, datos de reporte 606/607
//               y estado del e-CF.
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	companyID, id, ok := scope(c)
	if !ok {
		return nil
	}
	out, err := h.reader.GetInvoice(c.UserContext(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Post godoc
// @Summary      Validar y numerar factura
// @Description  Aplica las reglas de validación fiscal y asigna el siguiente NCF de la secuencia.
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la factura"
// @Success      200  {object}  dto.PostInvoiceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/post [post]
func (h *InvoiceHandler) Post(c *fiber.Ctx) error {
	companyID, id, ok := scope(c)
	if !ok {
		return nil
	}
	inv, err := h.poster.Post(c.UserContext(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.PostInvoiceResponse{
		ID:            inv.ID,
		State:         inv.State,
		NCF:           inv.Ref,
		NCFExpiration: inv.NCFExpirationDate,
	})
}

// Payload godoc
// @Summary      Vista previa del e-CF
// @Description  Construye el documento e-CF de la factura sin enviarlo a la DGII.
// @Tags         einvoice
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la factura"
// @Success      200  {object}  dto.PayloadResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/einvoice/payload [get]
func (h *InvoiceHandler) Payload(c *fiber.Ctx) error {
	companyID, id, ok := scope(c)
	if !ok {
		return nil
	}
	p, err := h.einvoice.Preview(c.UserContext(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.PayloadResponse{
		InvoiceID:  id,
		EmitterRNC: GetCompanyRNC(c),
		Payload:    json.RawMessage(p.JSON),
		Taxes:      fiscal.ToTaxTotalsResponse(p.Totals),
	})
}

// Submit godoc
// @Summary      Enviar e-CF a la DGII
// @Description  Construye, envía y registra el e-CF. Un rechazo de la DGII devuelve 422 con sus mensajes.
// @Tags         einvoice
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la factura"
// @Success      200  {object}  dto.SubmissionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.RejectionResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/einvoice [post]
func (h *InvoiceHandler) Submit(c *fiber.Ctx) error {
	companyID, id, ok := scope(c)
	if !ok {
		return nil
	}
	inv, err := h.einvoice.Submit(c.UserContext(), companyID, id)
	var rej *einvoice.RejectedError
	if errors.As(err, &rej) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.RejectionResponse{
			Code:     "ECF_REJECTED",
			Message:  rej.Error(),
			Status:   rej.Status,
			TrackID:  rej.TrackID,
			Messages: toDGIIMessages(rej.Messages),
		})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SubmissionResponse{
		InvoiceID: inv.ID,
		NCF:       inv.Ref,
		ECF:       fiscal.ToECFStatusResponse(inv),
	})
}

// QR godoc
// @Summary      Código QR del e-CF
// @Tags         einvoice
// @Security     Bearer
// @Produce      png
// @Param        id   path      string  true  "ID de la factura"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/einvoice/qr [get]
func (h *InvoiceHandler) QR(c *fiber.Ctx) error {
	companyID, id, ok := scope(c)
	if !ok {
		return nil
	}
	png, err := h.einvoice.QRImage(c.UserContext(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", qrFilename(GetCompanyRNC(c), id)))
	return c.Send(png)
}

// qrFilename nombre del PNG: RNC del emisor e id de la factura.
func qrFilename(rnc, id string) string {
	if rnc == "" {
		return "ecf_" + id + ".png"
	}
	return rnc + "_" + id + ".png"
}

// scope extrae empresa del token e id de la ruta. Si falta alguno deja escrita la
// respuesta 401/400 y devuelve ok=false.
func scope(c *fiber.Ctx) (companyID, id string, ok bool) {
	companyID = GetCompanyID(c)
	if companyID == "" {
		_ = c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
		return "", "", false
	}
	id = c.Params("id")
	if id == "" {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
		return "", "", false
	}
	return companyID, id, true
}

func toDGIIMessages(msgs []ecf.Message) []dto.DGIIMessage {
	out := make([]dto.DGIIMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, dto.DGIIMessage{Code: m.Code, Value: m.Value})
	}
	return out
}

package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ecf-dgii/internal/application/dto"
)

// PartnerService alta de contactos y comprobante sugerido.
type PartnerService interface {
	Create(ctx context.Context, companyID string, in dto.CreatePartnerRequest) (*dto.PartnerResponse, error)
	FiscalInfo(ctx context.Context, companyID, id string) (*dto.PartnerFiscalInfoResponse, error)
}

// PartnerHandler maneja las peticiones HTTP de contactos fiscales (protegido).
type PartnerHandler struct {
	svc PartnerService
}

// NewPartnerHandler construye el handler.
func NewPartnerHandler(svc PartnerService) *PartnerHandler {
	return &PartnerHandler{svc: svc}
}

// Create godoc
// @Summary      Crear contacto fiscal
// @Description  Valida el RNC/Cédula del contacto y devuelve el tipo de comprobante sugerido para sus ventas.
// @Tags         partners
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePartnerRequest  true  "name obligatorio; vat obligatorio para crédito fiscal"
// @Success      201   {object}  dto.PartnerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/partners [post]
func (h *PartnerHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreatePartnerRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.svc.Create(c.UserContext(), companyID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// FiscalInfo godoc
// @Summary      Comprobante sugerido para un contacto
// @Tags         partners
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del contacto"
// @Success      200  {object}  dto.PartnerFiscalInfoResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/partners/{id}/fiscal-info [get]
func (h *PartnerHandler) FiscalInfo(c *fiber.Ctx) error {
	companyID, id, ok := scope(c)
	if !ok {
		return nil
	}
	out, err := h.svc.FiscalInfo(c.UserContext(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/ecf-dgii/internal/application/auth"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	Invoices       InvoiceReader
	Poster         InvoicePoster
	EInvoice       EInvoiceService
	Sequences      SequenceStatusReader
	Partners       PartnerService
	MetricsHandler http.Handler // nil: sin /metrics
	Tokens         TokenVerifier
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.Tokens))
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleContador, entity.RoleFacturador)
	billing := RequireRole(entity.RoleAdmin, entity.RoleFacturador)

	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Invoices, deps.Poster, deps.EInvoice)
	invoices.Get("/:id", anyRole, invoiceHandler.GetByID)
	invoices.Post("/:id/post", billing, invoiceHandler.Post)
	invoices.Get("/:id/einvoice/payload", anyRole, invoiceHandler.Payload)
	invoices.Post("/:id/einvoice", billing, invoiceHandler.Submit)
	invoices.Get("/:id/einvoice/qr", anyRole, invoiceHandler.QR)

	sequences := protected.Group("/fiscal-sequences")
	sequenceHandler := NewFiscalSequenceHandler(deps.Sequences)
	sequences.Get("/:id/status", anyRole, sequenceHandler.Status)

	partners := protected.Group("/partners")
	partnerHandler := NewPartnerHandler(deps.Partners)
	partners.Post("/", billing, partnerHandler.Create)
	partners.Get("/:id/fiscal-info", anyRole, partnerHandler.FiscalInfo)
}

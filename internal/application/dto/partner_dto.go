package dto

import "time"

// CreatePartnerRequest body para POST /api/partners.
type CreatePartnerRequest struct {
	Name         string `json:"name"`
	VAT          string `json:"vat"` // RNC (9 dígitos), Cédula (11) o identificador extranjero
	ParentID     string `json:"parent_id"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Street       string `json:"street"`
	Street2      string `json:"street2"`
	City         string `json:"city"`
	ProvinceCode string `json:"province_code"`
	CountryCode  string `json:"country_code"` // vacío = DO
	IsCompany    bool   `json:"is_company"`
}

// PartnerResponse contacto fiscal con el comprobante sugerido para ventas.
type PartnerResponse struct {
	ID          string                    `json:"id"`
	CompanyID   string                    `json:"company_id"`
	ParentID    string                    `json:"parent_id,omitempty"`
	Name        string                    `json:"name"`
	VAT         string                    `json:"vat,omitempty"`
	Email       string                    `json:"email,omitempty"`
	Phone       string                    `json:"phone,omitempty"`
	Address     string                    `json:"address,omitempty"`
	CountryCode string                    `json:"country_code"`
	IsCompany   bool                      `json:"is_company"`
	Fiscal      PartnerFiscalInfoResponse `json:"fiscal"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// PartnerFiscalInfoResponse tipo de comprobante sugerido y estado del RNC/Cédula.
type PartnerFiscalInfoResponse struct {
	PartnerID           string `json:"partner_id"`
	SuggestedFiscalType string `json:"suggested_fiscal_type"` // B01, B02, B14, B15, B16
	FiscalInfoRequired  bool   `json:"fiscal_info_required"`
	VATValid            bool   `json:"vat_valid"`
	Message             string `json:"message,omitempty"`
}

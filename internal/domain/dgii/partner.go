package dgii

import (
	"errors"
	"strings"

	"github.com/jhoicas/ecf-dgii/internal/domain"
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/pkg/dgii"
)

// SuggestSaleFiscalType sugiere el tipo de comprobante de venta para un contacto.
// parentPrefix es el tipo del contacto padre, si existe.
func SuggestSaleFiscalType(p *entity.Partner, parentPrefix string) string {
	if p.IsForeign() {
		return dgii.NCFExportaciones
	}
	if p.ParentID != "" && parentPrefix != "" {
		return parentPrefix
	}
	name := strings.ToUpper(p.Name)
	if len(dgii.ExtractDigits(p.VAT)) == 9 && isAllDigits(p.VAT) {
		switch {
		case strings.Contains(name, "MINISTERIO"):
			return dgii.NCFGubernamental
		case strings.Contains(name, "IGLESIA"), strings.Contains(name, "ZONA FRANCA"):
			return dgii.NCFRegimenesEspeciales
		default:
			return dgii.NCFCreditoFiscal
		}
	}
	return dgii.NCFConsumo
}

// FiscalInfoRequired indica si el tipo sugerido exige datos fiscales del contacto.
func FiscalInfoRequired(prefix string) bool {
	switch prefix {
	case dgii.NCFCreditoFiscal, dgii.NCFRegimenesEspeciales, dgii.NCFGubernamental:
		return true
	}
	return false
}

// ValidatePartnerVAT exige que el RNC/Cédula de un contacto dominicano sea numérico y válido.
func ValidatePartnerVAT(p *entity.Partner) error {
	if p.VAT == "" || p.IsForeign() {
		return nil
	}
	if !isAllDigits(p.VAT) {
		return domain.ErrInvalidTaxpayerID
	}
	if err := dgii.ValidateTaxpayerID(p.VAT); err != nil {
		return errors.Join(domain.ErrInvalidTaxpayerID, err)
	}
	return nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

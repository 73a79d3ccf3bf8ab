package dgii

import (
	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/pkg/dgii"
)

// Métodos de pago derivados de las conciliaciones.
const (
	MethodCash       = "cash"
	MethodBank       = "bank"
	MethodCard       = "card"
	MethodCredit     = "credit"
	MethodSwap       = "swap"
	MethodCreditNote = "credit_note"
	MethodMixed      = "mixed"
)

var paymentFormCodes = map[string]string{
	MethodCash:       dgii.PaymentFormCash,
	MethodBank:       dgii.PaymentFormBank,
	MethodCard:       dgii.PaymentFormCard,
	MethodCredit:     dgii.PaymentFormCredit,
	MethodSwap:       dgii.PaymentFormSwap,
	MethodCreditNote: dgii.PaymentFormCreditNote,
	MethodMixed:      dgii.PaymentFormMixed,
}

// PaymentMethod clasifica cómo se saldó la factura: un único canal o "mixed".
// Devuelve "" si no hay conciliaciones.
func PaymentMethod(inv *entity.Invoice) string {
	methods := map[string]bool{}
	var last string
	for _, p := range inv.Payments {
		last = entryMethod(p)
		methods[last] = true
	}
	switch len(methods) {
	case 0:
		return ""
	case 1:
		return last
	default:
		return MethodMixed
	}
}

func entryMethod(p *entity.PaymentEntry) string {
	switch {
	case p.PaymentID != "":
		if p.JournalType != entity.PaymentFormCash && p.JournalType != entity.PaymentFormBank {
			return MethodCredit
		}
		switch p.PaymentForm {
		case entity.PaymentFormCash, entity.PaymentFormBank, entity.PaymentFormCard:
			return p.PaymentForm
		}
		return p.JournalType
	case p.MoveID != "":
		return MethodSwap
	default:
		return MethodCreditNote
	}
}

// PaymentForm código de forma de pago 606/607 (01..07). Si la factura no está pagada es "04".
func PaymentForm(inv *entity.Invoice) string {
	if !inv.IsPaid() {
		return dgii.PaymentFormCredit
	}
	if code, ok := paymentFormCodes[PaymentMethod(inv)]; ok {
		return code
	}
	return dgii.PaymentFormCredit
}

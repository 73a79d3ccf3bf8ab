package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una secuencia fiscal.
const (
	SequenceStateActive    = "active"
	SequenceStateExpired   = "expired"
	SequenceStateCancelled = "cancelled"
	SequenceStateDepleted  = "depleted"
)

// Estado de disponibilidad de la secuencia.
const (
	SequenceStatusOK       = "fiscal_ok"
	SequenceStatusAlmost   = "almost_no_sequence"
	SequenceStatusDepleted = "no_sequence"
	SequenceStatusNoFiscal = "no_fiscal"
)

// FiscalSequence representa un rango de NCF autorizado por la DGII.
type FiscalSequence struct {
	ID                string
	CompanyID         string
	FiscalTypeID      string
	Prefix            string
	SequenceStart     int64
	SequenceEnd       int64
	NextNumber        int64
	WarningPercentage int // porcentaje restante que dispara la alerta
	ExpirationDate    time.Time
	State             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Length cantidad total de números del rango.
func (s *FiscalSequence) Length() int64 {
	return s.SequenceEnd - s.SequenceStart + 1
}

// Remaining cantidad de números aún disponibles.
func (s *FiscalSequence) Remaining() int64 {
	r := s.SequenceEnd - s.NextNumber + 1
	if r < 0 {
		return 0
	}
	return r
}

// CanIssue indica si la secuencia puede emitir un número para la fecha dada.
func (s *FiscalSequence) CanIssue(date time.Time) bool {
	return s.State == SequenceStateActive && s.Remaining() > 0 && !dateOnly(s.ExpirationDate).Before(dateOnly(date))
}

// Status calcula la disponibilidad: porcentaje restante por encima del umbral, agotándose o agotada.
func (s *FiscalSequence) Status() string {
	if s == nil {
		return SequenceStatusNoFiscal
	}
	remaining := s.Remaining()
	if s.Length() <= 0 || remaining <= 0 {
		return SequenceStatusDepleted
	}
	pct := decimal.NewFromInt(remaining).Div(decimal.NewFromInt(s.Length())).Round(2).Mul(decimal.NewFromInt(100))
	if pct.GreaterThan(decimal.NewFromInt(int64(s.WarningPercentage))) {
		return SequenceStatusOK
	}
	return SequenceStatusAlmost
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

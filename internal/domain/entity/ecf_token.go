package entity

import "time"

// ECFToken token de acceso al conector e-CF con su vencimiento absoluto.
type ECFToken struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid indica si el token existe y no ha vencido en el instante dado.
func (t *ECFToken) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && now.Before(t.ExpiresAt)
}

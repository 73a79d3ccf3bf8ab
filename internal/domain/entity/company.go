package entity

import (
	"strings"
	"time"
)

// Company representa la empresa emisora de comprobantes (República Dominicana).
type Company struct {
	ID           string
	Name         string
	RNC          string // RNC del emisor, 9 dígitos
	Street       string
	Street2      string
	City         string
	Phone        string
	Email        string
	CurrencyCode string // moneda contable, normalmente DOP
	// Credenciales del conector e-CF. El token y su vencimiento se guardan aparte (TokenStore).
	ECFUsername string
	ECFPassword string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Address devuelve la dirección del emisor unida por ", " omitiendo partes vacías.
func (c *Company) Address() string {
	return JoinNonEmpty(", ", c.Street, c.Street2, c.City)
}

// HasECFCredentials indica si la empresa tiene usuario y contraseña del conector.
func (c *Company) HasECFCredentials() bool {
	return c.ECFUsername != "" && c.ECFPassword != ""
}

// JoinNonEmpty concatena las partes no vacías con el separador dado.
func JoinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

// Package jwt emite y verifica los tokens del API. Cada token identifica al usuario,
// a la empresa emisora (ID y RNC) y al rol con el que opera sobre los comprobantes.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSecret  = errors.New("jwt: secret vacío")
	ErrMissingTenant  = errors.New("jwt: el token no indica la empresa emisora")
	ErrMissingSubject = errors.New("jwt: el token no indica el usuario")
)

// Identity sujeto autenticado: usuario, empresa emisora y rol.
type Identity struct {
	UserID     string
	CompanyID  string
	CompanyRNC string
	Role       string // admin | contador | facturador
}

type claims struct {
	jwt.RegisteredClaims
	CompanyID  string `json:"cid"`
	CompanyRNC string `json:"rnc,omitempty"`
	Role       string `json:"role"`
}

// Signer firma y verifica tokens HS256 de un emisor.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner construye el firmador. ttl es la vigencia de cada token.
func NewSigner(secret, issuer string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Signer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// WithClock devuelve una copia con otro reloj.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

// Sign emite el token de la identidad y devuelve su vencimiento.
func (s *Signer) Sign(id Identity) (string, time.Time, error) {
	if id.UserID == "" {
		return "", time.Time{}, ErrMissingSubject
	}
	if id.CompanyID == "" {
		return "", time.Time{}, ErrMissingTenant
	}
	now := s.now()
	exp := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		CompanyID:  id.CompanyID,
		CompanyRNC: id.CompanyRNC,
		Role:       id.Role,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: firmar: %w", err)
	}
	return signed, exp, nil
}

// Verify valida firma, emisor y vencimiento y devuelve la identidad del token.
func (s *Signer) Verify(tokenString string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Identity{}, err
	}
	if c.Subject == "" {
		return Identity{}, ErrMissingSubject
	}
	if c.CompanyID == "" {
		return Identity{}, ErrMissingTenant
	}
	return Identity{
		UserID:     c.Subject,
		CompanyID:  c.CompanyID,
		CompanyRNC: c.CompanyRNC,
		Role:       c.Role,
	}, nil
}

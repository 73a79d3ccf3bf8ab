package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ecf-dgii/pkg/jwt"
)

func newSigner(t *testing.T, secret, issuer string) *jwt.Signer {
	t.Helper()
	s, err := jwt.NewSigner(secret, issuer, time.Hour)
	require.NoError(t, err)
	return s
}

var facturador = jwt.Identity{UserID: "u1", CompanyID: "c1", CompanyRNC: "131098193", Role: "facturador"}

func TestSigner_FirmaYVerificaIdentidad(t *testing.T) {
	s := newSigner(t, "secreto", "ecf-dgii")

	tok, exp, err := s.Sign(facturador)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	id, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, facturador, id)
}

func TestSigner_SinSecret(t *testing.T) {
	_, err := jwt.NewSigner("", "ecf-dgii", time.Hour)
	assert.ErrorIs(t, err, jwt.ErrMissingSecret)
}

func TestSigner_ExigeEmpresa(t *testing.T) {
	s := newSigner(t, "secreto", "ecf-dgii")
	_, _, err := s.Sign(jwt.Identity{UserID: "u1", Role: "admin"})
	assert.ErrorIs(t, err, jwt.ErrMissingTenant)

	// Token firmado con el mismo secret pero sin claim de empresa.
	raw := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"iss": "ecf-dgii", "sub": "u1", "role": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tok, err := raw.SignedString([]byte("secreto"))
	require.NoError(t, err)
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, jwt.ErrMissingTenant)
}

func TestSigner_TokenVencido(t *testing.T) {
	s := newSigner(t, "secreto", "ecf-dgii")
	past := s.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	tok, _, err := past.Sign(facturador)
	require.NoError(t, err)
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, gojwt.ErrTokenExpired)
}

func TestSigner_OtroEmisorUOtroSecret(t *testing.T) {
	tok, _, err := newSigner(t, "secreto", "otro-sistema").Sign(facturador)
	require.NoError(t, err)
	_, err = newSigner(t, "secreto", "ecf-dgii").Verify(tok)
	assert.ErrorIs(t, err, gojwt.ErrTokenInvalidIssuer)

	tok, _, err = newSigner(t, "secreto", "ecf-dgii").Sign(facturador)
	require.NoError(t, err)
	_, err = newSigner(t, "otro-secreto", "ecf-dgii").Verify(tok)
	assert.ErrorIs(t, err, gojwt.ErrTokenSignatureInvalid)
}

func TestSigner_RechazaAlgoritmoNone(t *testing.T) {
	raw := gojwt.NewWithClaims(gojwt.SigningMethodNone, gojwt.MapClaims{
		"iss": "ecf-dgii", "sub": "u1", "cid": "c1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tok, err := raw.SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newSigner(t, "secreto", "ecf-dgii").Verify(tok)
	assert.Error(t, err)
}

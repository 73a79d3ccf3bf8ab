package ecf

import (
	"errors"
	"fmt"
)

// Etapas del protocolo con el conector.
const (
	StageAuth    = "auth"
	StageProcess = "process"
)

// Tipos de fallo de protocolo.
const (
	KindCredentials = "credentials" // la empresa no tiene usuario o contraseña
	KindNetwork     = "network"     // error de conexión o timeout
	KindStatus      = "status"      // código HTTP inesperado
	KindDecode      = "decode"      // el cuerpo no es JSON válido
	KindShape       = "shape"       // JSON válido sin los campos esperados
)

// ProtocolError fallo de transporte o autenticación contra el conector e-CF.
type ProtocolError struct {
	Stage      string
	Kind       string
	StatusCode int
	Raw        string // cuerpo recibido, si lo hubo
	Err        error
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("ecf %s: %s", e.Stage, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsAuthError indica si el error es un fallo de autenticación con el conector.
func IsAuthError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe) && pe.Stage == StageAuth
}

var (
	errMissingCredentials = errors.New("credenciales e-CF no configuradas en la empresa")
	errMissingToken       = errors.New("la respuesta de autenticación no contiene accessToken/expiresIn")
	errInvalidExpiresIn   = errors.New("expiresIn inválido")
)

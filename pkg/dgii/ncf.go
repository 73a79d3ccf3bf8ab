package dgii

import (
	"fmt"
	"regexp"
)

var ncfPattern = regexp.MustCompile(`^(B(0[1-4]|1[1-7])\d{8}|E(3[1-4]|4[1-7])\d{10})$`)

// ValidateNCFFormat valida la estructura de un NCF (serie B, 11 caracteres) o e-NCF (serie E, 13).
func ValidateNCFFormat(ncf string) error {
	if !ncfPattern.MatchString(ncf) {
		return fmt.Errorf("dgii: NCF con formato inválido: %q", ncf)
	}
	return nil
}

// FormatNCF compone el NCF a partir del prefijo y el número de secuencia.
func FormatNCF(prefix string, number int64) string {
	if len(prefix) > 0 && prefix[0] == 'E' {
		return fmt.Sprintf("%s%010d", prefix, number)
	}
	return fmt.Sprintf("%s%08d", prefix, number)
}

// IsElectronicNCF indica si el NCF pertenece a la serie electrónica.
func IsElectronicNCF(ncf string) bool {
	return len(ncf) > 0 && ncf[0] == 'E'
}

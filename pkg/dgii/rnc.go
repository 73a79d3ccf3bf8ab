package dgii

import (
	"fmt"
	"unicode"
)

// pesos para el dígito verificador del RNC (8 primeros dígitos, de izquierda a derecha).
var rncWeights = [8]int{7, 9, 8, 6, 5, 4, 3, 2}

// ValidateRNC valida un RNC de 9 dígitos (con o sin guiones).
func ValidateRNC(rnc string) error {
	digits := ExtractDigits(rnc)
	if len(digits) != 9 {
		return fmt.Errorf("dgii: RNC debe tener 9 dígitos, se encontraron %d", len(digits))
	}
	expected := ComputeRNCCheckDigit(digits[:8])
	if digits[8] != expected {
		return fmt.Errorf("dgii: dígito verificador del RNC inválido: esperado %c, recibido %c", expected, digits[8])
	}
	return nil
}

// ComputeRNCCheckDigit calcula el dígito verificador para los 8 primeros dígitos del RNC.
func ComputeRNCCheckDigit(base []byte) byte {
	var sum int
	for i, d := range base[:8] {
		sum += int(d-'0') * rncWeights[i]
	}
	return byte('0' + (10-sum%11)%9 + 1)
}

// ValidateCedula valida una Cédula de identidad de 11 dígitos (algoritmo de Luhn).
func ValidateCedula(cedula string) error {
	digits := ExtractDigits(cedula)
	if len(digits) != 11 {
		return fmt.Errorf("dgii: Cédula debe tener 11 dígitos, se encontraron %d", len(digits))
	}
	if !luhnValid(digits) {
		return fmt.Errorf("dgii: dígito verificador de la Cédula inválido")
	}
	return nil
}

// ValidateTaxpayerID valida un RNC (9 dígitos) o una Cédula (11 dígitos).
func ValidateTaxpayerID(id string) error {
	switch len(ExtractDigits(id)) {
	case 9:
		return ValidateRNC(id)
	case 11:
		return ValidateCedula(id)
	default:
		return fmt.Errorf("dgii: identificación fiscal debe tener 9 u 11 dígitos")
	}
}

// IsLocalTaxpayerID indica si la cadena contiene 9 u 11 dígitos (RNC o Cédula).
func IsLocalTaxpayerID(id string) bool {
	n := len(ExtractDigits(id))
	return n == 9 || n == 11
}

func luhnValid(digits []byte) bool {
	var sum int
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if (len(digits)-1-i)%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

// ExtractDigits devuelve solo los dígitos ASCII de la cadena.
func ExtractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if r < 128 && unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}

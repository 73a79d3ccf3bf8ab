package ecf

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// qrSize lado en píxeles de la imagen del código QR.
const qrSize = 256

// RenderQR genera el PNG del código QR con la URL de consulta del e-CF.
func RenderQR(content string) ([]byte, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("ecf: codificar QR: %w", err)
	}
	scaled, err := barcode.Scale(code, qrSize, qrSize)
	if err != nil {
		return nil, fmt.Errorf("ecf: escalar QR: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("ecf: codificar PNG: %w", err)
	}
	return buf.Bytes(), nil
}

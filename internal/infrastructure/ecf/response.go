package ecf

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
)

// Decision decisión de negocio de la DGII sobre el comprobante.
type Decision string

const (
	DecisionAccepted    Decision = "accepted"
	DecisionConditional Decision = "conditionally_accepted"
	DecisionRejected    Decision = "rejected"
	DecisionUnknown     Decision = "unknown"
)

// dgiiZone hora de República Dominicana (UTC-4, sin horario de verano).
var dgiiZone = time.FixedZone("AST", -4*60*60)

var signatureLayouts = []string{
	"02-01-2006 15:04:05",
	"2006-01-02 15:04:05",
	"02-01-2006 15:04",
}

// Message mensaje devuelto por la DGII.
type Message struct {
	Code  string
	Value string
}

// Outcome resultado interpretado del procesamiento de un e-CF.
type Outcome struct {
	Decision     Decision
	Status       string // estado tal como lo devuelve el conector
	TrackID      string
	Code         string
	Messages     []Message
	QRURL        string
	QRImage      []byte // PNG; nil si no hubo URL o no pudo generarse
	SecurityCode string
	SignedAt     *time.Time
	Raw          []byte
}

// Accepted indica si la DGII aceptó el comprobante, total o condicionalmente.
func (o *Outcome) Accepted() bool {
	return o.Decision == DecisionAccepted || o.Decision == DecisionConditional
}

// ECFStatus estado a persistir en la factura.
func (o *Outcome) ECFStatus() string {
	switch o.Decision {
	case DecisionAccepted:
		return entity.ECFStatusAccepted
	case DecisionConditional:
		return entity.ECFStatusConditional
	case DecisionRejected:
		return entity.ECFStatusRejected
	}
	if o.Status != "" {
		return o.Status
	}
	return entity.ECFStatusError
}

// ErrorMessage resume los mensajes de la DGII ("codigo: valor; ...").
func (o *Outcome) ErrorMessage() string {
	parts := make([]string, 0, len(o.Messages))
	for _, m := range o.Messages {
		parts = append(parts, m.Code+": "+m.Value)
	}
	if len(parts) == 0 {
		if o.Status == "" {
			return "respuesta de la DGII sin estado"
		}
		return "estado DGII: " + o.Status
	}
	return strings.Join(parts, "; ")
}

// ── Decodificación ────────────────────────────────────────────────────────────

// flexString acepta string o número JSON.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type processResponse struct {
	Estado          string          `json:"estado"`
	TrackID         flexString      `json:"trackId"`
	Codigo          flexString      `json:"codigo"`
	Mensajes        json.RawMessage `json:"mensajes"`
	QR              string          `json:"QR"`
	CodigoSeguridad string          `json:"CodigoSeguridad"`
	FechaHoraFirma  string          `json:"FechaHoraFirma"`
}

type processMessage struct {
	Codigo flexString `json:"codigo"`
	Valor  string     `json:"valor"`
}

// Interpret valida la respuesta del endpoint de procesamiento y la convierte en un Outcome.
// Un estado ausente o desconocido produce DecisionUnknown; un JSON inválido, un *ProtocolError.
func Interpret(raw []byte) (*Outcome, error) {
	var resp processResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &ProtocolError{Stage: StageProcess, Kind: KindDecode, Raw: string(raw), Err: err}
	}

	o := &Outcome{
		Decision:     decisionOf(resp.Estado),
		Status:       strings.TrimSpace(resp.Estado),
		TrackID:      string(resp.TrackID),
		Code:         string(resp.Codigo),
		Messages:     decodeMessages(resp.Mensajes),
		QRURL:        strings.TrimSpace(resp.QR),
		SecurityCode: resp.CodigoSeguridad,
		SignedAt:     parseSignatureTime(resp.FechaHoraFirma),
		Raw:          raw,
	}
	if o.QRURL != "" {
		if img, err := RenderQR(o.QRURL); err == nil {
			o.QRImage = img
		}
	}
	return o, nil
}

func decisionOf(estado string) Decision {
	switch strings.ToLower(strings.TrimSpace(estado)) {
	case "aceptado":
		return DecisionAccepted
	case "aceptado condicional":
		return DecisionConditional
	case "rechazado":
		return DecisionRejected
	}
	return DecisionUnknown
}

// decodeMessages ignora elementos que no sean objetos; código ausente = "UNKNOWN".
func decodeMessages(raw json.RawMessage) []Message {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]Message, 0, len(items))
	for _, item := range items {
		var m processMessage
		if !strings.HasPrefix(strings.TrimSpace(string(item)), "{") || json.Unmarshal(item, &m) != nil {
			continue
		}
		code := string(m.Codigo)
		if code == "" {
			code = "UNKNOWN"
		}
		out = append(out, Message{Code: code, Value: m.Valor})
	}
	return out
}

func parseSignatureTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range signatureLayouts {
		if t, err := time.ParseInLocation(layout, s, dgiiZone); err == nil {
			return &t
		}
	}
	return nil
}

// parseExpiresIn acepta segundos como número o texto ("3600", "3600.0").
func parseExpiresIn(v flexString) (time.Duration, bool) {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, n > 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return time.Duration(f) * time.Second, true
}

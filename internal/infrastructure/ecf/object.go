// Package ecf implementa la construcción del JSON del comprobante fiscal electrónico (e-CF)
// y el cliente HTTP del conector de la DGII (República Dominicana).
package ecf

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Member par clave/valor de un Object.
type Member struct {
	Key   string
	Value any
}

// Object objeto JSON que conserva el orden de inserción de sus claves.
// Los valores admitidos son string, nil, Object y []Object.
type Object []Member

// Get devuelve el valor de la clave y si existe.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// GetString devuelve el valor string de la clave; "" si no existe o no es string.
func (o Object) GetString(key string) string {
	v, _ := o.Get(key)
	s, _ := v.(string)
	return s
}

// GetObject devuelve el sub-objeto de la clave; nil si no existe.
func (o Object) GetObject(key string) Object {
	v, _ := o.Get(key)
	sub, _ := v.(Object)
	return sub
}

// Prune elimina recursivamente las claves con nil, "", listas vacías u objetos vacíos.
// Los montos en cero ("0.00") se conservan.
func Prune(o Object) Object {
	out := make(Object, 0, len(o))
	for _, m := range o {
		if v, keep := pruneValue(m.Value); keep {
			out = append(out, Member{Key: m.Key, Value: v})
		}
	}
	return out
}

func pruneValue(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		return t, t != ""
	case Object:
		p := Prune(t)
		return p, len(p) > 0
	case []Object:
		items := make([]Object, 0, len(t))
		for _, item := range t {
			if p := Prune(item); len(p) > 0 {
				items = append(items, p)
			}
		}
		return items, len(items) > 0
	default:
		return v, true
	}
}

// MarshalJSON serializa en orden de inserción sin escapar HTML.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := o.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o Object) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeScalar(buf, m.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeValue(buf, m.Value); err != nil {
			return fmt.Errorf("ecf: clave %q: %w", m.Key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case Object:
		return t.encode(buf)
	case []Object:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		return encodeScalar(buf, v)
	}
}

func encodeScalar(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

// Serialize poda el documento y lo serializa de forma determinista.
func Serialize(doc Object) ([]byte, error) {
	return Prune(doc).MarshalJSON()
}

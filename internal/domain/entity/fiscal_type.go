package entity

// FiscalType representa un tipo de comprobante fiscal (B01, E31, ...).
type FiscalType struct {
	ID               string
	CompanyID        string
	Name             string
	Prefix           string // "B01", "E31", ...
	DocumentType     string // out_invoice, out_refund, in_invoice, in_refund, out_debit, in_debit
	AssignedSequence bool   // el NCF lo asigna una secuencia; si no, lo digita el usuario
	RequiresDocument bool   // exige RNC o Cédula del contacto
	IsElectronic     bool
	Active           bool
}

// ECFCode devuelve el tipo e-CF sin el prefijo "E" (ej: "E31" -> "31").
func (f *FiscalType) ECFCode() string {
	if len(f.Prefix) > 0 && (f.Prefix[0] == 'E' || f.Prefix[0] == 'B') {
		return f.Prefix[1:]
	}
	return f.Prefix
}

package entity

import "time"

// Partner representa un cliente o proveedor (contacto fiscal).
type Partner struct {
	ID           string
	CompanyID    string
	ParentID     string   // empresa padre cuando el contacto es una sucursal o persona
	ChildIDs     []string // contactos hijos, se cargan bajo demanda
	Name         string
	VAT          string // RNC, Cédula o identificador extranjero
	Email        string
	Phone        string
	Street       string
	Street2      string
	City         string
	ProvinceCode string // código de provincia DGII
	CountryCode  string // ISO 3166-1 alfa-2; "DO" para contribuyentes locales
	IsCompany    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Address devuelve la dirección del contacto unida por ", ".
func (p *Partner) Address() string {
	return JoinNonEmpty(", ", p.Street, p.Street2, p.City)
}

// Contact devuelve "nombre | teléfono" omitiendo partes vacías.
func (p *Partner) Contact() string {
	return JoinNonEmpty(" | ", p.Name, p.Phone)
}

// IsForeign indica si el contacto pertenece a otro país.
func (p *Partner) IsForeign() bool {
	return p.CountryCode != "" && p.CountryCode != "DO"
}

// FamilyIDs devuelve el propio ID, el padre y los hijos (sin vacíos ni duplicados).
func (p *Partner) FamilyIDs() []string {
	seen := map[string]bool{}
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	add(p.ID)
	add(p.ParentID)
	for _, id := range p.ChildIDs {
		add(id)
	}
	return out
}

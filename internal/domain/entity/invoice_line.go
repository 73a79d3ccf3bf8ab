package entity

import "github.com/shopspring/decimal"

// Tipos de producto.
const (
	ProductTypeService    = "service"
	ProductTypeConsumable = "consu"
	ProductTypeStorable   = "product"
)

// InvoiceLine representa una línea de detalle de una factura.
type InvoiceLine struct {
	ID          string
	InvoiceID   string
	Name        string
	ProductID   string // vacío: línea libre, se trata como servicio
	ProductName string
	ProductType string
	Quantity    decimal.Decimal
	PriceUnit   decimal.Decimal
	Subtotal    decimal.Decimal // sin impuestos, en moneda de la factura
	UoMCode     int             // código de unidad de medida DGII; 0 = sin unidad
	Taxes       []*Tax
}

// IsService indica si la línea es un servicio (sin producto se asume servicio).
func (l *InvoiceLine) IsService() bool {
	return l.ProductID == "" || l.ProductType == ProductTypeService
}

// ItemName devuelve el nombre del producto o, si no hay, la descripción de la línea.
func (l *InvoiceLine) ItemName() string {
	if l.ProductName != "" {
		return l.ProductName
	}
	return l.Name
}

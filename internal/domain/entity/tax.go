package entity

import "github.com/shopspring/decimal"

// TaxCategory clasifica un impuesto para los reportes y el e-CF de la DGII.
type TaxCategory string

const (
	TaxCategoryITBIS  TaxCategory = "itbis"  // ITBIS facturado
	TaxCategoryRITBIS TaxCategory = "ritbis" // ITBIS retenido
	TaxCategoryISR    TaxCategory = "isr"    // ISR retenido
	TaxCategoryISC    TaxCategory = "isc"    // Impuesto selectivo al consumo
	TaxCategoryTip    TaxCategory = "tip"    // Propina legal
	TaxCategoryOther  TaxCategory = "other"  // Otros impuestos
	TaxCategoryRExt   TaxCategory = "rext"   // Pagos al exterior (Ley 253-12)
	TaxCategoryNone   TaxCategory = "none"   // No deducible
)

// Valid indica si la categoría es una de las conocidas.
func (c TaxCategory) Valid() bool {
	switch c {
	case TaxCategoryITBIS, TaxCategoryRITBIS, TaxCategoryISR, TaxCategoryISC,
		TaxCategoryTip, TaxCategoryOther, TaxCategoryRExt, TaxCategoryNone:
		return true
	}
	return false
}

// IsWithholding indica si la categoría es una retención (ISR o ITBIS retenido).
func (c TaxCategory) IsWithholding() bool {
	return c == TaxCategoryISR || c == TaxCategoryRITBIS
}

// Tipos de retención de ISR (formato 606).
const (
	ISRReasonRentals         = "01" // Alquileres
	ISRReasonServices        = "02" // Honorarios por servicios
	ISRReasonOtherIncome     = "03" // Otras rentas
	ISRReasonPresumedIncome  = "04" // Rentas presuntas
	ISRReasonInterestLegal   = "05" // Intereses pagados a personas jurídicas
	ISRReasonInterestNatural = "06" // Intereses pagados a personas físicas
	ISRReasonStateSuppliers  = "07" // Retención por proveedores del Estado
	ISRReasonGames           = "08" // Juegos telefónicos
)

// Códigos de indicador de facturación (eTax) más usados.
const (
	ETaxRate18 = 1
	ETaxRate16 = 2
	ETaxRate0  = 3
	ETaxExempt = 4
)

// Tax representa un impuesto aplicable a líneas de factura.
type Tax struct {
	ID           string
	CompanyID    string
	Name         string
	Category     TaxCategory
	Rate         decimal.Decimal // porcentaje: 18 = 18 %; negativo para retenciones
	ISRReason    string          // solo para Category == isr
	ETax         int             // indicador de facturación e-CF (1=18 %, 2=16 %, 3=0 %, 4=exento)
	Exempt       bool
	DGIICode     string // código DGII; 6..39 identifican los ISC específicos
	PriceInclude bool
}

// AmountOn devuelve el monto del impuesto sobre una base (base * tasa / 100), sin redondear.
func (t *Tax) AmountOn(base decimal.Decimal) decimal.Decimal {
	return base.Mul(t.Rate).Div(decimal.NewFromInt(100))
}

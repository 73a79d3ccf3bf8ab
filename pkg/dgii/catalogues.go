// Package dgii contiene catálogos y validaciones de la Dirección General de
// Impuestos Internos (República Dominicana) para comprobantes fiscales.
package dgii

// =============================================================================
// Tipos de comprobante fiscal (NCF) y comprobante fiscal electrónico (e-CF)
// =============================================================================

const (
	NCFCreditoFiscal       = "B01" // Factura de crédito fiscal
	NCFConsumo             = "B02" // Factura de consumo
	NCFNotaDebito          = "B03" // Nota de débito
	NCFNotaCredito         = "B04" // Nota de crédito
	NCFCompras             = "B11" // Comprobante de compras
	NCFRegistroUnico       = "B12" // Registro único de ingresos
	NCFGastosMenores       = "B13" // Gastos menores
	NCFRegimenesEspeciales = "B14" // Regímenes especiales
	NCFGubernamental       = "B15" // Comprobante gubernamental
	NCFExportaciones       = "B16" // Comprobante para exportaciones
	NCFPagosExterior       = "B17" // Pagos al exterior

	ECFCreditoFiscal       = "E31"
	ECFConsumo             = "E32"
	ECFNotaDebito          = "E33"
	ECFNotaCredito         = "E34"
	ECFCompras             = "E41"
	ECFGastosMenores       = "E43"
	ECFRegimenesEspeciales = "E44"
	ECFGubernamental       = "E45"
	ECFExportaciones       = "E46"
	ECFPagosExterior       = "E47"
)

// FiscalTypeInfo describe un tipo de comprobante del catálogo.
type FiscalTypeInfo struct {
	Prefix           string
	Name             string
	DocumentType     string // out_invoice, out_refund, in_invoice, in_refund, out_debit, in_debit
	AssignedSequence bool
	RequiresDocument bool
}

// FiscalTypes catálogo de tipos de comprobante en orden de presentación.
var FiscalTypes = []FiscalTypeInfo{
	{NCFCreditoFiscal, "Crédito Fiscal", "out_invoice", true, true},
	{NCFConsumo, "Consumo", "out_invoice", true, false},
	{NCFNotaDebito, "Nota de Débito", "out_debit", true, false},
	{NCFNotaCredito, "Nota de Crédito", "out_refund", true, false},
	{NCFCompras, "Comprobante de Compras", "in_invoice", true, true},
	{NCFRegistroUnico, "Registro Único de Ingresos", "out_invoice", true, false},
	{NCFGastosMenores, "Gastos Menores", "in_invoice", true, false},
	{NCFRegimenesEspeciales, "Regímenes Especiales", "out_invoice", true, true},
	{NCFGubernamental, "Gubernamental", "out_invoice", true, true},
	{NCFExportaciones, "Exportaciones", "out_invoice", true, false},
	{NCFPagosExterior, "Pagos al Exterior", "in_invoice", true, false},
	{ECFCreditoFiscal, "e-CF Crédito Fiscal", "out_invoice", true, true},
	{ECFConsumo, "e-CF Consumo", "out_invoice", true, false},
	{ECFNotaDebito, "e-CF Nota de Débito", "out_debit", true, false},
	{ECFNotaCredito, "e-CF Nota de Crédito", "out_refund", true, false},
	{ECFCompras, "e-CF Compras", "in_invoice", true, true},
	{ECFGastosMenores, "e-CF Gastos Menores", "in_invoice", true, false},
	{ECFRegimenesEspeciales, "e-CF Regímenes Especiales", "out_invoice", true, true},
	{ECFGubernamental, "e-CF Gubernamental", "out_invoice", true, true},
	{ECFExportaciones, "e-CF Exportaciones", "out_invoice", true, false},
	{ECFPagosExterior, "e-CF Pagos al Exterior", "in_invoice", true, false},
}

// =============================================================================
// Códigos de e-CF (TipoeCF)
// =============================================================================

const (
	ECFTypeCreditoFiscal = "31"
	ECFTypeConsumo       = "32"
	ECFTypeNotaDebito    = "33"
	ECFTypeNotaCredito   = "34"
	ECFTypeCompras       = "41"
)

// ConsumoThreshold monto a partir del cual un e-CF de consumo se envía completo
// y el comprador debe identificarse.
const ConsumoThreshold = 250000

// =============================================================================
// Formas de pago (formatos 606/607)
// =============================================================================

const (
	PaymentFormCash       = "01" // Efectivo
	PaymentFormBank       = "02" // Cheque / transferencia / depósito
	PaymentFormCard       = "03" // Tarjeta crédito / débito
	PaymentFormCredit     = "04" // Compra a crédito
	PaymentFormSwap       = "05" // Permuta
	PaymentFormCreditNote = "06" // Nota de crédito
	PaymentFormMixed      = "07" // Mixto
)

// =============================================================================
// Forma de pago del e-CF (FormaPago en FormasDePago)
// =============================================================================

const (
	ECFPaymentCash       = "1" // Efectivo
	ECFPaymentBank       = "2" // Cheque / transferencia / depósito
	ECFPaymentCard       = "3" // Tarjeta
	ECFPaymentCredit     = "4" // Venta a crédito
	ECFPaymentSwap       = "6" // Permuta
	ECFPaymentCreditNote = "7" // Nota de crédito
	ECFPaymentOther      = "8" // Otras formas de pago
)

// ECFPaymentForms traduce la forma de pago 606/607 al código del e-CF.
var ECFPaymentForms = map[string]string{
	PaymentFormCash:       ECFPaymentCash,
	PaymentFormBank:       ECFPaymentBank,
	PaymentFormCard:       ECFPaymentCard,
	PaymentFormCredit:     ECFPaymentCredit,
	PaymentFormSwap:       ECFPaymentSwap,
	PaymentFormCreditNote: ECFPaymentCreditNote,
	PaymentFormMixed:      ECFPaymentOther,
}

// =============================================================================
// Tipo de pago del e-CF (TipoPago)
// =============================================================================

const (
	PaymentTypeCash   = "1" // Contado
	PaymentTypeCredit = "2" // Crédito
	PaymentTypeFree   = "3" // Gratuito
)

// =============================================================================
// Códigos de modificación para notas (CodigoModificacion)
// =============================================================================

const (
	ModificationCancel      = "1" // Anula el NCF modificado
	ModificationTextFix     = "2" // Corrige texto del comprobante
	ModificationAmountFix   = "3" // Corrige montos del NCF modificado
	ModificationReplacement = "4" // Reemplazo de NCF emitido en contingencia
	ModificationReference   = "5" // Referencia factura consumo electrónica
)

// DefaultModificationReason razón usada cuando la nota no trae una.
const DefaultModificationReason = "Anula el NCF modificado"

// Tipos de ingresos (TipoIngresos).
const (
	IncomeOperations = "01" // Ingresos por operaciones (no financieros)
	IncomeFinancial  = "02" // Ingresos financieros
	IncomeExtraord   = "03" // Ingresos extraordinarios
	IncomeLeases     = "04" // Ingresos por arrendamientos
	IncomeAssetSale  = "05" // Ingresos por venta de activo depreciable
	IncomeOther      = "06" // Otros ingresos
)

// Indicadores de facturación por tasa de ITBIS.
const (
	ITBISRate1 = "18"
	ITBISRate2 = "16"
	ITBISRate3 = "0"
)

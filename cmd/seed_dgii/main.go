// seed_dgii genera el script SQL con el catálogo de tipos de comprobante (NCF y e-CF)
// y las plantillas de impuestos dominicanos (ITBIS, retenciones, ISC y propina).
//
// Uso: go run ./cmd/seed_dgii [company_id]
// Sin company_id los registros quedan como catálogo común (company_id NULL).
// Escribe: internal/infrastructure/postgres/migrations/002_seed_dgii.sql
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/ecf-dgii/internal/domain/entity"
	"github.com/jhoicas/ecf-dgii/pkg/dgii"
)

// Espacio de nombres para IDs deterministas: regenerar el script no duplica filas.
var seedNamespace = uuid.MustParse("6f1d2a8e-4b7c-5e90-a1d3-2c4b6e8f0a1b")

type taxTemplate struct {
	name      string
	category  entity.TaxCategory
	rate      string
	isrReason string
	eTax      int
	exempt    bool
	dgiiCode  string
}

var taxTemplates = []taxTemplate{
	{"ITBIS 18%", entity.TaxCategoryITBIS, "18", "", entity.ETaxRate18, false, ""},
	{"ITBIS 16%", entity.TaxCategoryITBIS, "16", "", entity.ETaxRate16, false, ""},
	{"ITBIS 0%", entity.TaxCategoryITBIS, "0", "", entity.ETaxRate0, false, ""},
	{"Exento", entity.TaxCategoryITBIS, "0", "", entity.ETaxExempt, true, ""},
	{"Retención ITBIS 30%", entity.TaxCategoryRITBIS, "-5.4", "", 0, false, ""},
	{"Retención ITBIS 100%", entity.TaxCategoryRITBIS, "-18", "", 0, false, ""},
	{"Retención ISR Alquileres 10%", entity.TaxCategoryISR, "-10", entity.ISRReasonRentals, 0, false, ""},
	{"Retención ISR Honorarios 10%", entity.TaxCategoryISR, "-10", entity.ISRReasonServices, 0, false, ""},
	{"Retención ISR Otras Rentas 2%", entity.TaxCategoryISR, "-2", entity.ISRReasonOtherIncome, 0, false, ""},
	{"Retención ISR Proveedores del Estado 5%", entity.TaxCategoryISR, "-5", entity.ISRReasonStateSuppliers, 0, false, ""},
	{"Retención ISR Exterior 27%", entity.TaxCategoryRExt, "-27", "", 0, false, ""},
	{"Contribución Desarrollo Telecomunicaciones 2%", entity.TaxCategoryOther, "2", "", 0, false, "2"},
	{"Servicios de Seguros 16%", entity.TaxCategoryOther, "16", "", 0, false, "3"},
	{"ISC Ad Valorem Alcoholes 10%", entity.TaxCategoryISC, "10", "", 0, false, "23"},
	{"Propina Legal 10%", entity.TaxCategoryTip, "10", "", 0, false, ""},
}

func main() {
	companySQL := "NULL"
	scope := "catálogo común"
	if len(os.Args) > 1 {
		id, err := uuid.Parse(strings.TrimSpace(os.Args[1]))
		if err != nil {
			fmt.Fprintf(os.Stderr, "company_id inválido: %v\n", err)
			os.Exit(1)
		}
		companySQL = "'" + id.String() + "'"
		scope = "empresa " + id.String()
	}

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "002_seed_dgii.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	fmt.Fprintf(out, "-- Catálogo DGII: tipos de comprobante e impuestos (%s)\n", scope)
	out.WriteString("-- Generado por cmd/seed_dgii\n\n")

	out.WriteString("-- 1. Tipos de comprobante\n")
	out.WriteString("INSERT INTO fiscal_types (id, company_id, name, prefix, document_type, assigned_sequence, requires_document, is_electronic, active) VALUES\n")
	for i, ft := range dgii.FiscalTypes {
		id := uuid.NewSHA1(seedNamespace, []byte(companySQL+"/fiscal_type/"+ft.Prefix))
		fmt.Fprintf(out, "  ('%s', %s, '%s', '%s', '%s', %t, %t, %t, TRUE)%s\n",
			id, companySQL, escapeSQL(ft.Name), ft.Prefix, ft.DocumentType,
			ft.AssignedSequence, ft.RequiresDocument, strings.HasPrefix(ft.Prefix, "E"),
			separator(i, len(dgii.FiscalTypes)))
	}
	out.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, document_type = EXCLUDED.document_type;\n\n")

	out.WriteString("-- 2. Impuestos\n")
	out.WriteString("INSERT INTO taxes (id, company_id, name, category, rate, isr_reason, e_tax, exempt, dgii_code, price_include) VALUES\n")
	for i, t := range taxTemplates {
		id := uuid.NewSHA1(seedNamespace, []byte(companySQL+"/tax/"+t.name))
		fmt.Fprintf(out, "  ('%s', %s, '%s', '%s', %s, %s, %d, %t, %s, FALSE)%s\n",
			id, companySQL, escapeSQL(t.name), t.category, t.rate,
			nullable(t.isrReason), t.eTax, t.exempt, nullable(t.dgiiCode),
			separator(i, len(taxTemplates)))
	}
	out.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, rate = EXCLUDED.rate;\n")

	fmt.Printf("Generado %s: %d tipos de comprobante, %d impuestos\n", outPath, len(dgii.FiscalTypes), len(taxTemplates))
}

func separator(i, n int) string {
	if i < n-1 {
		return ","
	}
	return ""
}

func nullable(s string) string {
	if s == "" {
		return "NULL"
	}
	return "'" + escapeSQL(s) + "'"
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

package infra

// pdf.go: maintenance service sheet rendered with go-pdf/fpdf.
// A4 portrait with:
//   - equipment / client header
//   - maintenance date, category, technician
//   - description block
//   - parts table (item, quantity, unit cost, line total)
//   - labor and total cost

import (
	"bytes"
	"fmt"

	"maintrack/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateMaintenanceSheet renders a service sheet for rec. The record must be
// loaded with Equipment (and its Client), Technician and PartsUsed.Item.
func GenerateMaintenanceSheet(rec *model.MaintenanceHistory) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr("Maintenance Service Sheet"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Record "+rec.ID.String(), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	label := func(k, v string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, tr(k), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(contentW-40, 6, tr(v), "", 1, "L", false, 0, "")
	}

	// ── Equipment ────────────────────────────────────────────────────────────
	if eq := rec.Equipment; eq != nil {
		label("Equipment:", eq.Code+" - "+eq.Model)
		label("Location:", eq.Location)
		if eq.Client != nil {
			label("Client:", eq.Client.Name)
		}
	}
	label("Date:", rec.MaintenanceDate.Format("2006-01-02"))
	label("Category:", string(rec.Category))
	if rec.Technician != nil {
		label("Technician:", rec.Technician.Name)
	}
	pdf.Ln(3)

	// ── Description ──────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, "Description", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(contentW, 5, tr(rec.Description), "", "L", false)
	pdf.Ln(3)

	// ── Parts ────────────────────────────────────────────────────────────────
	partsTotal := decimal.Zero
	if len(rec.PartsUsed) > 0 {
		col1 := contentW * 0.50
		col2 := contentW * 0.12
		col3 := contentW * 0.19
		col4 := contentW * 0.19

		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(col1, 6, "Item", "B", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, "Qty", "B", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 6, "Unit cost", "B", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, "Total", "B", 1, "R", false, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		for _, p := range rec.PartsUsed {
			name := p.StockItemID.String()
			unit := decimal.Zero
			if p.Item != nil {
				name = p.Item.Name
				unit = p.Item.UnitCostOrZero()
			}
			line := unit.Mul(decimal.NewFromInt(int64(p.QuantityUsed)))
			partsTotal = partsTotal.Add(line)
			pdf.CellFormat(col1, 5, tr(name), "", 0, "L", false, 0, "")
			pdf.CellFormat(col2, 5, fmt.Sprintf("%d", p.QuantityUsed), "", 0, "C", false, 0, "")
			pdf.CellFormat(col3, 5, unit.StringFixed(2), "", 0, "R", false, 0, "")
			pdf.CellFormat(col4, 5, line.StringFixed(2), "", 1, "R", false, 0, "")
		}
		pdf.Ln(2)
	}

	// ── Totals ───────────────────────────────────────────────────────────────
	// Unit costs may have changed since the record was written; the persisted
	// cost is authoritative, the parts table is informational.
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW*0.8, 6, "Labor:", "", 0, "R", false, 0, "")
	pdf.CellFormat(contentW*0.2, 6, rec.LaborCost.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW*0.8, 7, "TOTAL:", "", 0, "R", false, 0, "")
	pdf.CellFormat(contentW*0.2, 7, rec.Cost.StringFixed(2), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render sheet: %w", err)
	}
	return buf.Bytes(), nil
}

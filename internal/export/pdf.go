package export

import (
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"

	"github.com/yourorg/wandermate/pkg/types"
)

// RenderPDF writes an A4 document with one section per day.
func RenderPDF(w io.Writer, meta Meta, days []types.ParsedDay) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(meta.Title(), true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 12, tr(meta.Title()), "", 1, "C", false, 0, "")
	if dates := meta.DateRange(); dates != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 8, tr(dates), "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	for _, day := range days {
		pdf.SetFont("Arial", "B", 15)
		pdf.SetFillColor(232, 240, 254)
		heading := fmt.Sprintf("Day %d", day.DayNum)
		if day.Title != "" {
			heading += ": " + day.Title
		}
		pdf.CellFormat(0, 10, tr(heading), "", 1, "L", true, 0, "")
		pdf.Ln(2)

		for _, block := range day.Times {
			if block.Time != "" {
				pdf.SetFont("Arial", "B", 12)
				pdf.CellFormat(0, 8, tr(block.Time), "", 1, "L", false, 0, "")
			}
			pdf.SetFont("Arial", "", 11)
			for _, item := range block.Items {
				text := item.Content
				if item.Type == types.ItemActivity {
					text = "- " + text
				}
				pdf.SetX(26)
				pdf.MultiCell(0, 6, tr(text), "", "L", false)
			}
			pdf.Ln(2)
		}
		pdf.Ln(4)
	}

	pdf.SetY(-25)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 8, "Generated by WanderMate", "T", 0, "C", false, 0, "")

	return pdf.Output(w)
}

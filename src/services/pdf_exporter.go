// backend/src/services/pdf_exporter.go
package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMarginMM    = 15.0
	pdfRowHeightMM = 7.0
	pdfIndentMM    = 6.0
	pdfAmountColMM = 45.0
)

// RenderStatementPDF lays out the statement lines as a single-column A4 report.
func RenderStatementPDF(st RenderedStatement, companyName string, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMarginMM, pdfMarginMM, pdfMarginMM)
	pdf.SetAutoPageBreak(true, pdfMarginMM)
	pdf.SetTitle(st.Kind.Title(), true)
	pdf.SetCreator("Ledgerview", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 2*pdfMarginMM

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentWidth, 10, tr(st.Kind.Title()), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	if companyName != "" {
		pdf.CellFormat(contentWidth, 5, tr(companyName), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentWidth, 5, tr(fmt.Sprintf("Bank: %s   As of: %s   Generated: %s",
		st.BankID, st.AsOf.UTC().Format("2006-01-02"), generatedAt.UTC().Format(time.RFC3339))), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, line := range st.Lines {
		style := ""
		border := ""
		if line.IsSubTotal || line.IsTotal {
			style = "B"
			border = "T"
		}
		size := 10.0
		if line.IsTotal {
			size = 11
		}
		pdf.SetFont("Helvetica", style, size)

		indent := float64(line.Indent) * pdfIndentMM
		pdf.SetX(pdfMarginMM + indent)
		pdf.CellFormat(contentWidth-pdfAmountColMM-indent, pdfRowHeightMM, tr(line.Description), border, 0, "L", false, 0, "")
		pdf.CellFormat(pdfAmountColMM, pdfRowHeightMM, line.Amount.StringFixed(2), border, 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering %s pdf: %w", st.Kind, err)
	}
	return buf.Bytes(), nil
}

// ExportFilename is the download name of an export, e.g. balance-sheet-all-20260310.pdf.
func ExportFilename(st RenderedStatement) string {
	return fmt.Sprintf("%s-%s-%s.pdf", st.Kind, st.BankID, st.AsOf.UTC().Format("20060102"))
}

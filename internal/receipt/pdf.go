package receipt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"kasku/internal/core"
)

// PDFRenderer renders receipt records as printable A4 nota documents.
type PDFRenderer struct {
	orgName string
}

func NewPDFRenderer(orgName string) *PDFRenderer {
	return &PDFRenderer{orgName: orgName}
}

// Render writes a single-receipt PDF to w.
func (r *PDFRenderer) Render(w io.Writer, rec Record) error {
	pdf := newDoc()
	r.page(pdf, rec)
	return pdf.Output(w)
}

// RenderAll writes one PDF with a page per record. Rendering an empty
// slice produces a document with an empty page rather than an error.
func (r *PDFRenderer) RenderAll(w io.Writer, recs []Record) error {
	pdf := newDoc()
	if len(recs) == 0 {
		pdf.AddPage()
	}
	for _, rec := range recs {
		r.page(pdf, rec)
	}
	return pdf.Output(w)
}

func newDoc() *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	return pdf
}

func (r *PDFRenderer) page(pdf *gofpdf.Fpdf, rec Record) {
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 8, r.orgName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Nota Transaksi", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetDrawColor(120, 120, 120)
	x, y := pdf.GetXY()
	pdf.Line(x, y, x+170, y)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, rec.Reference, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, rec.Date, "", 1, "L", false, 0, "")
	pdf.Ln(5)

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 7, value, "", "L", false)
	}
	row("Jenis", label(rec.Type))
	row("Kategori", rec.Category)
	row("Keterangan", rec.Description)
	row("Jumlah", rec.Amount.Format())
	row("Bendahara", rec.Treasurer)

	if png := QRPNG(rec, 256); png != nil {
		pdf.Ln(6)
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		name := "qr-" + rec.ID
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
		pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), 32, 32, false, opts, 0, "")
		pdf.SetXY(pdf.GetX()+36, pdf.GetY()+12)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 4, "Pindai untuk verifikasi", "", 1, "L", false, 0, "")
	}

	pdf.SetY(-30)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 4, fmt.Sprintf("Dibuat %s", rec.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")
}

func label(t core.TransactionType) string {
	if t == core.TypeIncome {
		return "Pemasukan"
	}
	return "Pengeluaran"
}

package http

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"kasku/internal/core"
	applog "kasku/internal/log"
	"kasku/internal/receipt"
)

type receiptJSON struct {
	ID            string `json:"id"`
	TransactionID string `json:"transactionId"`
	Reference     string `json:"reference"`
	Type          string `json:"type"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amountDisplay"`
	Date          string `json:"date"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	Treasurer     string `json:"treasurer"`
	GeneratedAt   string `json:"generatedAt"`
	VerifyPayload string `json:"verifyPayload"`
	QRDataURL     string `json:"qrDataUrl,omitempty"`
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	t, ok := s.ledger.TransactionByID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	rec := s.receipts.Generate(t)
	writeJSON(w, http.StatusOK, receiptJSON{
		ID:            rec.ID,
		TransactionID: rec.TransactionID,
		Reference:     rec.Reference,
		Type:          string(rec.Type),
		Amount:        rec.Amount.Rupiah,
		AmountDisplay: rec.Amount.Format(),
		Date:          rec.Date,
		Category:      rec.Category,
		Description:   rec.Description,
		Treasurer:     rec.Treasurer,
		GeneratedAt:   rec.GeneratedAt.Format("2006-01-02 15:04:05"),
		VerifyPayload: rec.VerifyPayload,
		QRDataURL:     receipt.QRDataURL(rec, 256),
	})
}

func (s *Server) handleReceiptPDF(w http.ResponseWriter, r *http.Request) {
	t, ok := s.ledger.TransactionByID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	rec := s.receipts.Generate(t)

	// Render to a buffer first so a generation failure never leaks a
	// half-written PDF body.
	var buf bytes.Buffer
	if err := s.pdf.Render(&buf, rec); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to render receipt PDF",
			applog.FieldTransactionID, t.ID, applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to render receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+rec.Reference+`.pdf"`)
	_, _ = w.Write(buf.Bytes())
}

// handleBulkReceiptPDF renders one nota per ledger transaction into a
// single document, newest-first. ?month=YYYY-MM narrows the batch.
func (s *Server) handleBulkReceiptPDF(w http.ResponseWriter, r *http.Request) {
	txs := s.ledger.Transactions()

	if month := r.URL.Query().Get("month"); month != "" {
		window, err := time.Parse("2006-01", month)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		filtered := txs[:0:0]
		for _, t := range txs {
			if t.Date.SameMonth(window.Year(), window.Month()) {
				filtered = append(filtered, t)
			}
		}
		txs = filtered
	}

	recs := make([]receipt.Record, 0, len(txs))
	for _, t := range txs {
		recs = append(recs, s.receipts.Generate(t))
	}

	var buf bytes.Buffer
	if err := s.pdf.RenderAll(&buf, recs); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to render bulk receipt PDF",
			"receipts", len(recs), applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to render receipts")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="nota-kas.pdf"`)
	_, _ = w.Write(buf.Bytes())
}

var rekapTmpl = template.Must(template.New("rekap").Parse(`<!DOCTYPE html>
<html lang="id">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Rekap Transaksi</title>
<style>
body { font-family: sans-serif; max-width: 480px; margin: 2rem auto; padding: 0 1rem; color: #222; }
h1 { font-size: 1.2rem; }
table { width: 100%; border-collapse: collapse; }
td { padding: .4rem 0; border-bottom: 1px solid #eee; }
td:first-child { color: #666; width: 40%; }
.amount { font-size: 1.3rem; font-weight: bold; }
.masuk { color: #15803d; }
.keluar { color: #b91c1c; }
.missing { color: #b91c1c; }
</style>
</head>
<body>
<h1>Rekap Transaksi</h1>
{{if .Found}}
<p class="amount {{if .Income}}masuk{{else}}keluar{{end}}">{{if .Income}}+{{else}}-{{end}} {{.Amount}}</p>
<table>
<tr><td>Referensi</td><td>{{.Reference}}</td></tr>
<tr><td>Tanggal</td><td>{{.Date}}</td></tr>
<tr><td>Jenis</td><td>{{.TypeLabel}}</td></tr>
<tr><td>Kategori</td><td>{{.Category}}</td></tr>
<tr><td>Keterangan</td><td>{{.Description}}</td></tr>
<tr><td>Bendahara</td><td>{{.Treasurer}}</td></tr>
</table>
{{else}}
<p class="missing">Transaksi tidak ditemukan. Periksa kembali tautan atau kode QR Anda.</p>
{{end}}
</body>
</html>
`))

type rekapView struct {
	Found       bool
	Income      bool
	Amount      string
	Reference   string
	Date        string
	TypeLabel   string
	Category    string
	Description string
	Treasurer   string
}

// handleRekap is the public verification page a receipt QR points at.
func (s *Server) handleRekap(w http.ResponseWriter, r *http.Request) {
	view := rekapView{}
	status := http.StatusNotFound

	if id := r.URL.Query().Get("id"); id != "" {
		if t, ok := s.ledger.TransactionByID(id); ok {
			rec := s.receipts.Generate(t)
			view = rekapView{
				Found:       true,
				Income:      t.Type == core.TypeIncome,
				Amount:      t.Amount.Format(),
				Reference:   rec.Reference,
				Date:        rec.Date,
				TypeLabel:   typeLabel(t.Type),
				Category:    t.Category,
				Description: t.Description,
				Treasurer:   t.Treasurer,
			}
			status = http.StatusOK
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := rekapTmpl.Execute(w, view); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to render rekap page",
			applog.FieldError, err)
	}
}

func typeLabel(t core.TransactionType) string {
	if t == core.TypeIncome {
		return "Pemasukan"
	}
	return "Pengeluaran"
}

// Package receipt derives printable, verifiable receipt records ("nota")
// from single transactions. The generator produces the view-model and
// verification payload; rendering bytes is left to the QR and PDF
// adapters in this package, which callers may swap out.
package receipt

import (
	"net/url"
	"time"

	"github.com/google/uuid"

	"kasku/internal/core"
)

// Record is a read-only projection of one transaction. The transaction
// itself stays the source of truth; records are derived fresh and never
// persisted independently.
type Record struct {
	ID            string
	TransactionID string
	Reference     string // short display reference, NT-<8 chars of id>
	Type          core.TransactionType
	Amount        core.Money
	Date          string // display-formatted transaction date
	Category      string
	Description   string
	Treasurer     string
	GeneratedAt   time.Time
	VerifyPayload string // URL re-identifying the transaction on the rekap view
}

type Generator struct {
	baseURL string
	now     func() time.Time
	newID   func() string
}

type Option func(*Generator)

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func WithIDFunc(newID func() string) Option {
	return func(g *Generator) { g.newID = newID }
}

// NewGenerator creates a Generator whose verification payloads point at
// baseURL's rekap lookup view.
func NewGenerator(baseURL string, opts ...Option) *Generator {
	g := &Generator{
		baseURL: baseURL,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate derives the receipt record for t. All transaction fields are
// carried verbatim; only the date is reformatted for display.
func (g *Generator) Generate(t core.Transaction) Record {
	return Record{
		ID:            g.newID(),
		TransactionID: t.ID,
		Reference:     shortReference(t.ID),
		Type:          t.Type,
		Amount:        t.Amount,
		Date:          DisplayDate(t.Date),
		Category:      t.Category,
		Description:   t.Description,
		Treasurer:     t.Treasurer,
		GeneratedAt:   g.now(),
		VerifyPayload: g.baseURL + "/rekap?id=" + url.QueryEscape(t.ID),
	}
}

func shortReference(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "NT-" + id
}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// DisplayDate renders a date in the long Indonesian form used on
// receipts, e.g. "15 Februari 2024".
func DisplayDate(d core.Date) string {
	return d.Format("2") + " " + indonesianMonths[int(d.Time.Month())-1] + " " + d.Format("2006")
}

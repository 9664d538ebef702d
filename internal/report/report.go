package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"studiodesk/internal/document"
	"studiodesk/internal/termin"
)

// Range is a half-open [From, To) window on payment dates. Zero bounds are open.
type Range struct {
	From time.Time
	To   time.Time
}

func ParseRange(from, to string) (Range, error) {
	var (
		r   Range
		err error
	)
	if s := strings.TrimSpace(from); s != "" {
		if r.From, err = time.Parse(termin.DateLayout, s); err != nil {
			return r, termin.ValidationError{Code: "RANGE_INVALID", Message: "from must be YYYY-MM-DD"}
		}
	}
	if s := strings.TrimSpace(to); s != "" {
		if r.To, err = time.Parse(termin.DateLayout, s); err != nil {
			return r, termin.ValidationError{Code: "RANGE_INVALID", Message: "to must be YYYY-MM-DD"}
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && !r.From.Before(r.To) {
		return r, termin.ValidationError{Code: "RANGE_INVALID", Message: "from must be before to"}
	}
	return r, nil
}

type Revenue struct {
	Granularity termin.Granularity   `json:"granularity"`
	Periods     []termin.PeriodTotal `json:"periods"`
	Total       decimal.Decimal      `json:"total"`
}

// counts reports whether an invoice contributes to revenue and receivables.
func counts(d document.Document) bool {
	return d.Kind == document.KindInvoice && d.Status != document.StatusVoid
}

// BuildRevenue totals realised revenue from paid invoice termins per period.
func BuildRevenue(docs []document.Document, g termin.Granularity, r Range) Revenue {
	var sources []termin.PaidSource
	for _, d := range docs {
		if !counts(d) {
			continue
		}
		sources = append(sources, termin.PaidSource{DocumentID: d.ID, UpdatedAt: d.UpdatedAt, Milestones: d.Milestones})
	}
	periods := termin.AggregateByPeriod(sources, g, r.From, r.To)
	total := decimal.Zero
	for _, p := range periods {
		total = total.Add(p.Amount)
	}
	return Revenue{Granularity: g, Periods: periods, Total: total}
}

type OutstandingRow struct {
	DocumentID string          `json:"documentId"`
	Number     string          `json:"number"`
	Title      string          `json:"title"`
	ClientID   string          `json:"clientId"`
	Status     document.Status `json:"status"`
	termin.Summary
}

type Outstanding struct {
	Rows      []OutstandingRow `json:"rows"`
	Total     decimal.Decimal  `json:"total"`
	Paid      decimal.Decimal  `json:"paid"`
	Remaining decimal.Decimal  `json:"remaining"`
	Overpaid  int              `json:"overpaidCount"`
}

// BuildOutstanding lists every live invoice with its settlement position. Overpaid
// invoices stay in the list with a negative remaining.
func BuildOutstanding(docs []document.Document) Outstanding {
	out := Outstanding{Rows: []OutstandingRow{}, Total: decimal.Zero, Paid: decimal.Zero, Remaining: decimal.Zero}
	for _, d := range docs {
		if !counts(d) {
			continue
		}
		s := d.Summary()
		out.Rows = append(out.Rows, OutstandingRow{
			DocumentID: d.ID,
			Number:     d.Number,
			Title:      d.Title,
			ClientID:   d.ClientID,
			Status:     d.Status,
			Summary:    s,
		})
		out.Total = out.Total.Add(s.Total)
		out.Paid = out.Paid.Add(s.PaidTotal)
		out.Remaining = out.Remaining.Add(s.Remaining)
		if s.Overpaid {
			out.Overpaid++
		}
	}
	return out
}

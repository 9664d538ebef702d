package termin

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

type Summary struct {
	Total       decimal.Decimal `json:"total"`
	PaidTotal   decimal.Decimal `json:"paidTotal"`
	Remaining   decimal.Decimal `json:"remaining"`
	PaidCount   int             `json:"paidCount"`
	UnpaidCount int             `json:"unpaidCount"`
	Overpaid    bool            `json:"overpaid"`
}

// Summarize totals the paid milestones. Remaining is deliberately not floored: a
// negative value means more was recorded as paid than the contract is worth.
func Summarize(total decimal.Decimal, ms []Milestone) Summary {
	s := Summary{Total: total, PaidTotal: decimal.Zero}
	for _, m := range ms {
		if m.Status.Paid() {
			s.PaidTotal = s.PaidTotal.Add(m.Amount)
			s.PaidCount++
		} else {
			s.UnpaidCount++
		}
	}
	s.Remaining = total.Sub(s.PaidTotal)
	s.Overpaid = s.Remaining.IsNegative()
	return s
}

// MarkPaid flags milestone i as paid on the given date (today when zero).
func MarkPaid(ms []Milestone, i int, on time.Time) ([]Milestone, error) {
	if err := checkIndex(ms, i); err != nil {
		return nil, err
	}
	if on.IsZero() {
		on = time.Now()
	}
	out := Clone(ms)
	out[i].Status = StatusSuccess
	out[i].PaymentDate = on.Format(DateLayout)
	return out, nil
}

// MarkUnpaid reverts milestone i. The payment date is left in place.
func MarkUnpaid(ms []Milestone, i int) ([]Milestone, error) {
	if err := checkIndex(ms, i); err != nil {
		return nil, err
	}
	out := Clone(ms)
	out[i].Status = StatusUnset
	return out, nil
}

type Granularity string

const (
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GranularityMonth, nil
	case GranularityMonth, GranularityQuarter, GranularityYear:
		return g, nil
	default:
		return "", ValidationError{Code: "GRANULARITY_INVALID", Message: "granularity must be month, quarter or year"}
	}
}

func PeriodKey(t time.Time, g Granularity) string {
	switch g {
	case GranularityYear:
		return fmt.Sprintf("%04d", t.Year())
	case GranularityQuarter:
		return fmt.Sprintf("%04d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	default:
		return t.Format("2006-01")
	}
}

// PaidSource is the slice of a document the period report needs.
type PaidSource struct {
	DocumentID string
	UpdatedAt  time.Time
	Milestones []Milestone
}

type PeriodTotal struct {
	Period string          `json:"period"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// PaidOn resolves the date a paid milestone counts towards. Older documents have
// no per-milestone date, so the document's last update stands in. The result is
// always UTC so both sources bucket the same way.
func PaidOn(m Milestone, fallback time.Time) time.Time {
	if m.PaymentDate != "" {
		if t, err := time.Parse(DateLayout, m.PaymentDate); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, m.PaymentDate); err == nil {
			return t.UTC()
		}
	}
	return fallback.UTC()
}

// AggregateByPeriod buckets paid milestones into periods, optionally restricted to
// [from, to). Zero bounds are open. Output is sorted by period key.
func AggregateByPeriod(docs []PaidSource, g Granularity, from, to time.Time) []PeriodTotal {
	buckets := map[string]*PeriodTotal{}
	for _, d := range docs {
		for _, m := range d.Milestones {
			if !m.Status.Paid() {
				continue
			}
			on := PaidOn(m, d.UpdatedAt)
			if !from.IsZero() && on.Before(from) {
				continue
			}
			if !to.IsZero() && !on.Before(to) {
				continue
			}
			key := PeriodKey(on, g)
			b, ok := buckets[key]
			if !ok {
				b = &PeriodTotal{Period: key, Amount: decimal.Zero}
				buckets[key] = b
			}
			b.Amount = b.Amount.Add(m.Amount)
			b.Count++
		}
	}

	out := make([]PeriodTotal, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

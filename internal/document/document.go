package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"studiodesk/internal/termin"
)

type Kind string

const (
	KindInvoice   Kind = "invoice"
	KindQuotation Kind = "quotation"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindInvoice, KindQuotation:
		return k, nil
	default:
		return "", termin.ValidationError{Code: "KIND_INVALID", Message: fmt.Sprintf("unknown document kind: %s", s)}
	}
}

// Collection is the audit collection the kind is recorded under.
func (k Kind) Collection() string {
	if k == KindQuotation {
		return "quotations"
	}
	return "invoices"
}

func (k Kind) prefix() string {
	if k == KindQuotation {
		return "QUO"
	}
	return "INV"
}

// FormatNumber renders the document number handed out when the caller leaves it blank.
func FormatNumber(k Kind, year, seq int) string {
	return fmt.Sprintf("%s/%d/%04d", k.prefix(), year, seq)
}

// Document is an invoice or quotation. Milestones are owned by the document and
// their amounts are always derived from the spec strings and the contract total.
type Document struct {
	ID                   string             `json:"id"`
	Kind                 Kind               `json:"kind"`
	Number               string             `json:"number"`
	Title                string             `json:"title"`
	ClientID             string             `json:"clientId"`
	ProjectID            *string            `json:"projectId,omitempty"`
	Category             termin.Category    `json:"category"`
	Area                 decimal.Decimal    `json:"area"`
	UnitPrice            decimal.Decimal    `json:"unitPrice"`
	TotalValue           decimal.Decimal    `json:"totalValue"`
	Milestones           []termin.Milestone `json:"milestones"`
	ActiveMilestoneIndex int                `json:"activeMilestoneIndex"`
	Status               Status             `json:"status"`
	Notes                string             `json:"notes"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}

// Editor applies edits to documents. Every edit returns a new Document and recomputes
// all milestone amounts from scratch; nothing is adjusted incrementally.
type Editor struct {
	Calc termin.Calculator
}

func NewEditor(calc termin.Calculator) Editor {
	return Editor{Calc: calc}
}

// New returns a draft document with the category's default termin template.
func (e Editor) New(kind Kind, cat termin.Category) Document {
	d := Document{
		Kind:       kind,
		Category:   cat,
		Area:       decimal.Zero,
		UnitPrice:  decimal.Zero,
		TotalValue: decimal.Zero,
		Milestones: termin.Template(cat),
		Status:     StatusDraft,
	}
	return e.Recalculate(d)
}

func (e Editor) Recalculate(d Document) Document {
	d.Milestones = e.Calc.Recalculate(d.Milestones, d.TotalValue, d.Category)
	return d
}

// AreaScale is the number of decimal places kept for area.
const AreaScale int32 = 2

// SetPricing stores area and unit price and re-derives the total. manualTotal is only
// used by categories whose value is typed in directly.
func (e Editor) SetPricing(d Document, area, unitPrice, manualTotal decimal.Decimal) (Document, error) {
	if area.IsNegative() || unitPrice.IsNegative() || manualTotal.IsNegative() {
		return d, termin.ValidationError{Code: "PRICING_INVALID", Message: "area, unit price and total must not be negative"}
	}
	// Stored as numeric(14,2) and numeric(18,0); anything finer would be rounded on save
	// and no longer match the derived total.
	if !area.Equal(area.Round(AreaScale)) {
		return d, termin.ValidationError{Code: "PRICING_INVALID", Message: "area allows at most 2 decimal places"}
	}
	if !unitPrice.Equal(unitPrice.Round(termin.CurrencyScale)) {
		return d, termin.ValidationError{Code: "PRICING_INVALID", Message: "unit price must be a whole amount"}
	}
	d.Area = area
	d.UnitPrice = unitPrice
	d.TotalValue = termin.DeriveTotal(d.Category, area, unitPrice, manualTotal)
	return e.Recalculate(d), nil
}

func (e Editor) SetMilestoneSpec(d Document, i int, spec string) (Document, error) {
	ms, err := editAt(d.Milestones, i, func(m *termin.Milestone) { m.Spec = spec })
	if err != nil {
		return d, err
	}
	d.Milestones = ms
	return e.Recalculate(d), nil
}

func (e Editor) SetMilestoneLabel(d Document, i int, label string) (Document, error) {
	ms, err := editAt(d.Milestones, i, func(m *termin.Milestone) { m.Label = label })
	if err != nil {
		return d, err
	}
	d.Milestones = ms
	return e.Recalculate(d), nil
}

// SetMilestoneAmount records a typed-in amount. It only sticks for milestones the
// calculator does not own (blank or unreadable specs, DP outside design, or while the
// total is not positive); otherwise recalculation overwrites it.
func (e Editor) SetMilestoneAmount(d Document, i int, amount decimal.Decimal) (Document, error) {
	ms, err := editAt(d.Milestones, i, func(m *termin.Milestone) { m.Amount = amount.Round(termin.CurrencyScale) })
	if err != nil {
		return d, err
	}
	d.Milestones = ms
	return e.Recalculate(d), nil
}

// AddMilestone appends a blank milestone.
func (e Editor) AddMilestone(d Document) Document {
	ms := termin.Clone(d.Milestones)
	ms = append(ms, termin.Milestone{Label: termin.DefaultLabel(len(ms)), Amount: decimal.Zero})
	d.Milestones = ms
	return e.Recalculate(d)
}

func (e Editor) RemoveMilestone(d Document, i int) (Document, error) {
	if i < 0 || i >= len(d.Milestones) {
		return d, fmt.Errorf("%w: %d (have %d)", termin.ErrMilestoneIndex, i, len(d.Milestones))
	}
	ms := make([]termin.Milestone, 0, len(d.Milestones)-1)
	ms = append(ms, d.Milestones[:i]...)
	ms = append(ms, d.Milestones[i+1:]...)
	d.Milestones = ms
	switch {
	case len(ms) == 0:
		d.ActiveMilestoneIndex = 0
	case d.ActiveMilestoneIndex > i || d.ActiveMilestoneIndex >= len(ms):
		d.ActiveMilestoneIndex--
	}
	return e.Recalculate(d), nil
}

// ChangeCategory switches the pricing model and replaces the milestones with the new
// category's template. Any recorded payments are discarded with the old milestones.
func (e Editor) ChangeCategory(d Document, cat termin.Category) Document {
	d.Category = cat
	d.TotalValue = termin.DeriveTotal(cat, d.Area, d.UnitPrice, d.TotalValue)
	return e.ResetTemplate(d)
}

func (e Editor) ResetTemplate(d Document) Document {
	d.Milestones = termin.Template(d.Category)
	d.ActiveMilestoneIndex = 0
	return e.Recalculate(d)
}

// SetActiveMilestone only affects which termin the document renderer highlights.
func (e Editor) SetActiveMilestone(d Document, i int) (Document, error) {
	if i < 0 || i >= len(d.Milestones) {
		return d, fmt.Errorf("%w: %d (have %d)", termin.ErrMilestoneIndex, i, len(d.Milestones))
	}
	d.ActiveMilestoneIndex = i
	return d, nil
}

func (d Document) Summary() termin.Summary {
	return termin.Summarize(d.TotalValue, d.Milestones)
}

func (d Document) Warnings() []termin.SpecWarning {
	return termin.Warnings(d.Milestones, d.Category)
}

func editAt(ms []termin.Milestone, i int, fn func(m *termin.Milestone)) ([]termin.Milestone, error) {
	if i < 0 || i >= len(ms) {
		return nil, fmt.Errorf("%w: %d (have %d)", termin.ErrMilestoneIndex, i, len(ms))
	}
	out := termin.Clone(ms)
	fn(&out[i])
	return out, nil
}

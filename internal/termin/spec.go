package termin

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type SpecKind int

const (
	// KindManual covers blank and unparseable specs; the stored amount is kept as-is.
	KindManual SpecKind = iota
	KindPercentage
	KindDownPayment
	KindRemainder
)

func (k SpecKind) String() string {
	switch k {
	case KindPercentage:
		return "percentage"
	case KindDownPayment:
		return "down_payment"
	case KindRemainder:
		return "remainder"
	default:
		return "manual"
	}
}

const (
	tokenDownPayment = "dp"
	tokenPelunasan   = "pelunasan"
	tokenRemainder   = "remainder"
)

var ErrUnparseableSpec = errors.New("milestone spec is not a percentage or reserved token")

// Spec is the parsed form of a milestone's free-form spec string.
type Spec struct {
	Kind    SpecKind
	Percent decimal.Decimal
	Raw     string
	// Err is set when Raw was non-blank but could not be understood.
	Err error
}

// ParseSpec normalizes and classifies a spec string. It never fails: anything it
// cannot read becomes KindManual.
func ParseSpec(raw string) Spec {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "":
		return Spec{Kind: KindManual, Raw: raw}
	case tokenDownPayment:
		return Spec{Kind: KindDownPayment, Raw: raw}
	case tokenPelunasan, tokenRemainder:
		return Spec{Kind: KindRemainder, Raw: raw}
	}

	pct, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return Spec{Kind: KindManual, Raw: raw, Err: ErrUnparseableSpec}
	}
	return Spec{Kind: KindPercentage, Percent: pct, Raw: raw}
}

type SpecWarning struct {
	Index int    `json:"index"`
	Spec  string `json:"spec"`
	Issue string `json:"issue"`
}

// Warnings lists milestones whose amount is frozen because the spec could not be
// read, plus down-payment tokens used outside the design category.
func Warnings(ms []Milestone, c Category) []SpecWarning {
	var out []SpecWarning
	for i, m := range ms {
		sp := ParseSpec(m.Spec)
		switch {
		case sp.Err != nil:
			out = append(out, SpecWarning{Index: i, Spec: m.Spec, Issue: sp.Err.Error()})
		case sp.Kind == KindDownPayment && c != CategoryDesign:
			out = append(out, SpecWarning{Index: i, Spec: m.Spec, Issue: "down payment token only applies to design documents"})
		}
	}
	return out
}

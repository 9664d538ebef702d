package termin

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryDesign   Category = "design"
	CategoryCivil    Category = "civil"
	CategoryInterior Category = "interior"
)

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryDesign, CategoryCivil, CategoryInterior:
		return c, nil
	default:
		return "", ValidationError{Code: "CATEGORY_INVALID", Message: fmt.Sprintf("unknown category: %s", s)}
	}
}

// ManualTotal reports whether the contract value is typed in directly rather than
// derived from area and unit price.
func (c Category) ManualTotal() bool {
	return c != CategoryDesign
}

type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var templateSpecs = map[Category][]string{
	CategoryDesign:   {"DP", "50%", "30%", "Pelunasan"},
	CategoryCivil:    {"20%", "25%", "25%", "20%", "10%"},
	CategoryInterior: {"40%", "30%", "30%"},
}

// Template returns a fresh milestone list for the category with zero amounts.
// Unknown categories get a single blank milestone.
func Template(c Category) []Milestone {
	specs, ok := templateSpecs[c]
	if !ok {
		specs = []string{""}
	}
	out := make([]Milestone, 0, len(specs))
	for i, s := range specs {
		out = append(out, Milestone{
			Label:  DefaultLabel(i),
			Spec:   s,
			Amount: decimal.Zero,
		})
	}
	return out
}

func DefaultLabel(i int) string {
	return fmt.Sprintf("Termin %d", i+1)
}

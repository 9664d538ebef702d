package termin

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusUnset   Status = ""
	StatusSuccess Status = "success"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusUnset, StatusSuccess:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown milestone status: %s", s)
	}
}

func (s Status) Paid() bool {
	return s == StatusSuccess
}

// Milestone is one payment tranche of a contract document. It has no identity of its
// own; its position in the document's list is what the calculator keys off.
type Milestone struct {
	Label       string          `json:"label"`
	Spec        string          `json:"spec"`
	Amount      decimal.Decimal `json:"amount"`
	Status      Status          `json:"status"`
	PaymentDate string          `json:"paymentDate"`
}

var ErrMilestoneIndex = errors.New("milestone index out of range")

// Clone copies the slice so callers can mutate the result without touching the input.
func Clone(ms []Milestone) []Milestone {
	if ms == nil {
		return nil
	}
	out := make([]Milestone, len(ms))
	copy(out, ms)
	return out
}

func checkIndex(ms []Milestone, i int) error {
	if i < 0 || i >= len(ms) {
		return fmt.Errorf("%w: %d (have %d)", ErrMilestoneIndex, i, len(ms))
	}
	return nil
}

package document

import (
	"errors"

	"studiodesk/internal/adminaction"
	"studiodesk/internal/termin"
)

type Status string

const (
	StatusDraft Status = "draft"

	// Quotation workflow.
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"

	// Invoice workflow.
	StatusIssued  Status = "issued"
	StatusSettled Status = "settled"
	StatusVoid    Status = "void"
)

var ErrInvalidTransition = errors.New("invalid state transition")

var allowedTransitions = map[Kind]map[Status]map[Status]bool{
	KindQuotation: {
		StatusDraft:    {StatusSent: true},
		StatusSent:     {StatusAccepted: true, StatusRejected: true, StatusDraft: true},
		StatusAccepted: {},
		StatusRejected: {},
	},
	KindInvoice: {
		StatusDraft:   {StatusIssued: true},
		StatusIssued:  {StatusSettled: true, StatusVoid: true, StatusDraft: true},
		StatusSettled: {},
		StatusVoid:    {},
	},
}

func ParseStatus(kind Kind, s string) (Status, error) {
	if _, ok := allowedTransitions[kind][Status(s)]; ok {
		return Status(s), nil
	}
	return "", termin.ValidationError{Code: "STATUS_INVALID", Message: "unknown status for " + string(kind) + ": " + s}
}

func CanTransition(kind Kind, from, to Status) bool {
	m, ok := allowedTransitions[kind][from]
	if !ok {
		return false
	}
	return m[to]
}

// Editable reports whether pricing and milestones may still change. Payment status can
// be recorded in any state.
func (s Status) Editable() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusSettled, StatusVoid:
		return false
	}
	return true
}

// Settleable reports whether an invoice may move to settled without an override.
func Settleable(d Document) bool {
	return !d.Summary().Remaining.IsPositive()
}

// OverrideTarget resolves the status an admin override moves a document to.
func OverrideTarget(d Document, action adminaction.ActionType) (Status, error) {
	switch action {
	case adminaction.ActionReopenDocument:
		if d.Status.Editable() {
			return "", ErrInvalidTransition
		}
		return StatusDraft, nil
	case adminaction.ActionSettleWithoutFullPayment:
		if d.Kind != KindInvoice || d.Status != StatusIssued {
			return "", ErrInvalidTransition
		}
		return StatusSettled, nil
	}
	return "", ErrInvalidTransition
}

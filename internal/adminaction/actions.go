package adminaction

import "studiodesk/internal/termin"

type ActionType string

const (
	ActionReopenDocument           ActionType = "REOPEN_DOCUMENT"
	ActionSettleWithoutFullPayment ActionType = "SETTLE_WITHOUT_FULL_PAYMENT"
)

func ParseActionType(s string) (ActionType, error) {
	switch a := ActionType(s); a {
	case ActionReopenDocument, ActionSettleWithoutFullPayment:
		return a, nil
	default:
		return "", termin.ValidationError{Code: "VALIDATION_FAILED", Message: "invalid actionType"}
	}
}

package project

import (
	"fmt"
	"strings"
	"time"

	"studiodesk/internal/termin"
)

type Status string

const (
	StatusPlanning Status = "planning"
	StatusOngoing  Status = "ongoing"
	StatusDone     Status = "done"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPlanning, StatusOngoing, StatusDone:
		return st, nil
	case "":
		return StatusPlanning, nil
	default:
		return "", termin.ValidationError{Code: "STATUS_INVALID", Message: fmt.Sprintf("unknown project status: %s", s)}
	}
}

type Project struct {
	ID        string          `json:"id"`
	ClientID  string          `json:"clientId"`
	Name      string          `json:"name"`
	Category  termin.Category `json:"category"`
	Location  string          `json:"location"`
	Status    Status          `json:"status"`
	StartDate *string         `json:"startDate,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type Input struct {
	ClientID  string  `json:"clientId"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Location  string  `json:"location"`
	Status    string  `json:"status"`
	StartDate *string `json:"startDate"`
}

// Validated is an Input that passed Validate.
type Validated struct {
	ClientID  string
	Name      string
	Category  termin.Category
	Location  string
	Status    Status
	StartDate *string
}

func (in Input) Validate() (Validated, error) {
	v := Validated{
		ClientID: strings.TrimSpace(in.ClientID),
		Name:     strings.TrimSpace(in.Name),
		Location: strings.TrimSpace(in.Location),
	}
	if v.ClientID == "" {
		return v, termin.ValidationError{Code: "VALIDATION_FAILED", Message: "clientId is required"}
	}
	if v.Name == "" {
		return v, termin.ValidationError{Code: "VALIDATION_FAILED", Message: "name is required"}
	}
	cat, err := termin.ParseCategory(in.Category)
	if err != nil {
		return v, err
	}
	v.Category = cat
	if v.Status, err = ParseStatus(in.Status); err != nil {
		return v, err
	}
	if in.StartDate != nil && strings.TrimSpace(*in.StartDate) != "" {
		d := strings.TrimSpace(*in.StartDate)
		if _, err := time.Parse(termin.DateLayout, d); err != nil {
			return v, termin.ValidationError{Code: "VALIDATION_FAILED", Message: "startDate must be YYYY-MM-DD"}
		}
		v.StartDate = &d
	}
	return v, nil
}

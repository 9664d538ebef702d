package client

import (
	"strings"
	"time"

	"studiodesk/internal/termin"
)

type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Input struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (in Input) Normalize() (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	if in.Name == "" {
		return in, termin.ValidationError{Code: "VALIDATION_FAILED", Message: "name is required"}
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return in, termin.ValidationError{Code: "VALIDATION_FAILED", Message: "invalid email"}
	}
	return in, nil
}

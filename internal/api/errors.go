package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"studiodesk/internal/termin"
	"studiodesk/pkg/db"
)

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Error: APIError{Code: code, Message: message},
	})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON rejects unknown fields so typos in PATCH bodies surface as 400s.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return termin.ValidationError{Code: "VALIDATION_FAILED", Message: "invalid json"}
	}
	return nil
}

// WriteDomainError maps the errors shared across handlers. Anything unrecognised is an
// internal error: logged in full, and only described to the client outside prod.
func WriteDomainError(w http.ResponseWriter, r *http.Request, prod bool, err error) {
	var ve termin.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteError(w, http.StatusBadRequest, ve.Code, ve.Message)
	case errors.Is(err, termin.ErrMilestoneIndex):
		WriteError(w, http.StatusNotFound, "MILESTONE_NOT_FOUND", err.Error())
	case db.IsNotFound(err):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "record not found")
	case db.IsUniqueViolation(err):
		WriteError(w, http.StatusConflict, "DUPLICATE", "record already exists")
	case db.IsForeignKeyViolation(err):
		WriteError(w, http.StatusConflict, "REFERENCE_INVALID", "referenced record missing or still in use")
	default:
		WriteInternal(w, r, prod, err)
	}
}

func WriteInternal(w http.ResponseWriter, r *http.Request, prod bool, err error) {
	LoggerFromContext(r.Context()).Error("request failed", zap.Error(err))
	if !prod {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", fmt.Sprintf("internal error: %v", err))
		return
	}
	WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}

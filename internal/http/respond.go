package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// envelope is the body of every successful response and of plain errors.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	if data == nil {
		data = []any{}
	}
	writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// validationError collects messages per field, keeping first-seen field order.
type validationError struct {
	keys   []string
	fields map[string][]string
}

func newValidationError() *validationError {
	return &validationError{fields: map[string][]string{}}
}

func fieldError(field, msg string) *validationError {
	v := newValidationError()
	v.Add(field, msg)
	return v
}

func (v *validationError) Add(field, msg string) {
	if _, ok := v.fields[field]; !ok {
		v.keys = append(v.keys, field)
	}
	v.fields[field] = append(v.fields[field], msg)
}

func (v *validationError) Empty() bool {
	return v == nil || len(v.keys) == 0
}

// Message is the first error, with a count of the rest.
func (v *validationError) Message() string {
	if v.Empty() {
		return "The given data was invalid."
	}
	first := v.fields[v.keys[0]][0]
	rest := -1
	for _, k := range v.keys {
		rest += len(v.fields[k])
	}
	switch {
	case rest == 1:
		return fmt.Sprintf("%s (and 1 more error)", first)
	case rest > 1:
		return fmt.Sprintf("%s (and %d more errors)", first, rest)
	default:
		return first
	}
}

func writeValidation(w http.ResponseWriter, v *validationError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"message": v.Message(),
		"errors":  v.fields,
	})
}

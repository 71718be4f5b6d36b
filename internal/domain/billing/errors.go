package billing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when an entity does not exist or is not owned
	// by the requesting user.
	ErrNotFound = errors.New("not found")

	// ErrOpenTimerExists is returned when starting a timer while another
	// entry is still running for the same user.
	ErrOpenTimerExists = errors.New("an open timer already exists")

	// ErrEntryInvoiced is returned when deleting a time entry or expense
	// that is linked to an invoice.
	ErrEntryInvoiced = errors.New("record is linked to an invoice")

	// ErrNumberCollision is returned when an allocated invoice number is
	// already taken. The caller retries the allocation.
	ErrNumberCollision = errors.New("invoice number collision")
)

// ValidationError carries field-level detail about malformed input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator accumulates field errors and yields a ValidationError only when
// at least one field failed.
type Validator struct {
	fields map[string]string
}

// Fail records a failed field.
func (v *Validator) Fail(field, message string) {
	if v.fields == nil {
		v.fields = make(map[string]string)
	}
	v.fields[field] = message
}

// Err returns the accumulated ValidationError, or nil if all fields passed.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/diewo77/fawater/validation"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrCustomerHasInvoices = errors.New("customer has invoices")
)

// ValidationError carries field level violations back to the HTTP layer.
type ValidationError struct {
	Fields validation.Violations
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+e.Fields[k])
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, ", "))
}

func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Fields: v}
}

package form

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-estimator/pkg/model"
)

var (
	// ErrUnknownField is returned for names outside model.FieldNames.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrFieldDisabled is returned when setting city with city scoping off.
	ErrFieldDisabled = errors.New("form: field disabled")
	// ErrUnknownOption is returned when a select value is not in its option list.
	ErrUnknownOption = errors.New("form: value not in option list")
	// ErrIncomplete is returned by Input while required fields are empty.
	ErrIncomplete = errors.New("form: required fields missing")
)

// ValidationError collects per-field messages for values that are present but
// out of range or malformed.
type ValidationError struct {
	Fields map[model.FieldName]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "form: invalid input"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, string(name))
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, e.Fields[model.FieldName(name)])
	}
	return "form: " + strings.Join(parts, "; ")
}

// For returns the message attached to name.
func (e *ValidationError) For(name model.FieldName) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}

func (e *ValidationError) add(name model.FieldName, format string, args ...any) {
	if e.Fields == nil {
		e.Fields = make(map[model.FieldName]string)
	}
	if _, exists := e.Fields[name]; exists {
		return
	}
	e.Fields[name] = fmt.Sprintf(format, args...)
}

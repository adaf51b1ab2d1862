package testsupport

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/goliatone/go-estimator/pkg/model"
)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}

// SampleValues is a complete, valid set of field values for the default fake
// service, in the order a user would fill them.
func SampleValues() []FieldValue {
	return []FieldValue{
		{model.FieldCity, "Hyderabad"},
		{model.FieldArea, "Gachibowli"},
		{model.FieldPropertyType, "Apartment"},
		{model.FieldBHK, "3"},
		{model.FieldSqft, "1500"},
		{model.FieldFloor, "5"},
		{model.FieldAge, "2"},
	}
}

// FieldValue pairs a field with its raw control value.
type FieldValue struct {
	Name  model.FieldName
	Value string
}

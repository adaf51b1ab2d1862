package model

import "reflect"

// ViewKind discriminates the active ViewState variant.
type ViewKind string

const (
	ViewPlaceholder ViewKind = "placeholder"
	ViewLoading     ViewKind = "loading"
	ViewError       ViewKind = "error"
	ViewResult      ViewKind = "result"
)

// ViewState is the outcome of the latest submission. Exactly one variant is
// active; the zero value is the placeholder.
type ViewState struct {
	kind    ViewKind
	message string
	result  *PredictionResult
}

// Placeholder is the idle state shown before any submission.
func Placeholder() ViewState { return ViewState{kind: ViewPlaceholder} }

// Loading marks a submission in flight.
func Loading() ViewState { return ViewState{kind: ViewLoading} }

// Failed carries the message shown inline for a failed submission.
func Failed(message string) ViewState {
	return ViewState{kind: ViewError, message: message}
}

// Succeeded wraps a successful prediction.
func Succeeded(result PredictionResult) ViewState {
	clone := result.Clone()
	return ViewState{kind: ViewResult, result: &clone}
}

// Kind reports the active variant.
func (v ViewState) Kind() ViewKind {
	if v.kind == "" {
		return ViewPlaceholder
	}
	return v.kind
}

// Message returns the error text for the error variant and "" otherwise.
func (v ViewState) Message() string {
	if v.Kind() != ViewError {
		return ""
	}
	return v.message
}

// Result returns the prediction for the result variant.
func (v ViewState) Result() (PredictionResult, bool) {
	if v.Kind() != ViewResult || v.result == nil {
		return PredictionResult{}, false
	}
	return v.result.Clone(), true
}

// Equal reports whether two states carry the same variant and payload.
func (v ViewState) Equal(other ViewState) bool {
	if v.Kind() != other.Kind() || v.message != other.message {
		return false
	}
	return reflect.DeepEqual(v.result, other.result)
}

func (v ViewState) String() string {
	if v.Kind() == ViewError {
		return string(ViewError) + ": " + v.message
	}
	return string(v.Kind())
}

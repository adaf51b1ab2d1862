package render

import "github.com/goliatone/go-estimator/pkg/model"

// RenderOptions carry per-frame data that is not part of the view model.
type RenderOptions struct {
	// FieldErrors holds inline messages keyed by control, typically from a
	// rejected submit. See FieldErrors.
	FieldErrors map[model.FieldName]string
	// Notice is an optional one-line status shown above the form.
	Notice string
}

package text

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-estimator/pkg/model"
	"github.com/goliatone/go-estimator/pkg/render"
	"github.com/goliatone/go-estimator/pkg/view"
)

// JSONRenderer emits the render model as indented JSON for scripting.
type JSONRenderer struct{}

var _ render.Renderer = JSONRenderer{}

func NewJSON() JSONRenderer {
	return JSONRenderer{}
}

func (JSONRenderer) Name() string {
	return "json"
}

func (JSONRenderer) ContentType() string {
	return "application/json"
}

type jsonFrame struct {
	view.RenderModel
	FieldErrors map[model.FieldName]string `json:"field_errors,omitempty"`
	Notice      string                     `json:"notice,omitempty"`
}

func (JSONRenderer) Render(_ context.Context, rm view.RenderModel, opts render.RenderOptions) ([]byte, error) {
	out, err := json.MarshalIndent(jsonFrame{
		RenderModel: rm,
		FieldErrors: opts.FieldErrors,
		Notice:      opts.Notice,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

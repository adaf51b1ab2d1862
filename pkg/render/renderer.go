package render

import (
	"context"

	"github.com/goliatone/go-estimator/pkg/view"
)

// Renderer turns a RenderModel into bytes (plain text, HTML, JSON).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, rm view.RenderModel, opts RenderOptions) ([]byte, error)
}

// Package text renders the estimator view model for terminals and logs.
package text

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goliatone/go-estimator/pkg/render"
	"github.com/goliatone/go-estimator/pkg/view"
)

type Option func(*Renderer)

// WithForm toggles the form summary above the result panel. Enabled by
// default.
func WithForm(enabled bool) Option {
	return func(r *Renderer) {
		r.form = enabled
	}
}

// WithIndent sets the prefix used for nested lines.
func WithIndent(indent string) Option {
	return func(r *Renderer) {
		r.indent = indent
	}
}

// Renderer writes a plain text frame.
type Renderer struct {
	form   bool
	indent string
}

var _ render.Renderer = (*Renderer)(nil)

func New(options ...Option) *Renderer {
	r := &Renderer{form: true, indent: "  "}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

func (r *Renderer) Name() string {
	return "text"
}

func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

func (r *Renderer) Render(_ context.Context, rm view.RenderModel, opts render.RenderOptions) ([]byte, error) {
	var buf bytes.Buffer

	if rm.Banner != "" {
		fmt.Fprintf(&buf, "%s %s\n\n", view.ErrorIcon, rm.Banner)
	}
	if opts.Notice != "" {
		fmt.Fprintf(&buf, "%s\n\n", opts.Notice)
	}
	if r.form {
		if err := r.writeForm(&buf, rm, opts); err != nil {
			return nil, err
		}
	}
	if err := r.writePanel(&buf, rm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) writeForm(w io.Writer, rm view.RenderModel, opts render.RenderOptions) error {
	fmt.Fprintf(w, "%s\n%s\n\n", rm.Title, rm.Subtitle)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, control := range rm.Controls {
		fmt.Fprintf(tw, "%s%s\t%s\n", r.indent, control.Label, controlValue(control))
		if msg := opts.FieldErrors[control.Name]; msg != "" {
			fmt.Fprintf(tw, "%s\t! %s\n", r.indent, msg)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	state := ""
	if !rm.CanSubmit {
		state = " (unavailable)"
	}
	fmt.Fprintf(w, "\n[ %s ]%s\n\n", rm.SubmitLabel, state)
	return nil
}

func (r *Renderer) writePanel(w io.Writer, rm view.RenderModel) error {
	switch {
	case rm.Error != nil:
		fmt.Fprintf(w, "%s %s %s\n", rm.Error.Icon, rm.Error.Heading, rm.Error.Message)
	case rm.Result != nil:
		return r.writeResult(w, rm.Result)
	case rm.Loading != nil:
		fmt.Fprintf(w, "%s\n%s%s\n", rm.Loading.Title, r.indent, rm.Loading.Text)
	case rm.Placeholder != nil:
		fmt.Fprintf(w, "%s %s\n%s%s\n", rm.Placeholder.Icon, rm.Placeholder.Title, r.indent, rm.Placeholder.Text)
	}
	return nil
}

func (r *Renderer) writeResult(w io.Writer, res *view.ResultPanel) error {
	fmt.Fprintf(w, "%s\n", res.Label)
	fmt.Fprintf(w, "%s%s\n", r.indent, res.Price)
	if res.PricePerSqft != "" {
		fmt.Fprintf(w, "%s%s\n", r.indent, res.PricePerSqft)
	}
	if res.HasConfidence {
		fmt.Fprintf(w, "%sConfidence: %s\n", r.indent, res.Confidence)
	}
	if res.HasRange {
		fmt.Fprintf(w, "%sRange: %s - %s\n", r.indent, res.RangeLower, res.RangeUpper)
	}

	fmt.Fprintf(w, "\n%s\n", res.DetailsTitle)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, d := range res.Details {
		fmt.Fprintf(tw, "%s%s\t%s\n", r.indent, d.Label, d.Value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(res.Insights) > 0 {
		fmt.Fprintln(w)
	}
	for _, card := range res.Insights {
		line := strings.TrimSpace(card.Icon + " " + card.Title)
		if card.Value != "" {
			line += ": " + card.Value
		}
		fmt.Fprintln(w, line)
		if card.Description != "" {
			fmt.Fprintf(w, "%s%s\n", r.indent, card.Description)
		}
	}
	return nil
}

func controlValue(c view.Control) string {
	if c.Value == "" {
		if c.Busy {
			return "loading..."
		}
		if !c.Enabled {
			return "-"
		}
		return "(" + firstNonEmpty(c.Prompt, c.Placeholder, "empty") + ")"
	}
	for _, choice := range c.Choices {
		if choice.Selected && choice.Icon != "" {
			return choice.Icon + " " + choice.Label
		}
	}
	return c.Value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

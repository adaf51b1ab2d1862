// Package tui drives the estimator form interactively in a terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-estimator/internal/logging"
	"github.com/goliatone/go-estimator/pkg/form"
	"github.com/goliatone/go-estimator/pkg/loader"
	"github.com/goliatone/go-estimator/pkg/model"
	"github.com/goliatone/go-estimator/pkg/orchestrator"
	"github.com/goliatone/go-estimator/pkg/render"
	"github.com/goliatone/go-estimator/pkg/renderers/text"
	"github.com/goliatone/go-estimator/pkg/view"
)

// Engine is the part of the orchestrator a session drives.
type Engine interface {
	Snapshot() orchestrator.Snapshot
	SetField(ctx context.Context, name model.FieldName, value string) error
	AwaitAreas(ctx context.Context) error
	Submit(ctx context.Context) (*orchestrator.Pending, error)
	Clear()
}

// Menu entries offered after each estimate.
const (
	ActionEdit = "Edit a field"
	ActionNew  = "New estimate"
	ActionQuit = "Quit"
)

var actions = []string{ActionEdit, ActionNew, ActionQuit}

// Session prompts for every field, submits, prints the outcome and loops
// until the user quits.
type Session struct {
	engine Engine
	driver PromptDriver
	frames render.Renderer
	theme  Theme
	logger logging.Logger
}

// NewSession wires a session around engine. Engine.Init must have been called.
func NewSession(engine Engine, options ...Option) (*Session, error) {
	if engine == nil {
		return nil, errors.New("tui: engine is required")
	}
	s := &Session{
		engine: engine,
		frames: text.New(text.WithForm(false)),
		logger: logging.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	return s, nil
}

// Run blocks until the user quits, aborts or ctx ends.
func (s *Session) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	snap := s.engine.Snapshot()
	if !snap.Ready {
		msg := snap.Banner
		if msg == "" {
			msg = loader.BannerMessage
		}
		_ = s.fail(ctx, msg)
		return orchestrator.ErrNotReady
	}

	for {
		if err := s.fill(ctx); err != nil {
			return err
		}
		if err := s.submit(ctx); err != nil {
			return err
		}

		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      "What next?",
			Options:      actions,
			DefaultIndex: 0,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(actions) {
			continue
		}
		s.logger.Debug("session action", map[string]any{"action": actions[idx]})

		switch actions[idx] {
		case ActionQuit:
			return nil
		case ActionNew:
			ok, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Clear all fields?", Default: true})
			if err != nil {
				return err
			}
			if ok {
				s.engine.Clear()
			}
		case ActionEdit:
			if err := s.edit(ctx); err != nil {
				return err
			}
		}
	}
}

// fill prompts for required fields until the form is complete. Choosing a
// city can clear the area, so the missing list is re-read after every edit.
func (s *Session) fill(ctx context.Context) error {
	for {
		missing := s.engine.Snapshot().Missing
		if len(missing) == 0 {
			return nil
		}
		if err := s.prompt(ctx, missing[0]); err != nil {
			return err
		}
	}
}

func (s *Session) submit(ctx context.Context) error {
	for {
		pending, err := s.engine.Submit(ctx)
		if err == nil {
			return s.await(ctx, pending)
		}

		fieldErrs := render.FieldErrors(err)
		switch {
		case fieldErrs != nil:
			for _, name := range s.engine.Snapshot().Fields() {
				msg, ok := fieldErrs[name]
				if !ok {
					continue
				}
				_ = s.fail(ctx, msg)
				if err := s.prompt(ctx, name); err != nil {
					return err
				}
			}
		case errors.Is(err, form.ErrIncomplete):
			if err := s.fill(ctx); err != nil {
				return err
			}
		default:
			return err
		}
	}
}

func (s *Session) await(ctx context.Context, pending *orchestrator.Pending) error {
	_ = s.info(ctx, view.LoadingTitle+"...")
	if _, err := pending.Wait(ctx); err != nil && !errors.Is(err, orchestrator.ErrSuperseded) {
		return err
	}

	rm := view.Reduce(s.engine.Snapshot())
	out, err := s.frames.Render(ctx, rm, render.RenderOptions{})
	if err != nil {
		return fmt.Errorf("tui: render frame: %w", err)
	}
	return s.driver.Info(ctx, strings.TrimRight(string(out), "\n"))
}

func (s *Session) edit(ctx context.Context) error {
	rm := view.Reduce(s.engine.Snapshot())
	labels := make([]string, 0, len(rm.Controls))
	for _, control := range rm.Controls {
		value := control.Value
		if value == "" {
			value = "-"
		}
		labels = append(labels, fmt.Sprintf("%s (%s)", control.Label, value))
	}

	idx, err := s.driver.Select(ctx, SelectConfig{Message: "Field to edit", Options: labels, DefaultIndex: -1})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(rm.Controls) {
		return nil
	}
	return s.prompt(ctx, rm.Controls[idx].Name)
}

func (s *Session) prompt(ctx context.Context, name model.FieldName) error {
	control, ok := view.Reduce(s.engine.Snapshot()).Control(name)
	if !ok {
		return fmt.Errorf("%w: %q", form.ErrUnknownField, name)
	}
	switch control.Kind {
	case view.ControlSelect, view.ControlRadio:
		return s.promptChoice(ctx, control)
	default:
		return s.promptNumber(ctx, control)
	}
}

func (s *Session) promptChoice(ctx context.Context, control view.Control) error {
	if len(control.Choices) == 0 {
		snap := s.engine.Snapshot()
		if control.Name == model.FieldArea && snap.CityScoping && snap.Value(model.FieldCity) != "" {
			_ = s.fail(ctx, fmt.Sprintf("No areas available for %s. Choose another city.", snap.Value(model.FieldCity)))
			return s.engine.SetField(ctx, model.FieldCity, "")
		}
		return fmt.Errorf("%w: %s", ErrNoOptions, control.Label)
	}

	options := make([]string, len(control.Choices))
	defaultIdx := -1
	for i, choice := range control.Choices {
		options[i] = strings.TrimSpace(choice.Icon + " " + choice.Label)
		if choice.Selected {
			defaultIdx = i
		}
	}

	for {
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      control.Label,
			Options:      options,
			DefaultIndex: defaultIdx,
			Help:         control.Prompt,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(options) {
			_ = s.fail(ctx, fmt.Sprintf("Invalid %s selection", control.Label))
			continue
		}

		err = s.engine.SetField(ctx, control.Name, control.Choices[idx].Value)
		if errors.Is(err, form.ErrUnknownOption) {
			_ = s.fail(ctx, fmt.Sprintf("Invalid %s selection", control.Label))
			continue
		}
		if err != nil {
			return err
		}
		if control.Name == model.FieldCity {
			return s.engine.AwaitAreas(ctx)
		}
		return nil
	}
}

func (s *Session) promptNumber(ctx context.Context, control view.Control) error {
	for {
		raw, err := s.driver.Input(ctx, InputConfig{
			Message: control.Label,
			Default: control.Value,
			Help:    rangeHelp(control),
		})
		if err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)

		if err := form.ValidateField(control.Name, raw); err != nil {
			var verr *form.ValidationError
			if errors.As(err, &verr) {
				_ = s.fail(ctx, verr.For(control.Name))
				continue
			}
			return err
		}
		return s.engine.SetField(ctx, control.Name, raw)
	}
}

func rangeHelp(control view.Control) string {
	switch {
	case control.Min != "" && control.Max != "":
		return fmt.Sprintf("%s to %s", control.Min, control.Max)
	case control.Min != "":
		return "at least " + control.Min
	default:
		return control.Placeholder
	}
}

func (s *Session) info(ctx context.Context, msg string) error {
	return s.driver.Info(ctx, s.theme.InfoPrefix+msg)
}

func (s *Session) fail(ctx context.Context, msg string) error {
	return s.driver.Info(ctx, s.theme.ErrorPrefix+msg)
}

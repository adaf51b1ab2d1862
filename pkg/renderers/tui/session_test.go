package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-estimator/internal/logging"
	"github.com/goliatone/go-estimator/pkg/client"
	"github.com/goliatone/go-estimator/pkg/model"
	"github.com/goliatone/go-estimator/pkg/orchestrator"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	infoMessages []string
	selectMsgs   []string
	inputPos     int
	selectPos    int
	confirmPos   int
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selectMsgs = append(s.selectMsgs, cfg.Message)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func (s *stubDriver) output() string {
	return strings.Join(s.infoMessages, "\n")
}

type stubLoader struct {
	static model.ReferenceData
	err    error
	areas  map[string][]string
}

func (l stubLoader) LoadStatic(context.Context) (model.ReferenceData, error) {
	return l.static.Clone(), l.err
}

func (l stubLoader) LoadAreas(_ context.Context, city string) ([]string, error) {
	return append([]string{}, l.areas[city]...), nil
}

type scriptedPredictor struct {
	mu      sync.Mutex
	inputs  []model.FormInput
	results []error
}

func (p *scriptedPredictor) Predict(_ context.Context, in model.FormInput) (model.PredictionResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	call := len(p.inputs)
	p.inputs = append(p.inputs, in)
	if call < len(p.results) && p.results[call] != nil {
		return model.PredictionResult{}, p.results[call]
	}
	return model.PredictionResult{
		PriceFormatted:        "₹75,00,000",
		PricePerSqftFormatted: "₹6,250/sqft",
		Input:                 in,
	}, nil
}

func (p *scriptedPredictor) calls() []model.FormInput {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.FormInput(nil), p.inputs...)
}

func newEngine(t *testing.T, ld stubLoader, p orchestrator.Predictor) *orchestrator.Orchestrator {
	t.Helper()
	o := orchestrator.New(
		orchestrator.WithLoader(ld),
		orchestrator.WithPredictor(p),
		orchestrator.WithLogger(logging.NewTest(t)),
	)
	_ = o.Init(context.Background())
	t.Cleanup(o.Drain)
	return o
}

func defaultLoader() stubLoader {
	return stubLoader{
		static: model.ReferenceData{
			Cities:        []string{"Hyderabad", "Mumbai"},
			Areas:         []string{},
			PropertyTypes: []string{"Apartment", "Villa"},
		},
		areas: map[string][]string{"Hyderabad": {"Gachibowli", "Madhapur"}},
	}
}

func runSession(t *testing.T, engine Engine, driver *stubDriver) error {
	t.Helper()
	session, err := NewSession(engine, WithPromptDriver(driver), WithTheme(Theme{ErrorPrefix: "! "}))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return session.Run(context.Background())
}

func TestSession_FillsSubmitsAndQuits(t *testing.T) {
	predictor := &scriptedPredictor{}
	engine := newEngine(t, defaultLoader(), predictor)
	driver := &stubDriver{
		// city, area, property type, bhk "3", then Quit
		selectIdx: []int{0, 0, 0, 2, 2},
		inputs:    []string{"50", "1200", "5", "2"},
	}

	if err := runSession(t, engine, driver); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := driver.output()
	for _, fragment := range []string{
		"! Built-up Area must be at least 100",
		"Analyzing Property Data...",
		"Estimated Property Value",
		"₹75,00,000",
		"1,200 sqft",
	} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, out)
		}
	}

	calls := predictor.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one prediction, got %d", len(calls))
	}
	want := model.FormInput{City: "Hyderabad", Area: "Gachibowli", PropertyType: "Apartment", BHK: 3, Sqft: 1200, Floor: 5, Age: 2}
	if calls[0] != want {
		t.Fatalf("unexpected input %+v", calls[0])
	}
	if driver.selectMsgs[len(driver.selectMsgs)-1] != "What next?" {
		t.Fatalf("expected the action menu last, got %v", driver.selectMsgs)
	}
}

func TestSession_ServiceErrorThenEdit(t *testing.T) {
	predictor := &scriptedPredictor{results: []error{
		&client.ServiceError{Operation: "predict", StatusCode: 400, Message: "Invalid area"},
	}}
	engine := newEngine(t, defaultLoader(), predictor)
	driver := &stubDriver{
		// fill, Edit a field, Floor, Quit
		selectIdx: []int{0, 0, 0, 2, 0, 5, 2},
		inputs:    []string{"1200", "5", "2", "6"},
	}

	if err := runSession(t, engine, driver); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(driver.output(), "⚠️ Error: Invalid area") {
		t.Fatalf("expected the service message:\n%s", driver.output())
	}

	calls := predictor.calls()
	if len(calls) != 2 || calls[1].Floor != 6 {
		t.Fatalf("expected a resubmission with the edited floor, got %+v", calls)
	}
	if engine.Snapshot().View.Kind() != model.ViewResult {
		t.Fatalf("expected the second submission to succeed")
	}
}

func TestSession_CityWithoutAreas(t *testing.T) {
	predictor := &scriptedPredictor{}
	engine := newEngine(t, defaultLoader(), predictor)
	driver := &stubDriver{
		// Mumbai has no areas, then Hyderabad, area, type, bhk "1", Quit
		selectIdx: []int{1, 0, 1, 1, 0, 2},
		inputs:    []string{"900", "1", "0"},
	}

	if err := runSession(t, engine, driver); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(driver.output(), "! No areas available for Mumbai. Choose another city.") {
		t.Fatalf("expected the empty area notice:\n%s", driver.output())
	}
	calls := predictor.calls()
	if len(calls) != 1 || calls[0].City != "Hyderabad" || calls[0].Area != "Madhapur" || calls[0].PropertyType != "Villa" {
		t.Fatalf("unexpected calls %+v", calls)
	}
}

func TestSession_NewEstimateClears(t *testing.T) {
	predictor := &scriptedPredictor{}
	engine := newEngine(t, defaultLoader(), predictor)
	driver := &stubDriver{
		selectIdx: []int{0, 0, 0, 0, 1, 0, 1, 1, 4, 2},
		inputs:    []string{"1000", "1", "1", "2000", "10", "5"},
		confirm:   []bool{true},
	}

	if err := runSession(t, engine, driver); err != nil {
		t.Fatalf("run: %v", err)
	}
	calls := predictor.calls()
	if len(calls) != 2 {
		t.Fatalf("expected two predictions, got %d", len(calls))
	}
	want := model.FormInput{City: "Hyderabad", Area: "Madhapur", PropertyType: "Villa", BHK: 5, Sqft: 2000, Floor: 10, Age: 5}
	if calls[1] != want {
		t.Fatalf("unexpected second input %+v", calls[1])
	}
}

func TestSession_NotReady(t *testing.T) {
	ld := defaultLoader()
	ld.err = errors.New("connection refused")
	engine := newEngine(t, ld, &scriptedPredictor{})
	driver := &stubDriver{}

	err := runSession(t, engine, driver)
	if !errors.Is(err, orchestrator.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if driver.output() != "! Failed to load data. Make sure backend is running." {
		t.Fatalf("unexpected output %q", driver.output())
	}
}

func TestSession_DriverErrorsPropagate(t *testing.T) {
	engine := newEngine(t, defaultLoader(), &scriptedPredictor{})
	driver := &stubDriver{}

	if err := runSession(t, engine, driver); err == nil || !strings.Contains(err.Error(), "no select scripted") {
		t.Fatalf("expected driver error, got %v", err)
	}
}

func TestNewSession_RequiresEngine(t *testing.T) {
	if _, err := NewSession(nil); err == nil {
		t.Fatalf("expected error without engine")
	}
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-estimator/internal/logging"
	"github.com/goliatone/go-estimator/pkg/client"
	"github.com/goliatone/go-estimator/pkg/form"
	"github.com/goliatone/go-estimator/pkg/loader"
	"github.com/goliatone/go-estimator/pkg/metrics"
	"github.com/goliatone/go-estimator/pkg/model"
)

// FallbackMessage is shown when a failed submission carries no service message.
const FallbackMessage = "Failed to get prediction. Please check your inputs."

var (
	// ErrNotReady is returned by Submit before the static lists loaded.
	ErrNotReady = errors.New("orchestrator: reference data not loaded")
	// ErrMissingDependency is reported when New was not given a loader or predictor.
	ErrMissingDependency = errors.New("orchestrator: missing dependency")
)

// Orchestrator coordinates form edits, reference loads and submissions.
type Orchestrator struct {
	loader      ReferenceLoader
	predictor   Predictor
	cityScoping bool
	timeout     time.Duration
	logger      logging.Logger
	metrics     metrics.Recorder
	resultHooks []ResultHook
	changeHooks []ChangeHook
	initErr     error
	wg          sync.WaitGroup

	// notifyMu orders hook delivery; delivered is the newest version handed out.
	notifyMu  sync.Mutex
	delivered uint64

	mu           sync.Mutex
	store        *form.Store
	view         model.ViewState
	banner       string
	ready        bool
	submitSeq    uint64
	inflight     *Pending
	cancelSubmit context.CancelFunc
	areaSeq      uint64
	areaDone     chan struct{}
	version      uint64
}

// New constructs an Orchestrator. Missing dependencies are reported by Init
// and Submit rather than here so callers can wire options incrementally.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		cityScoping: true,
		timeout:     DefaultTimeout,
		logger:      logging.NewNop(),
		metrics:     metrics.Nop{},
		view:        model.Placeholder(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.store = form.NewStore(form.WithCityScoping(o.cityScoping))
	o.initErr = o.checkDependencies()
	return o
}

func (o *Orchestrator) checkDependencies() error {
	if o.loader == nil {
		return fmt.Errorf("%w: reference loader", ErrMissingDependency)
	}
	if o.predictor == nil {
		return fmt.Errorf("%w: predictor", ErrMissingDependency)
	}
	if scoped, ok := o.loader.(interface{ CityScoping() bool }); ok && scoped.CityScoping() != o.cityScoping {
		return fmt.Errorf("orchestrator: loader city scoping %t does not match %t", scoped.CityScoping(), o.cityScoping)
	}
	return nil
}

// Init loads the static reference lists. A failure sets the persistent banner
// and leaves the form unusable until Init succeeds.
func (o *Orchestrator) Init(ctx context.Context) error {
	if o.initErr != nil {
		return o.initErr
	}
	data, err := o.loader.LoadStatic(ctx)

	o.mu.Lock()
	if err != nil {
		o.banner = loader.BannerMessage
		o.ready = false
	} else {
		o.store.SetReference(data)
		o.banner = ""
		o.ready = true
	}
	snap := o.changedLocked()
	o.mu.Unlock()

	o.notify(snap, false)
	if err != nil {
		o.logger.Error("reference data unavailable", map[string]any{"error": err})
		return err
	}
	o.logger.Info("reference data loaded", map[string]any{
		"city_scoping":   o.cityScoping,
		"cities":         len(data.Cities),
		"property_types": len(data.PropertyTypes),
	})
	return nil
}

// SetField applies an edit. Any visible result, error or in-flight submission
// is discarded, even when value equals the current one. Selecting a new city
// starts an area fetch in the background; use AwaitAreas to block on it.
func (o *Orchestrator) SetField(ctx context.Context, name model.FieldName, value string) error {
	o.mu.Lock()
	change, err := o.store.Set(name, value)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	invalidated := o.invalidateLocked()
	if !change.Changed && !invalidated {
		o.mu.Unlock()
		return nil
	}

	if change.Changed && change.Field == model.FieldCity {
		o.areaSeq++
		o.areaDone = nil
		if change.FetchAreas {
			done := make(chan struct{})
			o.areaDone = done
			o.wg.Add(1)
			go o.fetchAreas(ctx, o.areaSeq, change.Value, done)
		}
	}
	snap := o.changedLocked()
	o.mu.Unlock()

	o.logger.Debug("field updated", map[string]any{
		"field":        string(name),
		"changed":      change.Changed,
		"area_cleared": change.AreaCleared,
	})
	o.notify(snap, false)
	return nil
}

// AwaitAreas blocks until the area fetch for the selected city settles.
func (o *Orchestrator) AwaitAreas(ctx context.Context) error {
	o.mu.Lock()
	done := o.areaDone
	o.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) fetchAreas(ctx context.Context, seq uint64, city string, done chan struct{}) {
	defer o.wg.Done()
	defer close(done)

	fetchCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	areas, err := o.loader.LoadAreas(fetchCtx, city)

	o.mu.Lock()
	if seq != o.areaSeq || o.store.Value(model.FieldCity) != city {
		o.mu.Unlock()
		o.logger.Debug("dropping stale area list", map[string]any{"city": city})
		return
	}
	o.areaDone = nil
	if err == nil {
		o.store.SetAreas(areas)
	}
	snap := o.changedLocked()
	o.mu.Unlock()

	if err != nil {
		// The previous list stays in place and the user is not told.
		o.logger.Warn("area list unavailable", map[string]any{"city": city, "error": err})
	}
	o.notify(snap, false)
}

// Clear resets every field, drops any in-flight work and returns the view to
// the placeholder. The reference load banner is kept.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	o.store.Clear()
	o.invalidateLocked()
	o.areaSeq++
	o.areaDone = nil
	snap := o.changedLocked()
	o.mu.Unlock()

	o.notify(snap, false)
}

// invalidateLocked implements "edit invalidates result": result and error
// return to the placeholder and an in-flight submission is superseded. It
// reports whether the view changed.
func (o *Orchestrator) invalidateLocked() bool {
	switch o.view.Kind() {
	case model.ViewResult, model.ViewError:
		o.view = model.Placeholder()
	case model.ViewLoading:
		o.view = model.Placeholder()
		o.supersedeLocked()
	default:
		return false
	}
	return true
}

func (o *Orchestrator) supersedeLocked() {
	o.submitSeq++
	if o.cancelSubmit != nil {
		o.cancelSubmit()
		o.cancelSubmit = nil
	}
	if o.inflight != nil {
		o.inflight.settle(o.view, ErrSuperseded)
		o.metrics.ObserveSubmission(metrics.OutcomeSuperseded)
		o.inflight = nil
	}
}

// Submit starts a prediction for the current form. It fails fast without
// touching the view when the form is incomplete or invalid.
func (o *Orchestrator) Submit(ctx context.Context) (*Pending, error) {
	if o.initErr != nil {
		return nil, o.initErr
	}

	o.mu.Lock()
	if !o.ready {
		o.mu.Unlock()
		return nil, ErrNotReady
	}
	input, err := o.store.Input()
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}

	o.supersedeLocked()
	seq := o.submitSeq
	reqCtx, cancel := context.WithTimeout(ctx, o.timeout)
	pending := newPending(seq)
	o.inflight = pending
	o.cancelSubmit = cancel
	o.view = model.Loading()
	snap := o.changedLocked()
	o.mu.Unlock()

	o.logger.Info("submitting prediction", map[string]any{"sequence": seq, "area": input.Area})
	o.notify(snap, false)

	o.wg.Add(1)
	go o.run(reqCtx, cancel, seq, input)
	return pending, nil
}

type outcome struct {
	result model.PredictionResult
	err    error
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, seq uint64, input model.FormInput) {
	defer o.wg.Done()
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		res, err := o.predictor.Predict(ctx, input)
		ch <- outcome{result: res, err: err}
	}()

	var out outcome
	select {
	case out = <-ch:
	case <-ctx.Done():
		out = outcome{err: ctx.Err()}
	}
	o.resolve(seq, out)
}

func (o *Orchestrator) resolve(seq uint64, out outcome) {
	o.mu.Lock()
	if seq != o.submitSeq {
		o.mu.Unlock()
		o.logger.Debug("dropping stale prediction response", map[string]any{"sequence": seq})
		return
	}

	var label string
	if out.err == nil {
		o.view = model.Succeeded(out.result)
		label = metrics.OutcomeSuccess
	} else {
		o.view = model.Failed(messageFor(out.err))
		label = metrics.OutcomeError
		if isTimeout(out.err) {
			label = metrics.OutcomeTimeout
		}
	}
	state := o.view
	pending := o.inflight
	o.inflight = nil
	o.cancelSubmit = nil
	snap := o.changedLocked()
	o.mu.Unlock()

	o.metrics.ObserveSubmission(label)
	if out.err != nil {
		o.logger.Warn("prediction failed", map[string]any{"sequence": seq, "error": out.err})
	} else {
		o.logger.Info("prediction received", map[string]any{"sequence": seq, "price": out.result.PriceFormatted})
	}

	o.notify(snap, out.err == nil)
	if pending != nil {
		pending.settle(state, nil)
	}
}

// messageFor normalises a submission failure into user facing text.
func messageFor(err error) string {
	if msg, ok := client.ServiceMessage(err); ok {
		return msg
	}
	return FallbackMessage
}

func isTimeout(err error) bool {
	return errors.Is(err, client.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// Drain blocks until background area fetches and submissions have settled.
// Late responses from a predictor that ignores its context are not awaited.
func (o *Orchestrator) Drain() {
	o.wg.Wait()
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	return Snapshot{
		CityScoping:  o.cityScoping,
		Values:       o.store.Values(),
		Reference:    o.store.Reference(),
		View:         o.view,
		Banner:       o.banner,
		Ready:        o.ready,
		AreasLoading: o.areaDone != nil,
		Missing:      o.store.Missing(),
		Sequence:     o.submitSeq,
		Version:      o.version,
	}
}

// changedLocked records a state change and returns the snapshot to deliver.
func (o *Orchestrator) changedLocked() Snapshot {
	o.version++
	return o.snapshotLocked()
}

// notify hands snap to the change hooks, dropping it when a newer snapshot was
// already delivered. Result hooks run when enteredResult is set and the result
// is still the visible view. Hooks run one at a time and must not call back
// into the orchestrator.
func (o *Orchestrator) notify(snap Snapshot, enteredResult bool) {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()
	if snap.Version <= o.delivered {
		o.logger.Debug("dropping stale snapshot", map[string]any{"version": snap.Version})
		return
	}
	o.delivered = snap.Version

	for _, hook := range o.changeHooks {
		hook(snap)
	}
	if !enteredResult || len(o.resultHooks) == 0 {
		return
	}
	res, ok := snap.View.Result()
	if !ok || !o.current(snap) {
		return
	}
	for _, hook := range o.resultHooks {
		hook(res.Clone())
	}
}

// current reports whether snap still describes the visible submission.
func (o *Orchestrator) current(snap Snapshot) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.submitSeq == snap.Sequence && o.view.Kind() == snap.View.Kind()
}

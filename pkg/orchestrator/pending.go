package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-estimator/pkg/model"
)

// ErrSuperseded is returned by Pending.Wait when a newer submission, an edit
// or Clear replaced the submission before it resolved.
var ErrSuperseded = errors.New("orchestrator: submission superseded")

// Pending tracks one submission until it resolves or is superseded.
type Pending struct {
	seq   uint64
	done  chan struct{}
	once  sync.Once
	state model.ViewState
	err   error
}

func newPending(seq uint64) *Pending {
	return &Pending{seq: seq, done: make(chan struct{})}
}

// Sequence is the submission number.
func (p *Pending) Sequence() uint64 {
	return p.seq
}

// Done is closed once the submission settles.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the submission settles and returns the view it produced.
// Superseded submissions return the view current at that time and ErrSuperseded.
func (p *Pending) Wait(ctx context.Context) (model.ViewState, error) {
	select {
	case <-p.done:
		return p.state, p.err
	case <-ctx.Done():
		return model.ViewState{}, ctx.Err()
	}
}

func (p *Pending) settle(state model.ViewState, err error) {
	p.once.Do(func() {
		p.state = state
		p.err = err
		close(p.done)
	})
}

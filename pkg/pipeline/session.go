package pipeline

import (
	"context"
	"sync"

	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/observability"
	"github.com/matzehuels/autolayout/pkg/scene"
)

// ErrSuperseded is returned for a run whose result was discarded because a
// newer run was submitted to the same session.
var ErrSuperseded = errors.New(errors.ErrCodeSuperseded, "superseded by a newer selection")

// Session serializes a host's selection changes. Each Submit cancels the run
// in flight and only the latest run may deliver a result.
type Session struct {
	runner *Runner

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewSession creates a session over r.
func NewSession(r *Runner) *Session {
	return &Session{runner: r}
}

// Submit runs a conversion of src. If another Submit starts before this one
// finishes, this one returns ErrSuperseded.
func (s *Session) Submit(ctx context.Context, src scene.Source, opts Options) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.mu.Unlock()

	res, err := s.runner.Execute(ctx, src, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		observability.Pipeline().OnSuperseded(ctx)
		return nil, ErrSuperseded
	}
	s.cancel = nil
	return res, err
}

// Generation returns the number of runs submitted so far.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Cancel aborts the run in flight, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

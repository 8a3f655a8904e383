package provider

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// State is the initialisation state of a Lazy extractor
type State int32

const (
	StatePending State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InitFunc loads an extractor, e.g. by warming up a model.
type InitFunc func(ctx context.Context) (Extractor, error)

// Lazy is a single-initialisation handle around an Extractor.
// Init runs at most once per Lazy. Until it succeeds, Extract returns ErrExtractorUnavailable.
type Lazy struct {
	init      InitFunc
	dimension int

	once  sync.Once
	state atomic.Int32
	done  chan struct{}

	// written once before state becomes ready or failed
	extractor Extractor
	err       error
}

// NewLazy creates a handle for an extractor producing embeddings of the given dimension.
func NewLazy(dimension int, init InitFunc) *Lazy {
	return &Lazy{
		init:      init,
		dimension: dimension,
		done:      make(chan struct{}),
	}
}

// Start begins initialisation in the background. Subsequent calls are no-ops.
func (l *Lazy) Start(ctx context.Context) {
	l.once.Do(func() {
		l.state.Store(int32(StateInitializing))
		go l.run(ctx)
	})
}

func (l *Lazy) run(ctx context.Context) {
	defer close(l.done)

	ex, err := l.init(ctx)
	if err == nil && ex == nil {
		err = fmt.Errorf("init returned no extractor")
	}
	if err == nil && ex.Dimension() != l.dimension {
		err = fmt.Errorf("extractor dimension %d, want %d", ex.Dimension(), l.dimension)
	}

	if err != nil {
		l.err = err
		l.state.Store(int32(StateFailed))
		return
	}

	l.extractor = ex
	l.state.Store(int32(StateReady))
}

// WaitReady starts initialisation if needed and blocks until it completes or ctx is done.
// Init runs detached from ctx cancellation, so a caller giving up early does not fail
// the shared initialisation for later callers.
func (l *Lazy) WaitReady(ctx context.Context) error {
	l.Start(context.WithoutCancel(ctx))

	select {
	case <-l.done:
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrExtractorUnavailable, ctx.Err())
	}

	if l.State() == StateFailed {
		return fmt.Errorf("%w: init: %v", ErrExtractorUnavailable, l.err)
	}
	return nil
}

// State returns the current initialisation state.
func (l *Lazy) State() State {
	return State(l.state.Load())
}

// Ready reports whether the extractor accepts requests.
func (l *Lazy) Ready() bool {
	return l.State() == StateReady
}

// Extract delegates to the loaded extractor or fails with ErrExtractorUnavailable.
func (l *Lazy) Extract(ctx context.Context, image Image) (*Detection, error) {
	switch l.State() {
	case StateReady:
		return l.extractor.Extract(ctx, image)
	case StateFailed:
		return nil, fmt.Errorf("%w: init: %v", ErrExtractorUnavailable, l.err)
	default:
		return nil, fmt.Errorf("%w: %s", ErrExtractorUnavailable, l.State())
	}
}

// Dimension returns the configured embedding dimension.
func (l *Lazy) Dimension() int {
	return l.dimension
}

var _ Extractor = (*Lazy)(nil)

// Package stream folds incremental text fragments into a single display buffer.
package stream

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Fragment is one piece of generated text. A fragment with Err set is the
// terminal error signal of its source; the source closes the channel after it.
type Fragment struct {
	Text string
	Err  error
}

type State int

const (
	Idle State = iota
	Streaming
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

var ErrNotRestartable = errors.New("accumulator already used")

// EmitFunc receives the whole buffer after each fragment.
type EmitFunc func(buffer string) error

// Accumulator owns the display buffer of exactly one compose or refine
// operation. A new operation needs a new Accumulator.
type Accumulator struct {
	mu        sync.RWMutex
	buf       strings.Builder
	state     State
	started   bool
	fragments int
	errorText string
}

// New returns an idle accumulator that shows errorText when its source fails.
func New(errorText string) *Accumulator {
	return &Accumulator{errorText: errorText}
}

// Run consumes fragments until the source closes, fails, or ctx is done.
//
// On a source error the buffer is replaced by the fixed error text, which is
// emitted once, and the source error is returned. On cancellation, or when
// emit fails because the subscriber went away, the remaining fragments are
// dropped without emitting anything.
func (a *Accumulator) Run(ctx context.Context, fragments <-chan Fragment, emit EmitFunc) (string, error) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return "", ErrNotRestartable
	}
	a.started = true
	a.mu.Unlock()

	if emit == nil {
		emit = func(string) error { return nil }
	}

	for {
		select {
		case <-ctx.Done():
			a.setState(Failed)
			return a.Buffer(), ctx.Err()
		case frag, ok := <-fragments:
			// A source closed by the cancellation is not a completed one.
			if err := ctx.Err(); err != nil {
				a.setState(Failed)
				return a.Buffer(), err
			}
			if !ok {
				a.setState(Completed)
				return a.Buffer(), nil
			}
			if frag.Err != nil {
				a.fail()
				if err := emit(a.errorText); err != nil {
					return a.errorText, errors.Join(frag.Err, err)
				}
				return a.errorText, frag.Err
			}

			snapshot := a.append(frag.Text)
			if err := emit(snapshot); err != nil {
				a.setState(Failed)
				return snapshot, err
			}
		}
	}
}

func (a *Accumulator) append(text string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state = Streaming
	a.fragments++
	a.buf.WriteString(text)
	return a.buf.String()
}

func (a *Accumulator) fail() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.buf.Reset()
	a.buf.WriteString(a.errorText)
	a.state = Failed
}

func (a *Accumulator) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Buffer returns the current display text.
func (a *Accumulator) Buffer() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.buf.String()
}

func (a *Accumulator) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Fragments returns how many fragments have been folded in so far.
func (a *Accumulator) Fragments() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.fragments
}

// Collect drains fragments into one string. The first error stops it.
func Collect(ctx context.Context, fragments <-chan Fragment) (string, error) {
	return New("").Run(ctx, fragments, nil)
}

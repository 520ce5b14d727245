package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const failureText = "Sorry, an error occurred while generating the email."

func feed(frags ...Fragment) <-chan Fragment {
	ch := make(chan Fragment, len(frags))
	for _, f := range frags {
		ch <- f
	}
	close(ch)
	return ch
}

func texts(parts ...string) []Fragment {
	out := make([]Fragment, len(parts))
	for i, p := range parts {
		out[i] = Fragment{Text: p}
	}
	return out
}

func TestAccumulator_ProgressiveBuffer(t *testing.T) {
	acc := New(failureText)
	assert.Equal(t, Idle, acc.State())

	var seen []string
	out, err := acc.Run(context.Background(), feed(texts("Hello", " there", ".")...), func(buf string) error {
		seen = append(seen, buf)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello there.", out)
	assert.Equal(t, []string{"Hello", "Hello there", "Hello there."}, seen)
	assert.Equal(t, Completed, acc.State())
	assert.Equal(t, 3, acc.Fragments())
}

func TestAccumulator_EmptySourceCompletes(t *testing.T) {
	acc := New(failureText)
	out, err := acc.Run(context.Background(), feed(), nil)

	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, Completed, acc.State())
}

func TestAccumulator_MidStreamFailureReplacesBuffer(t *testing.T) {
	boom := errors.New("connection reset")
	acc := New(failureText)

	var seen []string
	out, err := acc.Run(context.Background(), feed(
		Fragment{Text: "Dear"},
		Fragment{Text: " customer"},
		Fragment{Err: boom},
	), func(buf string) error {
		seen = append(seen, buf)
		return nil
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, failureText, out)
	assert.Equal(t, failureText, acc.Buffer())
	assert.Equal(t, []string{"Dear", "Dear customer", failureText}, seen)
	assert.Equal(t, Failed, acc.State())
}

func TestAccumulator_CancellationDropsRemainingFragments(t *testing.T) {
	ch := make(chan Fragment)
	ctx, cancel := context.WithCancel(context.Background())

	acc := New(failureText)
	done := make(chan error, 1)
	emitted := make(chan string, 4)
	go func() {
		_, err := acc.Run(ctx, ch, func(buf string) error {
			emitted <- buf
			return nil
		})
		done <- err
	}()

	ch <- Fragment{Text: "partial"}
	assert.Equal(t, "partial", <-emitted)
	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Failed, acc.State())
	assert.Equal(t, "partial", acc.Buffer())
	assert.Empty(t, emitted)
}

func TestAccumulator_SourceClosedAfterCancelIsNotCompleted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	acc := New(failureText)
	_, err := acc.Run(ctx, feed(), nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Failed, acc.State())
}

func TestAccumulator_SubscriberGoneStopsRun(t *testing.T) {
	gone := errors.New("socket closed")
	acc := New(failureText)

	calls := 0
	_, err := acc.Run(context.Background(), feed(texts("a", "b", "c")...), func(string) error {
		calls++
		return gone
	})

	require.ErrorIs(t, err, gone)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Failed, acc.State())
}

func TestAccumulator_NotRestartable(t *testing.T) {
	acc := New(failureText)
	_, err := acc.Run(context.Background(), feed(texts("one")...), nil)
	require.NoError(t, err)

	_, err = acc.Run(context.Background(), feed(texts("two")...), nil)
	assert.ErrorIs(t, err, ErrNotRestartable)
	assert.Equal(t, "one", acc.Buffer())
}

func TestCollect(t *testing.T) {
	out, err := Collect(context.Background(), feed(texts("a", "b")...))
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
}

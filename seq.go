package streammore

import (
	"context"
	"iter"
)

// Values returns a stream producing the given values in order, then
// ending.
func Values[V any](values ...V) iter.Seq2[V, error] {
	return func(yield func(V, error) bool) {
		for _, v := range values {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// FromSeq lifts a plain sequence into a stream that never fails.
func FromSeq[V any](seq iter.Seq[V]) iter.Seq2[V, error] {
	return func(yield func(V, error) bool) {
		for v := range seq {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// FromChan returns a stream fed by a live channel. The stream ends when
// the channel is closed, and fails with the context error when ctx is
// cancelled first. Pulling from the stream suspends while the producer
// has nothing ready; producers on other channels are not held up by it.
func FromChan[V any](ctx context.Context, ch <-chan V) iter.Seq2[V, error] {
	return func(yield func(V, error) bool) {
		for {
			select {
			case v, ok := <-ch:
				if !ok {
					return
				}
				if !yield(v, nil) {
					return
				}
			case <-ctx.Done():
				var zero V
				yield(zero, ctx.Err())
				return
			}
		}
	}
}

// Fail returns a stream that fails immediately with err.
func Fail[V any](err error) iter.Seq2[V, error] {
	return func(yield func(V, error) bool) {
		var zero V
		yield(zero, err)
	}
}

// Collect drains the stream and returns the gathered values. It stops at
// the first error, returning the values gathered before it along with the
// error, which makes it the abort-on-first-error way to consume a merge.
func Collect[V any](seq iter.Seq2[V, error]) ([]V, error) {
	var values []V
	for v, err := range seq {
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
	return values, nil
}

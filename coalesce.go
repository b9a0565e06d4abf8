package streammore

import "iter"

// Coalesce returns a stream that merges adjacent values of seq with f.
//
// The function f is called with the previous and the current value and
// reports whether it merged them. When it does, the merged value replaces
// both and is matched against the next value; when it does not, the
// previous value is emitted and the current one takes its place. The
// value left pending at the end is emitted last.
//
// Upstream errors are forwarded in place; the pending value stays
// buffered and coalescing resumes with the values after the failure.
func Coalesce[V any](seq iter.Seq2[V, error], f func(prev, curr V) (V, bool)) iter.Seq2[V, error] {
	return func(yield func(V, error) bool) {
		var prev V
		var pending bool

		for v, err := range seq {
			if err != nil {
				var zero V
				if !yield(zero, err) {
					return
				}
				continue
			}
			if !pending {
				prev, pending = v, true
				continue
			}
			if merged, ok := f(prev, v); ok {
				prev = merged
				continue
			}
			if !yield(prev, nil) {
				return
			}
			prev = v
		}

		if pending {
			yield(prev, nil)
		}
	}
}

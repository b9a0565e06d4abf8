// Package streammore implements order-preserving combinators for fallible
// ordered sequences ("streams"), chiefly a k-way sort merge.
//
// A stream is an iter.Seq2[V, error] whose error position carries upstream
// failures in-band. A stream may suspend its consumer while producing the
// next value, for example when backed by a live channel; see FromChan.
//
// Streams are expected to be fused: after signaling the end, a stream must
// not produce again. A stream violating this is not defended against.
package streammore

import (
	"cmp"
	"iter"
)

// Merge merges multiple streams into one. The streams must produce values
// in ascending order.
func Merge[V cmp.Ordered](seqs ...iter.Seq2[V, error]) iter.Seq2[V, error] {
	return MergeMin(seqs...)
}

// MergeMin merges multiple streams into one, always choosing the smallest
// of the values currently offered by the streams. If every stream is
// ascending, the result is ascending.
func MergeMin[V cmp.Ordered](seqs ...iter.Seq2[V, error]) iter.Seq2[V, error] {
	return MergeBy(func(a, b V) bool { return a < b }, seqs...)
}

// MergeMax merges multiple streams into one, always choosing the largest
// of the values currently offered by the streams. If every stream is
// descending, the result is descending.
func MergeMax[V cmp.Ordered](seqs ...iter.Seq2[V, error]) iter.Seq2[V, error] {
	return MergeBy(func(a, b V) bool { return a > b }, seqs...)
}

// MergeFunc merges multiple streams into one using the given comparison
// function to determine the order of values. The streams must be ordered
// by the same comparison function.
func MergeFunc[V any](cmp func(V, V) int, seqs ...iter.Seq2[V, error]) iter.Seq2[V, error] {
	return MergeBy(func(a, b V) bool { return cmp(a, b) < 0 }, seqs...)
}

// MergeBy merges multiple streams into one. The function first is called
// with two values a, b and must report whether a has to be emitted before
// b. If every stream is ordered by first, the result is ordered by first.
//
// When neither of two offered values precedes the other, the stream that
// was listed first wins, and values of one stream are never reordered
// among themselves.
//
// A failing stream surfaces as one *SourceError emission and is dropped
// from the merge; the remaining streams keep producing. The function
// first must behave as a strict preference: first(a, a) must be false.
func MergeBy[V any](first func(a, b V) bool, seqs ...iter.Seq2[V, error]) iter.Seq2[V, error] {
	switch len(seqs) {
	case 0:
		return merge0[V]()
	case 1:
		return seqs[0]
	case 2:
		return merge2(first, seqs[0], seqs[1])
	default:
		return mergeN(first, seqs)
	}
}

//go:noinline
func merge0[V any]() iter.Seq2[V, error] {
	return func(func(V, error) bool) {}
}

//go:noinline
func merge2[V any](first func(V, V) bool, seq0, seq1 iter.Seq2[V, error]) iter.Seq2[V, error] {
	return func(yield func(V, error) bool) {
		next0, stop0 := iter.Pull2(seq0)
		defer stop0()

		next1, stop1 := iter.Pull2(seq1)
		defer stop1()

		var zero V
		v0, err0, ok0 := next0()
		v1, err1, ok1 := next1()

		for {
			if ok0 && err0 != nil {
				ok0 = false
				if !yield(zero, &SourceError{Source: 0, Err: err0}) {
					return
				}
			}
			if ok1 && err1 != nil {
				ok1 = false
				if !yield(zero, &SourceError{Source: 1, Err: err1}) {
					return
				}
			}

			switch {
			case ok0 && ok1:
				if first(v1, v0) {
					if !yield(v1, nil) {
						return
					}
					v1, err1, ok1 = next1()
				} else {
					if !yield(v0, nil) {
						return
					}
					v0, err0, ok0 = next0()
				}
			case ok0:
				if !yield(v0, nil) {
					return
				}
				v0, err0, ok0 = next0()
			case ok1:
				if !yield(v1, nil) {
					return
				}
				v1, err1, ok1 = next1()
			default:
				return
			}
		}
	}
}

//go:noinline
func mergeN[V any](first func(V, V) bool, seqs []iter.Seq2[V, error]) iter.Seq2[V, error] {
	return func(yield func(V, error) bool) {
		tree, errs := buildTree(first, seqs...)
		defer tree.stop()

		var zero V
		for _, err := range errs {
			if !yield(zero, err) {
				return
			}
		}

		for {
			value, err, ok := tree.next()
			if !ok {
				return
			}
			if !yield(value, err) {
				return
			}
		}
	}
}

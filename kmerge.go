package streammore

import (
	"cmp"
	"fmt"
	"iter"

	"github.com/xlab/treeprint"
)

// SourceError reports the failure of one of the merged streams. The
// failing stream is dropped from the merge; the remaining streams keep
// producing.
type SourceError struct {
	// Source is the position of the failing stream, in the order the
	// streams were handed to the merge.
	Source int

	// Err is the upstream error, unchanged.
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("merge source %d: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// A slot owns one stream and holds at most one value peeked off it.
//
// A slot that reported the end of its stream, or an error, is done for
// good: its peek is cleared, its stream released, and it never produces
// again.
type slot[T any] struct {
	index  int
	next   func() (T, error, bool)
	stop   func()
	value  T
	peeked bool
	done   bool
}

// ensurePeeked pulls the next value off the stream unless the slot
// already holds one or the stream is over. The call suspends until the
// stream produces, ends, or fails. An upstream failure is reported
// exactly once and exhausts the slot.
func (s *slot[T]) ensurePeeked() error {
	if s.done || s.peeked {
		return nil
	}
	v, err, ok := s.next()
	if err != nil {
		s.exhaust()
		return &SourceError{Source: s.index, Err: err}
	}
	if !ok {
		s.exhaust()
		return nil
	}
	s.value, s.peeked = v, true
	return nil
}

// take returns the peeked value and clears the peek. The slot must hold
// a peeked value.
func (s *slot[T]) take() T {
	v := s.value
	var zero T
	s.value, s.peeked = zero, false
	return v
}

func (s *slot[T]) exhaust() {
	var zero T
	s.value, s.peeked = zero, false
	s.done = true
	s.stop()
}

// KMerge merges streams in a caller-specified order, pulling one value
// at a time.
//
// The slots sit in a binary heap that surfaces un-peeked slots first, so
// that every stream has been peeked before a value is chosen; among
// peeked slots the preferred value wins and equal values fall back to the
// smallest stream position. Choosing the next value is O(log k) for k
// streams, and at most one value per stream is buffered at any time.
type KMerge[T any] struct {
	first func(a, b T) bool
	slots []*slot[T] // every stream ever merged, by position
	heap  []*slot[T] // the slots that are not done yet
}

// KMergeBy returns an empty merge that orders values by the function
// first, which is called with two values a, b and must report whether a
// has to be emitted before b.
func KMergeBy[T any](first func(a, b T) bool) *KMerge[T] {
	return &KMerge[T]{first: first}
}

// KMergeMin returns an empty merge choosing the smallest offered value
// first, behaving like a min-heap over the streams.
func KMergeMin[T cmp.Ordered]() *KMerge[T] {
	return KMergeBy[T](func(a, b T) bool { return a < b })
}

// KMergeMax returns an empty merge choosing the largest offered value
// first, behaving like a max-heap over the streams.
func KMergeMax[T cmp.Ordered]() *KMerge[T] {
	return KMergeBy[T](func(a, b T) bool { return a > b })
}

// Merge appends another stream to the merge. It may be called at any
// time, also after values were already pulled.
func (m *KMerge[T]) Merge(seq iter.Seq2[T, error]) *KMerge[T] {
	next, stop := iter.Pull2(seq)
	s := &slot[T]{index: len(m.slots), next: next, stop: stop}
	m.slots = append(m.slots, s)
	m.heap = heapPush(m.heap, s, m.less)
	return m
}

// less orders the heap. Un-peeked slots come first so they are filled
// before any value is chosen, mirroring the uninitialized-first ordering
// of the original peek round.
func (m *KMerge[T]) less(a, b *slot[T]) bool {
	if !a.peeked || !b.peeked {
		if a.peeked == b.peeked {
			return a.index < b.index
		}
		return !a.peeked
	}
	if m.first(a.value, b.value) {
		return true
	}
	if m.first(b.value, a.value) {
		return false
	}
	return a.index < b.index
}

// Next returns the next merged value.
//
// A failing stream is reported as a non-nil error with ok still true; the
// stream is dropped and later calls keep merging the remaining ones. Once
// every stream ended, Next returns ok == false, and keeps doing so.
func (m *KMerge[T]) Next() (value T, err error, ok bool) {
	for len(m.heap) > 0 {
		top := m.heap[0]
		if !top.peeked {
			err := top.ensurePeeked()
			if top.done {
				m.heap = heapPop(m.heap, m.less)
			} else {
				heapFix(m.heap, 0, m.less)
			}
			if err != nil {
				return value, err, true
			}
			continue
		}

		value = top.take()
		heapFix(m.heap, 0, m.less)
		return value, nil, true
	}
	return value, nil, false
}

// Stop releases every underlying stream and discards the peeked values.
// It is safe to call more than once; afterwards Next reports the end.
func (m *KMerge[T]) Stop() {
	for _, s := range m.slots {
		if !s.done {
			s.exhaust()
		}
	}
	m.heap = m.heap[:0]
}

// All drives the merge as a range function. The underlying streams are
// released when the loop ends, also on an early break.
func (m *KMerge[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer m.Stop()
		for {
			value, err, ok := m.Next()
			if !ok {
				return
			}
			if !yield(value, err) {
				return
			}
		}
	}
}

// String renders the slot heap for debugging, one branch per slot with
// its stream position and peeked value.
func (m *KMerge[T]) String() string {
	p := treeprint.New()
	m.describe(p, 0)
	return p.String()
}

func (m *KMerge[T]) describe(branch treeprint.Tree, i int) {
	if i >= len(m.heap) {
		return
	}
	s := m.heap[i]
	var label string
	if s.peeked {
		label = fmt.Sprintf("source %d: %v", s.index, s.value)
	} else {
		label = fmt.Sprintf("source %d: (not peeked)", s.index)
	}
	b := branch.AddBranch(label)
	m.describe(b, 2*i+1)
	m.describe(b, 2*i+2)
}

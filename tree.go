package streammore

import "iter"

// tree is a tournament (loser) tree over the cursors of the merged
// streams, backing the N-way path of MergeBy.
//
// The tree is laid out in an array of 2m nodes for m cursors: leaves in
// the second half, internal nodes in the first. Every internal node
// stores the loser of the game between its subtrees; the overall winner
// is kept aside. Replacing the winner's value replays only the games on
// its path to the root, so choosing the next value is O(log k).
type tree[T any] struct {
	first   func(T, T) bool
	cursors []cursor[T]
	nodes   []node
	count   int
	winner  node
	pending bool // the winner's head was displaced by an error emission
}

type node struct {
	index int // position in nodes, -1 when unset
	value int // cursor backing the node, -1 when unset
}

// cursor wraps one stream and its current head value.
type cursor[T any] struct {
	source int // stable position of the originating stream
	value  T
	next   func() (T, error, bool)
	stop   func()
}

// buildTree pulls the head of every stream and arranges the non-empty
// ones as tree leaves. Streams that fail on the first pull are reported
// in the returned errors, in stream order, and take no part in the merge.
func buildTree[T any](first func(T, T) bool, seqs ...iter.Seq2[T, error]) (*tree[T], []error) {
	t := &tree[T]{
		first:  first,
		winner: node{index: -1, value: -1},
	}

	var errs []error
	for i, seq := range seqs {
		next, stop := iter.Pull2(seq)
		v, err, ok := next()
		switch {
		case err != nil:
			stop()
			errs = append(errs, &SourceError{Source: i, Err: err})
		case ok:
			t.cursors = append(t.cursors, cursor[T]{
				source: i,
				value:  v,
				next:   next,
				stop:   stop,
			})
		default:
			stop()
		}
	}

	t.count = len(t.cursors)
	t.nodes = make([]node, 2*len(t.cursors))

	head := t.nodes[:len(t.nodes)/2]
	tail := t.nodes[len(t.nodes)/2:]

	for i := range head {
		head[i] = node{index: -1, value: -1}
	}
	for i := range tail {
		tail[i] = node{index: i + len(tail), value: i}
	}
	return t, errs
}

// beats reports whether cursor i wins a game against cursor j. Values
// the ordering cannot distinguish fall back to the stream position, so
// ties always resolve to the leftmost stream.
func (t *tree[T]) beats(i, j int) bool {
	a, b := &t.cursors[i], &t.cursors[j]
	if t.first(a.value, b.value) {
		return true
	}
	if t.first(b.value, a.value) {
		return false
	}
	return a.source < b.source
}

func (t *tree[T]) initialize(i int) node {
	if i >= len(t.nodes) {
		return node{index: -1, value: -1}
	}
	n1 := t.initialize(left(i))
	n2 := t.initialize(right(i))
	if n1.index < 0 && n2.index < 0 {
		return t.nodes[i]
	}
	loser, winner := t.playGame(n1, n2)
	t.nodes[i] = loser
	return winner
}

func (t *tree[T]) playGame(n1, n2 node) (loser, winner node) {
	if n1.value < 0 {
		return n1, n2
	}
	if n2.value < 0 {
		return n2, n1
	}
	if t.beats(n1.value, n2.value) {
		return n2, n1
	}
	return n1, n2
}

// next returns the next merged value. A failing cursor yields one
// (zero, *SourceError, true) emission and is removed; the rest of the
// tree keeps playing. Once every cursor ended, next keeps returning
// ok == false.
func (t *tree[T]) next() (value T, err error, ok bool) {
	if t.count == 0 {
		return value, nil, false
	}

	winner := t.winner
	if winner.index < 0 {
		// First call: play the whole tree to find the first value.
		t.winner = t.initialize(0)
		return t.cursors[t.winner.value].value, nil, true
	}

	// The previous call returned an error instead of the winner's head;
	// emit that head now, without advancing anything.
	if t.pending {
		t.pending = false
		return t.cursors[winner.value].value, nil, true
	}

	// Advance the cursor that produced the previous value, then replay
	// its games up to the root.
	c := &t.cursors[winner.value]
	v, cerr, more := c.next()
	if cerr != nil || !more {
		c.stop()
		t.nodes[winner.index] = node{index: -1, value: -1}
		winner.value = -1
		t.count--
	} else {
		c.value = v
	}

	winner = t.replay(winner)
	t.winner = winner

	if cerr != nil {
		t.pending = t.count > 0
		return value, &SourceError{Source: c.source, Err: cerr}, true
	}
	if t.count == 0 {
		return value, nil, false
	}
	return t.cursors[winner.value].value, nil, true
}

func (t *tree[T]) replay(winner node) node {
	offset := parent(winner.index)
	for {
		player := t.nodes[offset]

		switch {
		case player.value < 0:
		case winner.value < 0, t.beats(player.value, winner.value):
			t.nodes[offset], winner = winner, player
		}

		if offset == 0 {
			break
		}

		offset = parent(offset)
	}
	return winner
}

func (t *tree[T]) stop() {
	for _, c := range t.cursors {
		c.stop()
	}
}

func parent(i int) int {
	return (i - 1) / 2
}

func left(i int) int {
	return (2 * i) + 1
}

func right(i int) int {
	return (2 * i) + 2
}

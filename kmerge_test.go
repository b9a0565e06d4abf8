package streammore

import (
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKMergeMin(t *testing.T) {
	m := KMergeMin[int]().Merge(Values(2, 4, 5)).Merge(Values(1, 3, 6))

	got, err := Collect(m.All())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, got)
}

func TestKMergeMax(t *testing.T) {
	m := KMergeMax[int]().Merge(Values(3, 1)).Merge(Values(4, 2)).Merge(Values(5))

	got, err := Collect(m.All())
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4, 3, 2, 1}, got)
}

func TestKMergeBy(t *testing.T) {
	m := KMergeBy(func(a, b int) bool { return a%3 < b%3 }).
		Merge(Values(4, 5, 2)).
		Merge(Values(6, 3, 1))

	got, err := Collect(m.All())
	require.NoError(t, err)
	assert.Equal(t, []int{6, 3, 4, 1, 5, 2}, got)
}

func TestKMergeEmpty(t *testing.T) {
	m := KMergeMin[int]()

	_, err, ok := m.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

// Once the merge reported the end, it keeps reporting it.
func TestKMergeFusedEnd(t *testing.T) {
	m := KMergeMin[int]().Merge(Values(1))

	v, err, ok := m.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	for range 3 {
		_, err, ok = m.Next()
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

// Streams may be appended while the merge is already being consumed.
func TestKMergeAppendAfterNext(t *testing.T) {
	m := KMergeMin[int]().Merge(Values(1, 3)).Merge(Values(2, 4))

	v, err, ok := m.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, err, ok = m.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	m.Merge(Values(1, 5))

	got, err := Collect(m.All())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4, 5}, got)
}

// A failing stream is reported once and dropped; the values the other
// streams had already offered keep coming, in order.
func TestKMergeBrokenStream(t *testing.T) {
	boom := errors.New("boom")
	m := KMergeMin[int]().
		Merge(Values(1, 4)).
		Merge(broken(boom, 2)).
		Merge(Values(3, 5))

	var values []int
	var errs []error
	for {
		v, err, ok := m.Next()
		if !ok {
			break
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		values = append(values, v)
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, values)
	require.Len(t, errs, 1)

	var srcErr *SourceError
	require.ErrorAs(t, errs[0], &srcErr)
	assert.Equal(t, 1, srcErr.Source)
	assert.ErrorIs(t, errs[0], boom)

	_, err, ok := m.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

// The merge looks at most one value ahead per stream, and only refills
// the stream it consumed from.
func TestKMergeSingleLookahead(t *testing.T) {
	counts := make([]int, 2)
	instrument := func(i int, seq iter.Seq2[int, error]) iter.Seq2[int, error] {
		return func(yield func(int, error) bool) {
			for v, err := range seq {
				counts[i]++
				if !yield(v, err) {
					return
				}
			}
		}
	}

	m := KMergeMin[int]().
		Merge(instrument(0, Values(1, 3))).
		Merge(instrument(1, Values(2, 4)))
	defer m.Stop()

	v, err, ok := m.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []int{1, 1}, counts)

	v, err, ok = m.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, []int{2, 1}, counts)
}

func TestKMergeStopReleases(t *testing.T) {
	released := make([]bool, 2)
	endless := func(i int) iter.Seq2[int, error] {
		return func(yield func(int, error) bool) {
			defer func() { released[i] = true }()
			for v := 0; ; v++ {
				if !yield(v, nil) {
					return
				}
			}
		}
	}

	m := KMergeMin[int]().Merge(endless(0)).Merge(endless(1))

	_, err, ok := m.Next()
	require.NoError(t, err)
	require.True(t, ok)

	m.Stop()
	assert.Equal(t, []bool{true, true}, released)

	_, err, ok = m.Next()
	require.NoError(t, err)
	assert.False(t, ok)

	m.Stop() // idempotent
}

func TestKMergeAllReleasesOnBreak(t *testing.T) {
	released := make([]bool, 2)
	endless := func(i int) iter.Seq2[int, error] {
		return func(yield func(int, error) bool) {
			defer func() { released[i] = true }()
			for v := i; ; v += 2 {
				if !yield(v, nil) {
					return
				}
			}
		}
	}

	m := KMergeMin[int]().Merge(endless(0)).Merge(endless(1))

	var got []int
	for v, err := range m.All() {
		require.NoError(t, err)
		got = append(got, v)
		if len(got) == 4 {
			break
		}
	}

	assert.Equal(t, []int{0, 1, 2, 3}, got)
	assert.Equal(t, []bool{true, true}, released)
}

func TestKMergeString(t *testing.T) {
	m := KMergeMin[int]().Merge(Values(1, 3)).Merge(Values(2, 4))
	defer m.Stop()

	v, err, ok := m.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	s := m.String()
	assert.Contains(t, s, "source 0: (not peeked)")
	assert.Contains(t, s, "source 1: 2")
}

func TestSourceError(t *testing.T) {
	boom := errors.New("boom")
	err := &SourceError{Source: 3, Err: boom}

	assert.Equal(t, "merge source 3: boom", err.Error())
	assert.ErrorIs(t, err, boom)
}

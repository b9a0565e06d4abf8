package streammore

// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

func heapPush[T any](h []*slot[T], s *slot[T], less func(a, b *slot[T]) bool) []*slot[T] {
	h = append(h, s)
	up(h, len(h)-1, less)
	return h
}

func heapPop[T any](h []*slot[T], less func(a, b *slot[T]) bool) []*slot[T] {
	n := len(h) - 1
	h[0], h[n] = h[n], h[0]
	down(h, 0, n, less)
	h[n] = nil
	return h[:n]
}

func heapFix[T any](h []*slot[T], i int, less func(a, b *slot[T]) bool) {
	if !down(h, i, len(h), less) {
		up(h, i, less)
	}
}

func up[T any](h []*slot[T], j int, less func(a, b *slot[T]) bool) {
	for {
		i := (j - 1) / 2 // parent
		if i == j || !less(h[j], h[i]) {
			break
		}
		h[i], h[j] = h[j], h[i]
		j = i
	}
}

func down[T any](h []*slot[T], i0, n int, less func(a, b *slot[T]) bool) bool {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 { // j1 < 0 after int overflow
			break
		}
		j := j1 // left child
		if j2 := j1 + 1; j2 < n && less(h[j2], h[j1]) {
			j = j2 // = 2*i + 2  // right child
		}
		if !less(h[j], h[i]) {
			break
		}
		h[i], h[j] = h[j], h[i]
		i = j
	}
	return i > i0
}

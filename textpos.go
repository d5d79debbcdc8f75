package repair

import "sort"

// textPositions is an array of text offsets that can be clustered (grouped
// by the pair starting at each offset) over arbitrary sub-ranges.
//
// Clustering uses an in-place pair-bucketed counting sort over a scratch
// table of hashSize×hashSize (begin,end) slots. A companion bit per range
// position marks the first occurrence of each distinct pair, so restoring
// the scratch table afterwards costs no more than the range length. Offsets
// whose pair is NullPair (blanked or final positions) cluster at the tail of
// the range. When symbols outgrow the scratch table, as they do once the low
// phase has minted enough non-terminals, clustering falls back to comparison
// sort.
type textPositions struct {
	tp       []uint32
	t        *skipText
	scratch  []tpBucket
	first    []bool
	hashSize int
}

// tpBucket tracks one pair during a cluster pass: begin is the cluster start
// and end the next slot where an offset of this pair will be stored.
type tpBucket struct {
	begin, end uint32
}

// newTextPositions builds the index for the high-frequency phase: it counts
// ordered byte-pair frequencies in a 256×256 table and keeps exactly the
// offsets whose starting pair occurs at least minFreq times, clustered by
// pair. hashSize bounds the symbol values the scratch table can cluster.
func newTextPositions(t *skipText, minFreq int, hashSize int) *textPositions {
	assert(t.size() > 1, "position index needs at least one pair")
	assert(hashSize >= 256, "scratch table must cover the byte alphabet")

	var counts [256 * 256]uint32
	n := t.size()
	for i := 0; i < n-1; i++ {
		a, b := t.syms[i], t.syms[i+1]
		counts[uint32(a)<<8|uint32(b)]++
	}

	const null = ^uint32(0)
	total := uint32(0)
	for i, c := range counts {
		if int(c) < minFreq {
			counts[i] = null
			continue
		}
		counts[i] = total
		total += c
	}

	tp := &textPositions{
		tp:       make([]uint32, total),
		t:        t,
		scratch:  make([]tpBucket, hashSize*hashSize),
		hashSize: hashSize,
	}
	for i := 0; i < n-1; i++ {
		slot := uint32(t.syms[i])<<8 | uint32(t.syms[i+1])
		if counts[slot] != null {
			tp.tp[counts[slot]] = uint32(i)
			counts[slot]++
		}
	}
	return tp
}

func (x *textPositions) size() int    { return len(x.tp) }
func (x *textPositions) at(j int) int { return int(x.tp[j]) }

// fillAll replaces the index content with every text offset. Run once
// between the phases; the caller clusters afterwards.
func (x *textPositions) fillAll() {
	n := x.t.size()
	if cap(x.tp) < n {
		x.tp = make([]uint32, n)
	}
	x.tp = x.tp[:n]
	for i := range x.tp {
		x.tp[i] = uint32(i)
	}
}

func (x *textPositions) slot(ab Pair) int {
	return int(ab.Left)*x.hashSize + int(ab.Right)
}

func (x *textPositions) pairAt(k uint32) Pair {
	return x.t.pairStartingAt(int(x.tp[k]))
}

// cluster groups tp[lo:hi] by starting pair. Entries of the same pair become
// contiguous; order within a cluster is unspecified.
func (x *textPositions) cluster(lo, hi int) {
	if hi-lo < 2 {
		return
	}
	if int(x.t.maxSymbol()) >= x.hashSize {
		x.sortRange(lo, hi)
		return
	}
	if cap(x.first) < hi-lo {
		x.first = make([]bool, hi-lo)
	}
	first := x.first[:hi-lo]
	for k := range first {
		first[k] = false
	}
	h := x.scratch

	// count, marking the first occurrence of each pair
	for k := lo; k < hi; k++ {
		ab := x.pairAt(uint32(k))
		if ab == NullPair {
			continue
		}
		s := x.slot(ab)
		first[k-lo] = h[s].begin == 0
		h[s].begin++
	}

	// cumulate counts into cluster start offsets
	next := uint32(lo)
	for k := lo; k < hi; k++ {
		if !first[k-lo] {
			continue
		}
		s := x.slot(x.pairAt(uint32(k)))
		cnt := h[s].begin
		h[s].begin = next
		h[s].end = next
		next += cnt
	}
	nullStart := next

	for k := range first {
		first[k] = false
	}

	// permute in place; tail collects NullPair entries
	nullEnd := nullStart
	for k := uint32(lo); k < uint32(hi); {
		ab := x.pairAt(k)
		isNull := ab == NullPair
		var start, end uint32
		var s int
		if isNull {
			start, end = nullStart, nullEnd
		} else {
			s = x.slot(ab)
			start, end = h[s].begin, h[s].end
		}
		if k >= start && k <= end {
			first[int(k)-lo] = k == start && !isNull
			if end == k {
				if isNull {
					nullEnd++
				} else {
					h[s].end++
				}
			}
			k++
		} else {
			x.tp[k], x.tp[end] = x.tp[end], x.tp[k]
			if isNull {
				nullEnd++
			} else {
				h[s].end++
			}
		}
	}

	// restore the scratch table through the first-occurrence marks
	for k := lo; k < hi; k++ {
		if first[k-lo] {
			h[x.slot(x.pairAt(uint32(k)))] = tpBucket{}
		}
	}
}

// sortRange is the comparison-sort fallback for symbol values beyond the
// scratch table. NullPair sorts last because Blank is the largest symbol.
func (x *textPositions) sortRange(lo, hi int) {
	sub := x.tp[lo:hi]
	sort.Slice(sub, func(i, j int) bool {
		pi, pj := x.t.pairStartingAt(int(sub[i])), x.t.pairStartingAt(int(sub[j]))
		if pi.Left != pj.Left {
			return pi.Left < pj.Left
		}
		return pi.Right < pj.Right
	})
}

package repair

import (
	"math/rand"
	"sort"
	"testing"
)

func buildText(t *testing.T, input string) (*skipText, map[byte]Symbol) {
	t.Helper()
	code := make(map[byte]Symbol)
	st := newSkipText(len(input))
	for i := 0; i < len(input); i++ {
		b := input[i]
		if _, ok := code[b]; !ok {
			code[b] = Symbol(len(code))
		}
		st.set(i, code[b])
	}
	return st, code
}

// checkClustered verifies that equal pairs are contiguous in tp[lo:hi] and
// that NullPair entries sit at the tail.
func checkClustered(t *testing.T, x *textPositions, lo, hi int) {
	t.Helper()
	seen := make(map[Pair]bool)
	last := NullPair
	nullSeen := false
	for j := lo; j < hi; j++ {
		ab := x.t.pairStartingAt(x.at(j))
		if ab == NullPair {
			nullSeen = true
			continue
		}
		if nullSeen {
			t.Fatalf("offset %d: pair %v after the null tail", j, ab)
		}
		if ab != last {
			if seen[ab] {
				t.Fatalf("offset %d: pair %v split into separate runs", j, ab)
			}
			seen[ab] = true
			last = ab
		}
	}
}

func positionsMultiset(x *textPositions, lo, hi int) []uint32 {
	ps := make([]uint32, hi-lo)
	copy(ps, x.tp[lo:hi])
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
	return ps
}

func TestTextPositionsInitialClustering(t *testing.T) {
	// a=0 b=1 r=2 c=3 d=4; pairs with count >= 2: ab{0,7} br{1,8} ra{2,9}
	st, _ := buildText(t, "abracadabra")
	x := newTextPositions(st, 2, 256)
	if x.size() != 6 {
		t.Fatalf("tracked positions = %d, want 6", x.size())
	}
	checkClustered(t, x, 0, x.size())
	want := map[Pair][]uint32{
		{0, 1}: {0, 7},
		{1, 2}: {1, 8},
		{2, 0}: {2, 9},
	}
	got := make(map[Pair][]uint32)
	for j := 0; j < x.size(); j++ {
		ab := st.pairStartingAt(x.at(j))
		got[ab] = append(got[ab], uint32(x.at(j)))
	}
	for ab, offsets := range got {
		sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
		w, ok := want[ab]
		if !ok {
			t.Fatalf("unexpected tracked pair %v", ab)
		}
		if len(offsets) != len(w) {
			t.Fatalf("pair %v tracked at %v, want %v", ab, offsets, w)
		}
		for i := range w {
			if offsets[i] != w[i] {
				t.Fatalf("pair %v tracked at %v, want %v", ab, offsets, w)
			}
		}
	}
	if len(got) != len(want) {
		t.Fatalf("tracked %d distinct pairs, want %d", len(got), len(want))
	}
}

func TestTextPositionsBelowCutoffExcluded(t *testing.T) {
	st, _ := buildText(t, "abracadabra")
	x := newTextPositions(st, 3, 256)
	if x.size() != 0 {
		t.Fatalf("no pair reaches count 3, but %d positions tracked", x.size())
	}
}

func TestClusterFullRange(t *testing.T) {
	st, _ := buildText(t, "mississippi river is misty")
	x := newTextPositions(st, 2, 256)
	x.fillAll()
	if x.size() != st.size() {
		t.Fatalf("fillAll gave %d positions, want %d", x.size(), st.size())
	}
	before := positionsMultiset(x, 0, x.size())
	x.cluster(0, x.size())
	checkClustered(t, x, 0, x.size())
	after := positionsMultiset(x, 0, x.size())
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("cluster changed the position multiset")
		}
	}
}

// TestClusterSubrangeAfterReplacements blanks positions via replace and
// re-clusters a sub-range; blanked entries must gather at the sub-range tail.
func TestClusterSubrangeAfterReplacements(t *testing.T) {
	st, _ := buildText(t, "abababababababab")
	x := newTextPositions(st, 2, 256)
	x.fillAll()
	x.cluster(0, x.size())

	// replace three "ab" occurrences with symbol 2
	for _, i := range []int{0, 4, 8} {
		if st.pairStartingAt(i) != (Pair{0, 1}) {
			t.Fatalf("expected pair (0,1) at %d", i)
		}
		st.replace(i, 2)
	}
	lo, hi := 2, x.size()-1
	before := positionsMultiset(x, lo, hi)
	x.cluster(lo, hi)
	checkClustered(t, x, lo, hi)
	after := positionsMultiset(x, lo, hi)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("cluster changed the sub-range multiset")
		}
	}
}

// TestClusterFallback drives symbols beyond the scratch table so that
// clustering takes the comparison-sort path.
func TestClusterFallback(t *testing.T) {
	st, _ := buildText(t, "ababcdcdababcdcd")
	x := newTextPositions(st, 2, 256)
	x.fillAll()
	x.cluster(0, x.size())

	big := Symbol(300) // beyond hashSize 256
	for _, i := range []int{0, 8} {
		st.replace(i, big)
	}
	if int(st.maxSymbol()) < x.hashSize {
		t.Fatalf("test should exceed the scratch table")
	}
	x.cluster(0, x.size())
	checkClustered(t, x, 0, x.size())
}

func TestClusterRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n = 300
	st := newSkipText(n)
	for i := 0; i < n; i++ {
		st.set(i, Symbol(rng.Intn(4)))
	}
	x := newTextPositions(st, 2, 256)
	x.fillAll()
	x.cluster(0, x.size())
	checkClustered(t, x, 0, x.size())

	xsym := Symbol(10)
	for step := 0; step < 80; step++ {
		var candidates []int
		for i := 0; i < n; i++ {
			if st.pairStartingAt(i) != NullPair {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			break
		}
		st.replace(candidates[rng.Intn(len(candidates))], xsym)
		xsym++
		lo := rng.Intn(n - 1)
		hi := lo + 2 + rng.Intn(n-lo-1)
		if hi > n {
			hi = n
		}
		before := positionsMultiset(x, lo, hi)
		x.cluster(lo, hi)
		checkClustered(t, x, lo, hi)
		after := positionsMultiset(x, lo, hi)
		for i := range before {
			if before[i] != after[i] {
				t.Fatalf("step %d: cluster changed the sub-range multiset", step)
			}
		}
	}
}

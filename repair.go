package repair

import (
	"fmt"
	"math"

	"github.com/c2h5oh/datasize"
	"github.com/npillmayer/repair/gamma"
)

// Phase partition constants. The exponent splits pairs into a high-frequency
// phase (count >= n^phaseExponent) and a low-frequency rest; chunkDivisor
// caps how many records the low phase seeds at a time, bounding its queue to
// about n/chunkDivisor records. Both values are empirical.
const (
	phaseExponent = 2.0 / 3.0
	chunkDivisor  = 50
)

// maxInputLen is the largest input the 32-bit index width can address; one
// value is reserved so that position and symbol sentinels stay unambiguous.
const maxInputLen = 1<<32 - 2

// Compress computes the Re-Pair grammar of input. The returned grammar's
// Expand reproduces input exactly.
//
// Inputs longer than about 4 GiB exceed the internal 32-bit index width and
// are rejected before any allocation.
func Compress(input []byte) (*Grammar, error) {
	g, _, err := compress(input)
	return g, err
}

// phaseStats collects per-phase observations: the frequency of each chosen
// pair in selection order (the low phase keeps one series per seeded chunk)
// and the peak queue sizes.
type phaseStats struct {
	tau      int
	high     []uint32
	low      [][]uint32
	peakHigh int
	peakLow  int
}

func compress(input []byte) (*Grammar, *phaseStats, error) {
	n := len(input)
	if n > maxInputLen {
		return nil, nil, fmt.Errorf("input of %d bytes exceeds the 32-bit index range", n)
	}
	g := &Grammar{}
	stats := &phaseStats{}
	if n == 0 {
		return g, stats, nil
	}

	var code [256]Symbol
	for i := range code {
		code[i] = Blank
	}
	t := newSkipText(n)
	for i, b := range input {
		if code[b] == Blank {
			code[b] = Symbol(len(g.Alphabet))
			g.Alphabet = append(g.Alphabet, b)
		}
		t.set(i, code[b])
	}
	tracer().Infof("repair: input %s, alphabet size %d",
		datasize.ByteSize(n).HumanReadable(), len(g.Alphabet))

	if n == 1 {
		g.Seq = []Symbol{0}
		return g, stats, nil
	}

	tau := int(math.Pow(float64(n), phaseExponent))
	if tau < 2 {
		tau = 2
	}
	stats.tau = tau
	maxHighSymbol := 256 + n/tau
	tracer().Infof("repair: cut-off frequency %d, symbol width %d bits",
		tau, gamma.Width(uint64(maxHighSymbol)))

	e := &engine{
		t:     t,
		tp:    newTextPositions(t, tau, maxHighSymbol),
		g:     g,
		next:  Symbol(len(g.Alphabet)),
		stats: stats,
	}
	e.highFrequencyPhase(tau)
	e.lowFrequencyPhase(tau)

	g.Seq = make([]Symbol, 0, t.liveCount())
	for i := 0; i < n; i++ {
		if t.isLive(i) {
			g.Seq = append(g.Seq, t.syms[i])
		}
	}
	tracer().Infof("repair: %d rules, compressed sequence length %d (%.2f%% of input)",
		len(g.Rules), len(g.Seq), 100*float64(len(g.Seq))/float64(n))
	return g, stats, nil
}

// engine owns the text, the position index and the active queue for the
// duration of a Re-Pair run.
type engine struct {
	t     *skipText
	tp    *textPositions
	g     *Grammar
	next  Symbol // next unused non-terminal
	stats *phaseStats
}

func (e *engine) highFrequencyPhase(tau int) {
	q := newHFQueue(tau)
	e.seedRuns(q, 0, e.tp.size(), math.MaxInt)
	tracer().Infof("repair: high-frequency phase, %d tracked positions, %d pairs",
		e.tp.size(), q.size())

	var top uint32
	lastPerc := -1
	for {
		ab, ok := q.maxPair()
		if !ok {
			break
		}
		f := e.substitutionRound(q, ab)
		e.stats.high = append(e.stats.high, f)
		if top == 0 {
			top = f
			continue
		}
		if perc := 100 - int(100*uint64(f)/uint64(top)); perc > lastPerc+4 {
			lastPerc = perc
			tracer().Debugf("repair: high-frequency phase %d%%", perc)
		}
	}
	e.stats.peakHigh = q.peakSize()
	tracer().Infof("repair: high-frequency phase done, %d rules, peak queue size %d",
		len(e.g.Rules), q.peakSize())
}

func (e *engine) lowFrequencyPhase(tau int) {
	if tau <= 2 {
		// the high phase already ran at cutoff 2 and tracked every pair
		// that could ever reach it, so there is no low-frequency work
		return
	}
	if e.t.liveCount() < 2 {
		return
	}
	e.tp.fillAll()
	chunkCap := e.t.size() / chunkDivisor
	if chunkCap < 1 {
		chunkCap = 1
	}
	startLive := e.t.liveCount()
	lastPerc := -1

	for sweep := 0; ; sweep++ {
		e.tp.cluster(0, e.tp.size())
		q := newLFQueue(uint32(tau-1), chunkCap)
		chunks, inserted := 0, 0
		for offset := 0; offset < e.tp.size(); {
			var ins int
			offset, ins = e.seedRuns(q, offset, e.tp.size(), chunkCap)
			inserted += ins
			chunks++
			var series []uint32
			for {
				ab, ok := q.maxPair()
				if !ok {
					break
				}
				f := e.substitutionRound(q, ab)
				series = append(series, f)
				if perc := 100 - 100*e.t.liveCount()/startLive; perc > lastPerc+4 {
					lastPerc = perc
					tracer().Debugf("repair: low-frequency phase %d%%", perc)
				}
			}
			if len(series) > 0 {
				e.stats.low = append(e.stats.low, series)
			}
		}
		if q.peakSize() > e.stats.peakLow {
			e.stats.peakLow = q.peakSize()
		}
		tracer().Infof("repair: low-frequency sweep %d seeded %d pairs in %d chunks, peak queue size %d",
			sweep, inserted, chunks, q.peakSize())
		// Stale records and chunk boundaries can leave occurrences of a pair
		// untracked, so sweep again until the text is pair-free.
		if inserted == 0 || !e.hasRepeatedPair() {
			break
		}
	}
}

// seedRuns walks the clustered index range [lo,hi) and inserts a record for
// every maximal equal-pair run whose length reaches the queue's cutoff,
// stopping at a run boundary once maxRecords insertions happened. It returns
// the next unvisited offset and the number of records inserted.
func (e *engine) seedRuns(q pairQueue, lo, hi, maxRecords int) (int, int) {
	inserted := 0
	j := lo
	for j < hi {
		if inserted >= maxRecords {
			return j, inserted
		}
		start := j
		ab := e.t.pairStartingAt(e.tp.at(j))
		k := 1
		for j < hi-1 && ab != NullPair && e.t.pairStartingAt(e.tp.at(j+1)) == ab {
			j++
			k++
		}
		if ab != NullPair && uint32(k) >= q.minFrequency() && !q.contains(ab) {
			q.insert(pairRecord{pair: ab, pos: uint32(start), length: uint32(k), freq: uint32(k)})
			inserted++
		}
		j++
	}
	return hi, inserted
}

// substitutionRound mints a fresh non-terminal for pair ab, replaces every
// tracked occurrence, and re-synchronizes all pair records whose counts the
// replacements touched. Returns ab's frequency at selection time.
func (e *engine) substitutionRound(q pairQueue, ab Pair) uint32 {
	rec := q.get(ab)
	assert(rec.freq >= q.minFrequency(), "selected pair below the cutoff")
	x := e.next
	e.g.Rules = append(e.g.Rules, ab)
	lo, hi := int(rec.pos), int(rec.pos+rec.length)

	// replace pass: every position still starting an ab occurrence
	for j := lo; j < hi; j++ {
		i := e.tp.at(j)
		if e.t.pairStartingAt(i) != ab {
			continue
		}
		// the occurrence's context is x·a·b·y
		xa := e.t.pairEndingAt(i)
		by := e.t.nextPair(i)
		e.t.replace(i, x)
		if xa != ab && q.contains(xa) {
			q.decrease(xa)
		}
		if by != ab && q.contains(by) {
			q.decrease(by)
		}
	}

	// resynchronize pass: refresh the records of the disappeared neighbor
	// pairs around each replacement that survived cascading
	for j := lo; j < hi; j++ {
		i := e.tp.at(j)
		if e.t.get(i) != x {
			continue
		}
		xx := e.t.pairEndingAt(i)
		xy := e.t.pairStartingAt(i)
		xa, by := NullPair, NullPair
		if xx != NullPair {
			left := xx.Left
			if left == x {
				// overlap: before this round x·X was a·b·a·b, so the
				// disappeared left neighbor pair is b·a
				left = ab.Right
			}
			xa = Pair{Left: left, Right: ab.Left}
		}
		if xy != NullPair {
			right := xy.Right
			if right == x {
				right = ab.Left
			}
			by = Pair{Left: ab.Right, Right: right}
		}
		if by != ab && q.contains(by) {
			e.synchroOrRemove(q, by)
		}
		if xa != ab && q.contains(xa) {
			e.synchroOrRemove(q, xa)
		}
	}

	// ab's own range: re-cluster, pick up new runs, drop ab (its count is 0)
	e.synchronize(q, ab)
	assert(!q.contains(ab), "replaced pair still queued")
	e.next++
	return rec.freq
}

// synchronize re-clusters the index range tracked for ab and refreshes the
// queue from its runs: new pairs whose run reaches the cutoff are inserted
// (unless already tracked elsewhere), ab's own record is updated to its
// refreshed run, and ab is removed if its count fell below the cutoff.
func (e *engine) synchronize(q pairQueue, ab Pair) {
	rec := q.get(ab)
	lo, hi := int(rec.pos), int(rec.pos+rec.length)
	e.tp.cluster(lo, hi)

	freq := uint32(0)
	j := lo
	for j < hi {
		start := j
		xy := e.t.pairStartingAt(e.tp.at(j))
		k := 1
		for j < hi-1 && xy != NullPair && e.t.pairStartingAt(e.tp.at(j+1)) == xy {
			j++
			k++
		}
		if xy == ab {
			freq = uint32(k)
		}
		if xy != NullPair && uint32(k) >= q.minFrequency() {
			run := pairRecord{pair: xy, pos: uint32(start), length: uint32(k), freq: uint32(k)}
			if xy == ab {
				q.update(run)
			} else if !q.contains(xy) {
				q.insert(run)
			}
		}
		j++
	}
	if freq < q.minFrequency() {
		q.remove(ab)
	}
}

// synchroOrRemove decides between refreshing and dropping a touched pair:
// while the exact count still covers the majority of the tracked range, no
// unseen run can hide there, so the record is either kept as-is or, once
// below the cutoff, dropped without a scan. Otherwise the range is
// synchronized.
func (e *engine) synchroOrRemove(q pairQueue, ab Pair) {
	rec := q.get(ab)
	if rec.freq <= rec.length/2 {
		e.synchronize(q, ab)
		return
	}
	if rec.freq < q.minFrequency() {
		q.remove(ab)
	}
}

// hasRepeatedPair reports whether any ordered pair occurs at least twice
// among adjacent live symbols.
func (e *engine) hasRepeatedPair() bool {
	seen := make(map[Pair]struct{}, e.t.liveCount())
	for i := 0; i >= 0 && i < e.t.size(); i = e.t.nextLive(i) {
		ab := e.t.pairStartingAt(i)
		if ab == NullPair {
			break
		}
		if _, dup := seen[ab]; dup {
			return true
		}
		seen[ab] = struct{}{}
	}
	return false
}

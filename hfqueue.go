package repair

// hfQueue is the high-frequency pair queue: a pair-keyed hash over an
// arena-backed record list. maxPair is a linear scan over the list; its cost
// is charged to the substitution round that asked for it, which mints a
// fresh non-terminal for a pair of frequency at least the cutoff.
//
// decrease only lowers the count; records are removed explicitly by the
// engine when its invariants require it. Among equally frequent pairs,
// maxPair prefers the most recently inserted record.
type hfQueue struct {
	list    pairList
	index   map[Pair]int32
	minFreq uint32
	peak    int
}

func newHFQueue(minFreq int) *hfQueue {
	assert(minFreq > 1, "high-frequency cutoff must exceed 1")
	return &hfQueue{
		list:    newPairList(),
		index:   make(map[Pair]int32),
		minFreq: uint32(minFreq),
	}
}

func (q *hfQueue) minFrequency() uint32 { return q.minFreq }
func (q *hfQueue) size() int            { return q.list.size() }
func (q *hfQueue) peakSize() int        { return q.peak }

func (q *hfQueue) contains(ab Pair) bool {
	_, ok := q.index[ab]
	return ok
}

func (q *hfQueue) get(ab Pair) pairRecord {
	i, ok := q.index[ab]
	assert(ok, "get of a pair not in the queue")
	return *q.list.at(i)
}

func (q *hfQueue) insert(rec pairRecord) {
	assert(!q.contains(rec.pair), "duplicate insert")
	assert(rec.freq >= q.minFreq, "insert below the cutoff")
	q.index[rec.pair] = q.list.insert(rec)
	if q.list.size() > q.peak {
		q.peak = q.list.size()
	}
}

func (q *hfQueue) update(rec pairRecord) {
	i, ok := q.index[rec.pair]
	assert(ok, "update of a pair not in the queue")
	*q.list.at(i) = rec
}

func (q *hfQueue) remove(ab Pair) {
	i, ok := q.index[ab]
	assert(ok, "remove of a pair not in the queue")
	q.list.remove(i)
	delete(q.index, ab)
	if q.list.size() < q.list.capacity()/2 {
		q.compact()
	}
}

func (q *hfQueue) decrease(ab Pair) {
	i, ok := q.index[ab]
	assert(ok, "decrease of a pair not in the queue")
	rec := q.list.at(i)
	assert(rec.freq > 0, "decrease below zero")
	rec.freq--
}

func (q *hfQueue) maxPair() (Pair, bool) {
	i := q.list.maxSlot()
	if i == nilSlot {
		return NullPair, false
	}
	return q.list.at(i).pair, true
}

// compact re-packs the arena and rewrites the hash indices.
func (q *hfQueue) compact() {
	q.list.compact()
	for i := int32(0); i < int32(q.list.size()); i++ {
		q.index[q.list.at(i).pair] = i
	}
}

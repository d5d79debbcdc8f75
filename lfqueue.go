package repair

// lfQueue is the low-frequency pair queue. Frequencies live in the bounded
// domain [2, maxFreq], so pairs are indexed by frequency: bucket f is an
// arena-backed list of all records with count f, and a pair-keyed hash maps
// each pair to its (frequency, slot) coordinates.
//
// maxPair returns the head of the highest non-empty bucket, tracked by a
// descending cursor that walks down over emptied buckets on demand (inserts
// above the cursor pull it back up). The bucket head is the most recently
// inserted record, which fixes the tie-break among equally frequent pairs.
type lfQueue struct {
	buckets []pairList
	index   map[Pair]lfCoord
	maxFreq uint32
	cursor  uint32
	n       int
	peak    int
}

type lfCoord struct {
	freq uint32
	slot int32
}

func newLFQueue(maxFreq uint32, capacityHint int) *lfQueue {
	assert(maxFreq >= 2, "low-frequency domain must contain 2")
	q := &lfQueue{
		buckets: make([]pairList, maxFreq+1),
		index:   make(map[Pair]lfCoord, capacityHint),
		maxFreq: maxFreq,
		cursor:  maxFreq,
	}
	for f := range q.buckets {
		q.buckets[f] = newPairList()
	}
	return q
}

func (q *lfQueue) minFrequency() uint32 { return 2 }
func (q *lfQueue) size() int            { return q.n }
func (q *lfQueue) peakSize() int        { return q.peak }

func (q *lfQueue) contains(ab Pair) bool {
	_, ok := q.index[ab]
	return ok
}

func (q *lfQueue) get(ab Pair) pairRecord {
	c, ok := q.index[ab]
	assert(ok, "get of a pair not in the queue")
	return *q.buckets[c.freq].at(c.slot)
}

func (q *lfQueue) insert(rec pairRecord) {
	assert(!q.contains(rec.pair), "duplicate insert")
	assert(rec.freq >= 2 && rec.freq <= q.maxFreq, "frequency outside the bucket domain")
	slot := q.buckets[rec.freq].insert(rec)
	q.index[rec.pair] = lfCoord{freq: rec.freq, slot: slot}
	if rec.freq > q.cursor {
		q.cursor = rec.freq
	}
	q.n++
	if q.n > q.peak {
		q.peak = q.n
	}
}

// update overwrites the record of a pair already in the queue, migrating it
// to another bucket if its count changed.
func (q *lfQueue) update(rec pairRecord) {
	q.remove(rec.pair)
	q.insert(rec)
}

func (q *lfQueue) remove(ab Pair) {
	c, ok := q.index[ab]
	assert(ok, "remove of a pair not in the queue")
	b := &q.buckets[c.freq]
	b.remove(c.slot)
	delete(q.index, ab)
	q.n--
	if b.size() < b.capacity()/2 {
		q.compactBucket(c.freq)
	}
}

// decrease lowers the count by one, moving the record into the next lower
// bucket. A pair whose count falls below 2 is dropped entirely.
func (q *lfQueue) decrease(ab Pair) {
	rec := q.get(ab)
	assert(rec.freq >= 2, "decrease of an untracked frequency")
	q.remove(ab)
	rec.freq--
	if rec.freq < 2 {
		return
	}
	slot := q.buckets[rec.freq].insert(rec)
	q.index[ab] = lfCoord{freq: rec.freq, slot: slot}
	q.n++
}

func (q *lfQueue) maxPair() (Pair, bool) {
	if q.n == 0 {
		return NullPair, false
	}
	for q.cursor > 2 && q.buckets[q.cursor].size() == 0 {
		q.cursor--
	}
	assert(q.buckets[q.cursor].size() > 0, "cursor landed on an empty bucket")
	return q.buckets[q.cursor].headPair(), true
}

// compactBucket re-packs one bucket's arena and rewrites the affected hash
// coordinates.
func (q *lfQueue) compactBucket(f uint32) {
	b := &q.buckets[f]
	b.compact()
	for i := int32(0); i < int32(b.size()); i++ {
		q.index[b.at(i).pair] = lfCoord{freq: f, slot: i}
	}
}

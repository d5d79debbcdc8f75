package repair

// pairRecord tracks one pair inside a queue: the starting offset of its
// clustered run in the position index, the run's length (an upper bound on
// the occurrences still referenced there), and the exact live occurrence
// count. freq <= length always holds.
type pairRecord struct {
	pair   Pair
	pos    uint32
	length uint32
	freq   uint32
}

const nilSlot = int32(-1)

type listSlot struct {
	rec        pairRecord
	prev, next int32
	used       bool
}

// pairList is a doubly-linked list of pair records backed by a growable
// arena. Freed slots are chained for reuse; insert links new records at the
// head, so the head is always the most recently inserted record. Slot
// indices stay stable until compact is called.
type pairList struct {
	slots     []listSlot
	head      int32
	firstFree int32
	n         int
}

func newPairList() pairList {
	return pairList{head: nilSlot, firstFree: nilSlot}
}

func (l *pairList) size() int     { return l.n }
func (l *pairList) capacity() int { return len(l.slots) }

func (l *pairList) at(i int32) *pairRecord {
	assert(l.slots[i].used, "access to a freed list slot")
	return &l.slots[i].rec
}

// headPair returns the most recently inserted pair. The list must not be
// empty.
func (l *pairList) headPair() Pair {
	assert(l.n > 0, "headPair on empty list")
	return l.slots[l.head].rec.pair
}

// insert stores rec and returns its slot index.
func (l *pairList) insert(rec pairRecord) int32 {
	var i int32
	if l.firstFree != nilSlot {
		i = l.firstFree
		l.firstFree = l.slots[i].next
	} else {
		i = int32(len(l.slots))
		l.slots = append(l.slots, listSlot{})
	}
	l.slots[i] = listSlot{rec: rec, prev: nilSlot, next: l.head, used: true}
	if l.head != nilSlot {
		l.slots[l.head].prev = i
	}
	l.head = i
	l.n++
	return i
}

// remove unlinks slot i and chains it into the free list.
func (l *pairList) remove(i int32) {
	s := &l.slots[i]
	assert(s.used, "remove of a freed list slot")
	if s.prev != nilSlot {
		l.slots[s.prev].next = s.next
	} else {
		l.head = s.next
	}
	if s.next != nilSlot {
		l.slots[s.next].prev = s.prev
	}
	s.used = false
	s.prev = nilSlot
	s.next = l.firstFree
	l.firstFree = i
	l.n--
}

// maxSlot scans the list and returns the slot of the record with the largest
// frequency, preferring the most recently inserted among equals (the scan
// starts at the head and keeps the first maximum). Returns nilSlot when
// empty.
func (l *pairList) maxSlot() int32 {
	best := l.head
	for cur := l.head; cur != nilSlot; cur = l.slots[cur].next {
		if l.slots[cur].rec.freq > l.slots[best].rec.freq {
			best = cur
		}
	}
	return best
}

// compact drops freed slots and re-packs the remaining records in list
// order. Slot indices change; the caller must re-derive them (walk the list
// or rebuild its own map).
func (l *pairList) compact() {
	if l.n == 0 {
		l.slots = l.slots[:0]
		l.head = nilSlot
		l.firstFree = nilSlot
		return
	}
	packed := make([]listSlot, 0, l.n)
	for cur := l.head; cur != nilSlot; cur = l.slots[cur].next {
		packed = append(packed, listSlot{rec: l.slots[cur].rec, used: true})
	}
	for i := range packed {
		packed[i].prev = int32(i) - 1
		packed[i].next = int32(i) + 1
	}
	packed[0].prev = nilSlot
	packed[len(packed)-1].next = nilSlot
	l.slots = packed
	l.head = 0
	l.firstFree = nilSlot
}

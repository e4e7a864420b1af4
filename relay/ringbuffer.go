package relay

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultRingCapacity is the number of messages retained per source for
// retransmit recovery (spec.md §6: "typically 64K messages per source").
const DefaultRingCapacity = 64 * 1024

// RetransmitRing is the bounded, in-memory, per-source retransmit buffer
// spec.md §4.6 requires: "deliver anyway... retransmits the missing range
// from an in-memory ring buffer if still present". An LRU cache keyed by
// sequence number gives exactly the bounded-with-oldest-eviction behaviour
// the spec wants without hand-rolling a circular buffer.
type RetransmitRing struct {
	cache *lru.Cache[uint64, []byte]
}

// NewRetransmitRing constructs a ring holding at most capacity messages.
func NewRetransmitRing(capacity int) (*RetransmitRing, error) {
	cache, err := lru.New[uint64, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &RetransmitRing{cache: cache}, nil
}

// Store retains message under sequence, evicting the oldest entry if the
// ring is at capacity.
func (r *RetransmitRing) Store(sequence uint64, message []byte) {
	r.cache.Add(sequence, message)
}

// Fetch returns the message stored under sequence, if it is still present.
func (r *RetransmitRing) Fetch(sequence uint64) ([]byte, bool) {
	return r.cache.Peek(sequence)
}

// Range returns every message with sequence in [from, to] that is still
// present in the ring, in ascending sequence order. Gaps (evicted entries)
// are simply omitted — callers detect an incomplete range by length.
func (r *RetransmitRing) Range(from, to uint64) []RetransmitEntry {
	var out []RetransmitEntry
	for seq := from; seq <= to; seq++ {
		if msg, ok := r.cache.Peek(seq); ok {
			out = append(out, RetransmitEntry{Sequence: seq, Message: msg})
		}
	}
	return out
}

// RetransmitEntry pairs a retained message with its sequence number.
type RetransmitEntry struct {
	Sequence uint64
	Message  []byte
}

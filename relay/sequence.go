package relay

import (
	"sync"

	"protocol-v2/core"
)

// sourceKey identifies a per-(source,domain) sequence space.
type sourceKey struct {
	Source core.SourceType
	Domain core.RelayDomain
}

// consumerKey identifies a per-(consumer,source) delivery cursor.
type consumerKey struct {
	Consumer string // uuid string of the consumer connection
	Source   core.SourceType
}

// GapOutcome classifies an inbound message's sequence relative to the
// relay's per-(source,domain) expectation (spec.md §4.6).
type GapOutcome uint8

const (
	// SequenceInOrder: seq == next_expected_sequence.
	SequenceInOrder GapOutcome = iota
	// SequenceGap: seq > next_expected_sequence; deliver anyway, a range
	// was lost.
	SequenceGap
	// SequenceDuplicate: seq < next_expected_sequence; drop.
	SequenceDuplicate
)

// SequenceTracker maintains the relay-side next_expected_sequence per
// (source, domain) and the per-(consumer, source) last_delivered_sequence
// used for recovery bookkeeping (spec.md §4.6).
type SequenceTracker struct {
	mu              sync.Mutex
	nextExpected    map[sourceKey]uint64
	lastDelivered   map[consumerKey]uint64
}

// NewSequenceTracker returns an empty tracker.
func NewSequenceTracker() *SequenceTracker {
	return &SequenceTracker{
		nextExpected:  make(map[sourceKey]uint64),
		lastDelivered: make(map[consumerKey]uint64),
	}
}

// Observe records an inbound message's sequence for (source, domain) and
// reports how it relates to the current expectation. On SequenceGap it
// also returns the lost range [lostFrom, lostTo] (inclusive, both ends
// valid only when outcome is SequenceGap).
func (t *SequenceTracker) Observe(source core.SourceType, domain core.RelayDomain, seq uint64) (outcome GapOutcome, lostFrom, lostTo uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := sourceKey{Source: source, Domain: domain}
	expected, known := t.nextExpected[key]
	if !known {
		// First message from this source in this domain: accept whatever
		// sequence it starts at.
		t.nextExpected[key] = seq + 1
		return SequenceInOrder, 0, 0
	}

	switch {
	case seq == expected:
		t.nextExpected[key] = seq + 1
		return SequenceInOrder, 0, 0
	case seq > expected:
		lostFrom, lostTo = expected, seq-1
		t.nextExpected[key] = seq + 1
		return SequenceGap, lostFrom, lostTo
	default:
		return SequenceDuplicate, 0, 0
	}
}

// ResetSource clears next_expected_sequence for (source, domain), used
// when a producer reconnects and a new epoch begins (spec.md §7 "State"
// error: producer reconnected with lower sequence).
func (t *SequenceTracker) ResetSource(source core.SourceType, domain core.RelayDomain) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.nextExpected, sourceKey{Source: source, Domain: domain})
}

// RecordDelivery updates last_delivered_sequence for (consumer, source)
// after a message has been pushed to that consumer's queue.
func (t *SequenceTracker) RecordDelivery(consumerID string, source core.SourceType, seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastDelivered[consumerKey{Consumer: consumerID, Source: source}] = seq
}

// LastDelivered returns the last sequence delivered to (consumer, source),
// and whether any has been recorded yet.
func (t *SequenceTracker) LastDelivered(consumerID string, source core.SourceType) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	seq, ok := t.lastDelivered[consumerKey{Consumer: consumerID, Source: source}]
	return seq, ok
}

package relay

import "protocol-v2/core"

// RetransmitGapThreshold is the largest gap the relay will serve from the
// in-memory ring buffer before escalating to a snapshot (spec.md §4.6:
// "If current - last <= 100").
const RetransmitGapThreshold = 100

// RecoveryAction is the relay's decision for a consumer's RecoveryRequestTLV.
type RecoveryAction uint8

const (
	// RecoveryActionRetransmit: serve the missing range from the ring
	// buffer.
	RecoveryActionRetransmit RecoveryAction = iota
	// RecoveryActionSnapshot: the gap is too large, or the ring no longer
	// holds the requested range; send a SnapshotTLV instead.
	RecoveryActionSnapshot
)

// RecoveryDecision is the outcome of evaluating a RecoveryRequestTLV.
type RecoveryDecision struct {
	Action  RecoveryAction
	Entries []RetransmitEntry // populated only when Action == RecoveryActionRetransmit
}

// DecideRecovery implements spec.md §4.6's consumer gap-recovery rule: a
// gap of at most RetransmitGapThreshold is served from ring if every
// message in the range is still present; otherwise (too large, or any
// message already evicted) the relay escalates to a snapshot.
func DecideRecovery(req core.RecoveryRequestTLV, ring *RetransmitRing) RecoveryDecision {
	gap := req.CurrentSequence - req.LastSequence
	if req.RequestType == core.RecoverySnapshot || gap > RetransmitGapThreshold {
		return RecoveryDecision{Action: RecoveryActionSnapshot}
	}

	from, to := req.LastSequence+1, req.CurrentSequence-1
	if to < from {
		// current_sequence == last_sequence+1: nothing missing, just the
		// message the consumer already has.
		return RecoveryDecision{Action: RecoveryActionRetransmit}
	}
	entries := ring.Range(from, to)
	if uint64(len(entries)) != (to-from+1) {
		// at least one message in the range was already evicted
		return RecoveryDecision{Action: RecoveryActionSnapshot}
	}
	return RecoveryDecision{Action: RecoveryActionRetransmit, Entries: entries}
}

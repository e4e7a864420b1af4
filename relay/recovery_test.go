package relay

import (
	"testing"

	"protocol-v2/core"
)

func TestDecideRecoveryRetransmitsWithinThreshold(t *testing.T) {
	ring, err := NewRetransmitRing(DefaultRingCapacity)
	if err != nil {
		t.Fatalf("NewRetransmitRing: %v", err)
	}
	for seq := uint64(1); seq <= 10; seq++ {
		ring.Store(seq, []byte{byte(seq)})
	}

	// last=5, current=10: the consumer already has 10, so only 6-9 are
	// missing — 10 itself must not be re-sent.
	req := core.RecoveryRequestTLV{LastSequence: 5, CurrentSequence: 10, RequestType: core.RecoveryRetransmit}
	decision := DecideRecovery(req, ring)
	if decision.Action != RecoveryActionRetransmit {
		t.Fatalf("Action=%v want RecoveryActionRetransmit", decision.Action)
	}
	if len(decision.Entries) != 4 {
		t.Fatalf("len(Entries)=%d want 4", len(decision.Entries))
	}
	if decision.Entries[0].Sequence != 6 || decision.Entries[3].Sequence != 9 {
		t.Fatalf("entries out of range: %+v", decision.Entries)
	}
}

// TestDecideRecoveryMatchesSpecScenario mirrors spec.md §8 scenario 4:
// last=3, current=5 must retransmit only the archived seq=4, never
// re-sending seq=5 (the message the consumer just received).
func TestDecideRecoveryMatchesSpecScenario(t *testing.T) {
	ring, err := NewRetransmitRing(DefaultRingCapacity)
	if err != nil {
		t.Fatalf("NewRetransmitRing: %v", err)
	}
	ring.Store(4, []byte{4})
	ring.Store(5, []byte{5})

	req := core.RecoveryRequestTLV{LastSequence: 3, CurrentSequence: 5, RequestType: core.RecoveryRetransmit}
	decision := DecideRecovery(req, ring)
	if decision.Action != RecoveryActionRetransmit {
		t.Fatalf("Action=%v want RecoveryActionRetransmit", decision.Action)
	}
	if len(decision.Entries) != 1 || decision.Entries[0].Sequence != 4 {
		t.Fatalf("Entries=%+v want exactly [seq 4]", decision.Entries)
	}
}

func TestDecideRecoveryNoGapReturnsEmptyRetransmit(t *testing.T) {
	ring, err := NewRetransmitRing(DefaultRingCapacity)
	if err != nil {
		t.Fatalf("NewRetransmitRing: %v", err)
	}
	req := core.RecoveryRequestTLV{LastSequence: 4, CurrentSequence: 5, RequestType: core.RecoveryRetransmit}
	decision := DecideRecovery(req, ring)
	if decision.Action != RecoveryActionRetransmit {
		t.Fatalf("Action=%v want RecoveryActionRetransmit", decision.Action)
	}
	if len(decision.Entries) != 0 {
		t.Fatalf("Entries=%+v want none (current_sequence == last_sequence+1)", decision.Entries)
	}
}

func TestDecideRecoveryEscalatesBeyondThreshold(t *testing.T) {
	ring, err := NewRetransmitRing(DefaultRingCapacity)
	if err != nil {
		t.Fatalf("NewRetransmitRing: %v", err)
	}
	req := core.RecoveryRequestTLV{LastSequence: 0, CurrentSequence: RetransmitGapThreshold + 1, RequestType: core.RecoveryRetransmit}
	decision := DecideRecovery(req, ring)
	if decision.Action != RecoveryActionSnapshot {
		t.Fatalf("Action=%v want RecoveryActionSnapshot", decision.Action)
	}
}

func TestDecideRecoveryEscalatesWhenRangePartiallyEvicted(t *testing.T) {
	ring, err := NewRetransmitRing(3)
	if err != nil {
		t.Fatalf("NewRetransmitRing: %v", err)
	}
	for seq := uint64(1); seq <= 5; seq++ {
		ring.Store(seq, []byte{byte(seq)}) // capacity 3 evicts sequences 1 and 2
	}

	req := core.RecoveryRequestTLV{LastSequence: 0, CurrentSequence: 5, RequestType: core.RecoveryRetransmit}
	decision := DecideRecovery(req, ring)
	if decision.Action != RecoveryActionSnapshot {
		t.Fatalf("Action=%v want RecoveryActionSnapshot (sequences 1,2 evicted)", decision.Action)
	}
}

func TestDecideRecoveryHonorsExplicitSnapshotRequest(t *testing.T) {
	ring, err := NewRetransmitRing(DefaultRingCapacity)
	if err != nil {
		t.Fatalf("NewRetransmitRing: %v", err)
	}
	ring.Store(1, []byte{1})

	req := core.RecoveryRequestTLV{LastSequence: 0, CurrentSequence: 1, RequestType: core.RecoverySnapshot}
	decision := DecideRecovery(req, ring)
	if decision.Action != RecoveryActionSnapshot {
		t.Fatalf("Action=%v want RecoveryActionSnapshot (explicit request)", decision.Action)
	}
}

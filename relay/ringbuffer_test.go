package relay

import "testing"

func TestRetransmitRingStoreFetchRoundTrip(t *testing.T) {
	ring, err := NewRetransmitRing(4)
	if err != nil {
		t.Fatalf("NewRetransmitRing: %v", err)
	}
	ring.Store(1, []byte("one"))
	ring.Store(2, []byte("two"))

	msg, ok := ring.Fetch(1)
	if !ok || string(msg) != "one" {
		t.Fatalf("Fetch(1)=(%q,%v) want (\"one\",true)", msg, ok)
	}
	if _, ok := ring.Fetch(99); ok {
		t.Fatalf("Fetch(99) should miss on an unstored sequence")
	}
}

func TestRetransmitRingEvictsOldestBeyondCapacity(t *testing.T) {
	ring, err := NewRetransmitRing(2)
	if err != nil {
		t.Fatalf("NewRetransmitRing: %v", err)
	}
	ring.Store(1, []byte("one"))
	ring.Store(2, []byte("two"))
	ring.Store(3, []byte("three")) // evicts sequence 1

	if _, ok := ring.Fetch(1); ok {
		t.Fatalf("sequence 1 should have been evicted")
	}
	if _, ok := ring.Fetch(3); !ok {
		t.Fatalf("sequence 3 should still be present")
	}
}

func TestRetransmitRingRangeOmitsEvictedEntries(t *testing.T) {
	ring, err := NewRetransmitRing(2)
	if err != nil {
		t.Fatalf("NewRetransmitRing: %v", err)
	}
	ring.Store(1, []byte("one"))
	ring.Store(2, []byte("two"))
	ring.Store(3, []byte("three")) // evicts sequence 1

	entries := ring.Range(1, 3)
	if len(entries) != 2 {
		t.Fatalf("len(entries)=%d want 2 (sequence 1 evicted)", len(entries))
	}
	if entries[0].Sequence != 2 || entries[1].Sequence != 3 {
		t.Fatalf("entries out of order: %+v", entries)
	}
}

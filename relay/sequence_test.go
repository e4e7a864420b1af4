package relay

import (
	"testing"

	"protocol-v2/core"
)

func TestSequenceTrackerAcceptsFirstMessageAtAnySequence(t *testing.T) {
	tracker := NewSequenceTracker()
	outcome, _, _ := tracker.Observe(core.SourceBinanceCollector, core.DomainMarketData, 42)
	if outcome != SequenceInOrder {
		t.Fatalf("outcome=%v want SequenceInOrder", outcome)
	}
}

func TestSequenceTrackerDetectsGapAndDuplicate(t *testing.T) {
	tracker := NewSequenceTracker()
	tracker.Observe(core.SourceBinanceCollector, core.DomainMarketData, 1)

	outcome, from, to := tracker.Observe(core.SourceBinanceCollector, core.DomainMarketData, 2)
	if outcome != SequenceInOrder {
		t.Fatalf("seq 2 outcome=%v want SequenceInOrder", outcome)
	}

	outcome, from, to = tracker.Observe(core.SourceBinanceCollector, core.DomainMarketData, 10)
	if outcome != SequenceGap {
		t.Fatalf("seq 10 outcome=%v want SequenceGap", outcome)
	}
	if from != 3 || to != 9 {
		t.Fatalf("gap range=[%d,%d] want [3,9]", from, to)
	}

	outcome, _, _ = tracker.Observe(core.SourceBinanceCollector, core.DomainMarketData, 5)
	if outcome != SequenceDuplicate {
		t.Fatalf("seq 5 (already passed) outcome=%v want SequenceDuplicate", outcome)
	}
}

func TestSequenceTrackerIsolatesSourceAndDomain(t *testing.T) {
	tracker := NewSequenceTracker()
	tracker.Observe(core.SourceBinanceCollector, core.DomainMarketData, 100)

	// A different source, or the same source in a different domain, has
	// its own independent sequence space.
	outcome, _, _ := tracker.Observe(core.SourceCoinbaseCollector, core.DomainMarketData, 1)
	if outcome != SequenceInOrder {
		t.Fatalf("different source outcome=%v want SequenceInOrder", outcome)
	}
	outcome, _, _ = tracker.Observe(core.SourceBinanceCollector, core.DomainSignal, 1)
	if outcome != SequenceInOrder {
		t.Fatalf("different domain outcome=%v want SequenceInOrder", outcome)
	}
}

func TestSequenceTrackerResetSourceClearsExpectation(t *testing.T) {
	tracker := NewSequenceTracker()
	tracker.Observe(core.SourceBinanceCollector, core.DomainMarketData, 50)
	tracker.ResetSource(core.SourceBinanceCollector, core.DomainMarketData)

	outcome, _, _ := tracker.Observe(core.SourceBinanceCollector, core.DomainMarketData, 1)
	if outcome != SequenceInOrder {
		t.Fatalf("post-reset outcome=%v want SequenceInOrder", outcome)
	}
}

func TestSequenceTrackerRecordsAndReadsLastDelivered(t *testing.T) {
	tracker := NewSequenceTracker()
	if _, ok := tracker.LastDelivered("consumer-a", core.SourceBinanceCollector); ok {
		t.Fatalf("expected no delivery recorded yet")
	}

	tracker.RecordDelivery("consumer-a", core.SourceBinanceCollector, 7)
	seq, ok := tracker.LastDelivered("consumer-a", core.SourceBinanceCollector)
	if !ok || seq != 7 {
		t.Fatalf("LastDelivered=(%d,%v) want (7,true)", seq, ok)
	}
}

// Package relay implements the relay core (C6) and its sequence tracker
// and recovery logic (C7): per-domain validation, topic-based routing,
// backpressure, connection lifecycle, and gap recovery.
package relay

import "protocol-v2/core"

// BackpressurePolicy is the action a relay takes when a consumer's send
// queue exceeds its high-water mark (spec.md §4.5/§5).
type BackpressurePolicy uint8

const (
	BackpressureDropOldest BackpressurePolicy = iota
	BackpressureDropNewest
	BackpressureBlock
	BackpressureAdaptive
)

// DomainPolicy is the per-domain validation and backpressure table from
// spec.md §4.5. Relay behaviour is entirely data-driven by this struct —
// there is exactly one Relay type, parameterised by policy, not one type
// per domain.
type DomainPolicy struct {
	Domain              core.RelayDomain
	ValidateMagicDomain bool
	EnforceChecksum     bool
	StrictTLVWalk       bool
	DomainTypeCheck     bool
	Backpressure        BackpressurePolicy
	HighWaterMark       int
	BlockTimeoutMs       int
}

// MarketDataPolicy is the default policy for the market-data domain:
// checksum enforcement off (trade speed for ticks), StrictTLVWalk and the
// domain-type check off, drop-oldest backpressure, zero block timeout
// (spec.md §4.5/§5). StrictTLVWalk is not consulted by HandleInbound, so
// the TLV walk itself is the same full walk every domain gets.
func MarketDataPolicy() DomainPolicy {
	return DomainPolicy{
		Domain:              core.DomainMarketData,
		ValidateMagicDomain: true,
		EnforceChecksum:     false,
		StrictTLVWalk:       false,
		DomainTypeCheck:     false,
		Backpressure:        BackpressureDropOldest,
		HighWaterMark:       4096,
		BlockTimeoutMs:       0,
	}
}

// SignalPolicy is the default policy for the signal domain: checksum on,
// full TLV walk, bounded blocking backpressure.
func SignalPolicy() DomainPolicy {
	return DomainPolicy{
		Domain:              core.DomainSignal,
		ValidateMagicDomain: true,
		EnforceChecksum:     true,
		StrictTLVWalk:       true,
		DomainTypeCheck:     true,
		Backpressure:        BackpressureBlock,
		HighWaterMark:       1024,
		BlockTimeoutMs:       50,
	}
}

// ExecutionPolicy is the default policy for the execution domain: checksum
// always on, full TLV walk with domain-type check, short blocking
// backpressure timeout (spec.md §4.5/§5: "execution is short, ≤10 ms").
func ExecutionPolicy() DomainPolicy {
	return DomainPolicy{
		Domain:              core.DomainExecution,
		ValidateMagicDomain: true,
		EnforceChecksum:     true,
		StrictTLVWalk:       true,
		DomainTypeCheck:     true,
		Backpressure:        BackpressureBlock,
		HighWaterMark:       256,
		BlockTimeoutMs:       10,
	}
}

func (p DomainPolicy) headerValidationPolicy() core.ValidationPolicy {
	return core.ValidationPolicy{EnforceChecksum: p.EnforceChecksum, StrictTLVWalk: p.StrictTLVWalk}
}

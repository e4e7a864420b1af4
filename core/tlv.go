package core

import (
	"fmt"
	"strconv"
)

// TLVType identifies a TLV record's kind. 255 is reserved as the extended
// form sentinel (spec.md §3).
type TLVType uint8

const ExtendedTypeSentinel TLVType = 255

// String renders the registry name for t, or a numeric fallback for
// unregistered type numbers (diagnostics/logging only).
func (t TLVType) String() string {
	if entry, ok := typeRegistry[t]; ok {
		return entry.Name
	}
	return "type(" + strconv.FormatUint(uint64(t), 10) + ")"
}

// SizeConstraintKind is one of Fixed(n), Bounded(min,max), or Variable
// (spec.md §3).
type SizeConstraintKind uint8

const (
	SizeFixed SizeConstraintKind = iota
	SizeBounded
	SizeVariable
)

// SizeConstraint describes how a TLV type's value length is validated.
type SizeConstraint struct {
	Kind SizeConstraintKind
	Min  int // Fixed: exact length. Bounded: minimum length.
	Max  int // Bounded: maximum length. Ignored for Fixed/Variable.
}

func fixed(n int) SizeConstraint     { return SizeConstraint{Kind: SizeFixed, Min: n} }
func bounded(lo, hi int) SizeConstraint {
	return SizeConstraint{Kind: SizeBounded, Min: lo, Max: hi}
}
func variable() SizeConstraint { return SizeConstraint{Kind: SizeVariable} }

func (c SizeConstraint) allows(n int) bool {
	switch c.Kind {
	case SizeFixed:
		return n == c.Min
	case SizeBounded:
		return n >= c.Min && n <= c.Max
	default: // SizeVariable
		return true
	}
}

// TypeRegistryEntry is one row of the compile-time TLV type table (spec.md
// §4.2/§9: "a compile-time table keyed by type number").
type TypeRegistryEntry struct {
	Name       string
	Domain     RelayDomain
	Size       SizeConstraint
	Implemented bool
}

// Domain type-number ranges (spec.md §3).
const (
	rangeMarketDataLo = 1
	rangeMarketDataHi = 19
	rangeSignalLo     = 20
	rangeSignalHi     = 39
	rangeExecutionLo  = 40
	rangeExecutionHi  = 59
	rangePortfolioLo  = 60
	rangePortfolioHi  = 79
	rangeSystemLo     = 100
	rangeSystemHi     = 109
	rangeRecoveryLo   = 110
	rangeRecoveryHi   = 119
	rangeTracing      = 120
	rangeVendorLo     = 200
	rangeVendorHi     = 254
)

// Concrete TLV type numbers (spec.md §3/§4.3).
const (
	TypeTrade             TLVType = 1
	TypeQuote             TLVType = 2
	TypeOrderBook         TLVType = 3
	TypePoolSwap          TLVType = 10
	TypePoolMint          TLVType = 11
	TypePoolBurn          TLVType = 12
	TypePoolSync          TLVType = 13
	TypePoolTick          TLVType = 14
	TypePoolState         TLVType = 15

	TypeSignalIdentity TLVType = 20
	TypeEconomics      TLVType = 21

	TypeOrderRequest TLVType = 40
	TypeFill         TLVType = 41

	TypeError             TLVType = 100
	TypeHeartbeat         TLVType = 101
	TypeConfigUpdate      TLVType = 102

	TypeRecoveryRequest   TLVType = 110
	TypeRecoveryResponse  TLVType = 111
	TypeSnapshot          TLVType = 112
	TypeStateInvalidation TLVType = 113

	TypeTraceContext TLVType = 120
)

// typeRegistry is the authoritative, table-scanned type registry (spec.md
// §9: "Queries such as 'types in domain X' are table scans, not
// reflection.").
var typeRegistry = map[TLVType]TypeRegistryEntry{
	TypeTrade:     {Name: "Trade", Domain: DomainMarketData, Size: fixed(TradeTLVSize), Implemented: true},
	TypeQuote:     {Name: "Quote", Domain: DomainMarketData, Size: fixed(QuoteTLVSize), Implemented: true},
	TypeOrderBook: {Name: "OrderBook", Domain: DomainMarketData, Size: variable(), Implemented: true},
	TypePoolSwap:  {Name: "PoolSwap", Domain: DomainMarketData, Size: bounded(60, 200), Implemented: true},
	TypePoolMint:  {Name: "PoolMint", Domain: DomainMarketData, Size: bounded(40, 200), Implemented: true},
	TypePoolBurn:  {Name: "PoolBurn", Domain: DomainMarketData, Size: bounded(40, 200), Implemented: true},
	TypePoolSync:  {Name: "PoolSync", Domain: DomainMarketData, Size: bounded(20, 120), Implemented: true},
	TypePoolTick:  {Name: "PoolTick", Domain: DomainMarketData, Size: bounded(20, 80), Implemented: true},
	TypePoolState: {Name: "PoolState", Domain: DomainMarketData, Size: variable(), Implemented: true},

	TypeSignalIdentity: {Name: "SignalIdentity", Domain: DomainSignal, Size: fixed(SignalIdentityTLVSize), Implemented: true},
	TypeEconomics:      {Name: "Economics", Domain: DomainSignal, Size: fixed(EconomicsTLVSize), Implemented: true},

	TypeOrderRequest: {Name: "OrderRequest", Domain: DomainExecution, Size: fixed(OrderRequestTLVSize), Implemented: true},
	TypeFill:         {Name: "Fill", Domain: DomainExecution, Size: fixed(FillTLVSize), Implemented: true},

	// System (100-109), recovery (110-119), and tracing (120) types are
	// outside the three relay domains (spec.md §3's range table) and carry
	// Domain: 0 — "domain-agnostic", usable on a relay of any domain — rather
	// than pinned to one, matching domainOfUnregisteredType's treatment of
	// the same ranges for unregistered type numbers.
	TypeError:        {Name: "Error", Domain: 0, Size: variable(), Implemented: true},
	TypeHeartbeat:    {Name: "Heartbeat", Domain: 0, Size: fixed(HeartbeatTLVSize), Implemented: true},
	TypeConfigUpdate: {Name: "ConfigUpdate", Domain: 0, Size: variable(), Implemented: true},

	TypeRecoveryRequest:   {Name: "RecoveryRequest", Domain: 0, Size: fixed(RecoveryRequestTLVSize), Implemented: true},
	TypeRecoveryResponse:  {Name: "RecoveryResponse", Domain: 0, Size: variable(), Implemented: true},
	TypeSnapshot:          {Name: "Snapshot", Domain: 0, Size: variable(), Implemented: true},
	TypeStateInvalidation: {Name: "StateInvalidation", Domain: 0, Size: fixed(StateInvalidationTLVSize), Implemented: true},

	TypeTraceContext: {Name: "TraceContext", Domain: 0, Size: fixed(TraceContextTLVSize), Implemented: true},
}

// LookupType returns the registry entry for t, if any is known.
func LookupType(t TLVType) (TypeRegistryEntry, bool) {
	e, ok := typeRegistry[t]
	return e, ok
}

// ParseTLVType looks up the TLVType whose registry Name equals name, for
// config layers that name a type rather than use its raw wire number.
func ParseTLVType(name string) (TLVType, error) {
	for t, entry := range typeRegistry {
		if entry.Name == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("core: unknown TLV type name %q", name)
}

// domainOfUnregisteredType classifies a type number that has no registry
// entry into one of the fixed domain ranges from spec.md §3, so unknown
// types inside a known range can still be tolerated as opaque records
// (spec.md §4.2 step 5, "forward-compatibility rule").
func domainOfUnregisteredType(t TLVType) (RelayDomain, bool) {
	switch {
	case t >= rangeMarketDataLo && t <= rangeMarketDataHi:
		return DomainMarketData, true
	case t >= rangeSignalLo && t <= rangeSignalHi:
		return DomainSignal, true
	case t >= rangeExecutionLo && t <= rangeExecutionHi:
		return DomainExecution, true
	case t >= rangePortfolioLo && t <= rangePortfolioHi:
		return 0, true // recognised range, but not routable to a relay domain
	case t >= rangeSystemLo && t <= rangeSystemHi:
		return 0, true
	case t >= rangeRecoveryLo && t <= rangeRecoveryHi:
		return 0, true
	case t == rangeTracing:
		return 0, true
	case t >= rangeVendorLo && t <= rangeVendorHi:
		return 0, true
	default:
		return 0, false
	}
}

// RawTLV is a single parsed record before domain-specific decoding: the type
// number and a view into the original buffer's value bytes. Types the
// registry does not implement are surfaced this way too (the opaque-record
// forward-compatibility rule, spec.md §7/§9).
type RawTLV struct {
	Type  TLVType
	Value []byte
}

// ParseTLVs walks payload per spec.md §4.2 steps 3-5, enforcing each type's
// size constraint and the opaque-record tolerance for unknown-but-in-range
// types. It never allocates per record beyond the returned slice headers —
// Value is a sub-slice of payload, not a copy.
func ParseTLVs(payload []byte) ([]RawTLV, error) {
	var out []RawTLV
	offset := 0
	for offset < len(payload) {
		t := TLVType(payload[offset])
		var valueStart, length int
		if t == ExtendedTypeSentinel {
			if offset+5 > len(payload) {
				return nil, newParseError(ErrTruncatedTLV, offset, "extended header truncated")
			}
			if payload[offset+1] != 0 {
				return nil, newParseError(ErrTruncatedTLV, offset, "extended reserved byte non-zero")
			}
			inner := TLVType(payload[offset+2])
			l := int(payload[offset+3]) | int(payload[offset+4])<<8
			valueStart = offset + 5
			length = l
			t = inner
		} else {
			if offset+2 > len(payload) {
				return nil, newParseError(ErrTruncatedTLV, offset, "standard header truncated")
			}
			length = int(payload[offset+1])
			valueStart = offset + 2
		}
		if valueStart+length > len(payload) {
			return nil, newParseError(ErrTruncatedTLV, offset, "value runs past end of payload")
		}
		value := payload[valueStart : valueStart+length]

		if entry, ok := typeRegistry[t]; ok {
			if !entry.Size.allows(length) {
				kind := ErrBoundedSizeOutOfRange
				if entry.Size.Kind == SizeFixed {
					kind = ErrFixedSizeMismatch
				}
				e := newParseError(kind, offset, "")
				e.Expected = uint64(entry.Size.Min)
				e.Actual = uint64(length)
				return nil, e
			}
		} else if _, inRange := domainOfUnregisteredType(t); !inRange {
			return nil, newParseError(ErrUnknownTLVType, offset, "type outside every known domain range")
		}
		// Unknown-but-in-range types fall through as opaque records.

		out = append(out, RawTLV{Type: t, Value: value})
		offset = valueStart + length
	}
	return out, nil
}

// EncodedLen returns the number of bytes emitting (type, value) will occupy
// on the wire, accounting for the extended form when len(value) > 255.
func EncodedLen(value []byte) int {
	if len(value) > 255 {
		return 5 + len(value)
	}
	return 2 + len(value)
}

// EncodeTLV writes (t, value) into dst in standard or extended form and
// returns the number of bytes written. dst must be at least EncodedLen(value)
// bytes.
func EncodeTLV(dst []byte, t TLVType, value []byte) int {
	if len(value) > 255 {
		dst[0] = byte(ExtendedTypeSentinel)
		dst[1] = 0
		dst[2] = byte(t)
		dst[3] = byte(len(value))
		dst[4] = byte(len(value) >> 8)
		copy(dst[5:], value)
		return 5 + len(value)
	}
	dst[0] = byte(t)
	dst[1] = byte(len(value))
	copy(dst[2:], value)
	return 2 + len(value)
}

// CheckDomain enforces the builder-side domain discipline from spec.md
// §4.2/§8: every TLV type in a message must belong to the header's
// relay_domain.
func CheckDomain(t TLVType, declaredDomain RelayDomain) error {
	entry, ok := typeRegistry[t]
	if !ok {
		if dom, inRange := domainOfUnregisteredType(t); inRange && dom != 0 && dom != declaredDomain {
			return &DomainError{Type: t, Declared: declaredDomain, Expected: dom}
		}
		return nil
	}
	if entry.Domain != 0 && entry.Domain != declaredDomain {
		return &DomainError{Type: t, Declared: declaredDomain, Expected: entry.Domain}
	}
	return nil
}

package core

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Magic is the fixed 4-byte magic every message starts with (spec.md §3/§6).
// Exposed for testing only, per spec.md §6's protocol.magic note.
const Magic uint32 = 0xDEADBEEF

// HeaderSize is the fixed 32-byte length of MessageHeader's wire form.
const HeaderSize = 32

// RelayDomain is one of the three routing/validation domains (spec.md §3).
type RelayDomain uint8

const (
	DomainMarketData RelayDomain = 1
	DomainSignal     RelayDomain = 2
	DomainExecution  RelayDomain = 3
)

func (d RelayDomain) Valid() bool {
	return d == DomainMarketData || d == DomainSignal || d == DomainExecution
}

func (d RelayDomain) String() string {
	switch d {
	case DomainMarketData:
		return "market_data"
	case DomainSignal:
		return "signal"
	case DomainExecution:
		return "execution"
	default:
		return "domain(invalid)"
	}
}

// ParseRelayDomain looks up the RelayDomain whose String() form equals
// name, for config/CLI layers that identify a domain by name.
func ParseRelayDomain(name string) (RelayDomain, error) {
	switch name {
	case "market_data":
		return DomainMarketData, nil
	case "signal":
		return DomainSignal, nil
	case "execution":
		return DomainExecution, nil
	default:
		return 0, fmt.Errorf("core: unknown relay domain %q", name)
	}
}

// HeaderFlags is the bitfield carried in MessageHeader.Flags.
type HeaderFlags uint8

const (
	FlagCompressed HeaderFlags = 1 << iota
	FlagEncrypted
	FlagPriorityHigh
	FlagRequiresAck
	FlagTraceEnabled
	FlagRecovery
)

// ProtocolVersion is the only header version this implementation accepts.
const ProtocolVersion uint8 = 1

// MessageHeader is the 32-byte fixed prefix of every wire message (spec.md
// §3/§6). Field access happens only by value — never by taking a reference
// into a parsed byte slice — per the packed-struct discipline in spec.md §9.
type MessageHeader struct {
	Magic       uint32
	Domain      RelayDomain
	Version     uint8
	Source      SourceType
	Flags       HeaderFlags
	PayloadSize uint32
	Sequence    uint64
	TimestampNs uint64
	Checksum    uint32
}

// EncodeHeader writes h's 32-byte wire form into dst, which must be at
// least HeaderSize bytes. The checksum field is zeroed; callers finalise it
// with FinalizeChecksum once the full message buffer (header + payload) is
// assembled.
func EncodeHeader(dst []byte, h MessageHeader) {
	_ = dst[HeaderSize-1]
	binary.LittleEndian.PutUint32(dst[0:4], h.Magic)
	dst[4] = byte(h.Domain)
	dst[5] = h.Version
	dst[6] = byte(h.Source)
	dst[7] = byte(h.Flags)
	binary.LittleEndian.PutUint32(dst[8:12], h.PayloadSize)
	binary.LittleEndian.PutUint64(dst[12:20], h.Sequence)
	binary.LittleEndian.PutUint64(dst[20:28], h.TimestampNs)
	binary.LittleEndian.PutUint32(dst[28:32], 0)
}

// DecodeHeader reads the 32-byte wire form back into a value. It performs no
// validation beyond length — ParseHeader wraps this with magic/domain/
// version/checksum checks.
func DecodeHeader(src []byte) MessageHeader {
	_ = src[HeaderSize-1]
	return MessageHeader{
		Magic:       binary.LittleEndian.Uint32(src[0:4]),
		Domain:      RelayDomain(src[4]),
		Version:     src[5],
		Source:      SourceType(src[6]),
		Flags:       HeaderFlags(src[7]),
		PayloadSize: binary.LittleEndian.Uint32(src[8:12]),
		Sequence:    binary.LittleEndian.Uint64(src[12:20]),
		TimestampNs: binary.LittleEndian.Uint64(src[20:28]),
		Checksum:    binary.LittleEndian.Uint32(src[28:32]),
	}
}

// computeChecksum computes the CRC32 (IEEE 802.3, polynomial 0xEDB88320)
// over the entire message with the checksum field (bytes 28:32) zeroed,
// resolving spec.md §9 Open Question 1 in favour of "entire message,
// checksum field zeroed".
func computeChecksum(message []byte) uint32 {
	if len(message) < HeaderSize {
		return crc32.ChecksumIEEE(message)
	}
	scratch := make([]byte, len(message))
	copy(scratch, message)
	binary.LittleEndian.PutUint32(scratch[28:32], 0)
	return crc32.ChecksumIEEE(scratch)
}

// FinalizeChecksum computes the checksum over the full message buffer
// (header + TLV payload, checksum field zeroed) and writes it into bytes
// 28:32. Called once by the builder after every TLV has been appended.
func FinalizeChecksum(message []byte) {
	sum := computeChecksum(message)
	binary.LittleEndian.PutUint32(message[28:32], sum)
}

// VerifyChecksum reports whether message's trailing checksum matches the
// CRC32 of the rest of the message with that field zeroed.
func VerifyChecksum(message []byte) bool {
	if len(message) < HeaderSize {
		return false
	}
	want := binary.LittleEndian.Uint32(message[28:32])
	return computeChecksum(message) == want
}

// ValidationPolicy carries the per-domain validation switches from spec.md
// §4.5. ParseHeader reads only EnforceChecksum; StrictTLVWalk is carried
// but no parsing code consults it.
type ValidationPolicy struct {
	EnforceChecksum bool
	StrictTLVWalk   bool
}

// ParseHeader validates and decodes the 32-byte header per spec.md §4.2
// step 1-2: length, magic, domain, version, and (per policy) checksum.
func ParseHeader(message []byte, policy ValidationPolicy) (MessageHeader, error) {
	if len(message) < HeaderSize {
		return MessageHeader{}, newParseError(ErrTooSmall, 0, "message shorter than header")
	}
	h := DecodeHeader(message)
	if h.Magic != Magic {
		return MessageHeader{}, newParseError(ErrInvalidMagic, 0, "bad magic bytes")
	}
	if !h.Domain.Valid() {
		return MessageHeader{}, newParseError(ErrInvalidDomain, 4, "relay_domain not in {1,2,3}")
	}
	if h.Version != ProtocolVersion {
		return MessageHeader{}, newParseError(ErrUnknownVersion, 5, "unsupported version")
	}
	if uint32(len(message)-HeaderSize) != h.PayloadSize {
		e := newParseError(ErrPayloadSizeMismatch, 8, "")
		e.Expected = uint64(len(message) - HeaderSize)
		e.Actual = uint64(h.PayloadSize)
		return MessageHeader{}, e
	}
	if policy.EnforceChecksum && !VerifyChecksum(message) {
		e := newParseError(ErrChecksumMismatch, 28, "")
		e.Expected = uint64(computeChecksum(message))
		e.Actual = uint64(binary.LittleEndian.Uint32(message[28:32]))
		return MessageHeader{}, e
	}
	return h, nil
}

package core

import (
	"sync/atomic"
	"time"
)

// TLVField is one (type, encoded value) pair a caller wants appended to a
// message, in the order it should appear on the wire (spec.md §4.4).
type TLVField struct {
	Type  TLVType
	Value []byte
}

// SequenceCounter is a per-(source, domain) atomically-incrementing sequence
// space. The zero value starts at sequence 1 on its first claim — spec.md
// §4.4/§5 requires sequence to be claimed atomically so a single Builder may
// be shared by producer tasks running in parallel.
type SequenceCounter struct {
	next uint64
}

// Next atomically claims and returns the next sequence number.
func (c *SequenceCounter) Next() uint64 {
	return atomic.AddUint64(&c.next, 1)
}

// Peek returns the last claimed sequence number without advancing it.
func (c *SequenceCounter) Peek() uint64 {
	return atomic.LoadUint64(&c.next)
}

// Builder composes header + TLV messages for a single (source, domain) pair
// (spec.md §4.4, component C5). A Builder owns exactly one SequenceCounter;
// callers that need independent sequence spaces per source construct one
// Builder per source.
type Builder struct {
	Domain RelayDomain
	Source SourceType
	seq    *SequenceCounter
	// Now is injectable for deterministic tests; defaults to time.Now.
	Now func() time.Time
}

// NewBuilder constructs a Builder for the given (domain, source), owning a
// fresh SequenceCounter starting at 1.
func NewBuilder(domain RelayDomain, source SourceType) *Builder {
	return &Builder{
		Domain: domain,
		Source: source,
		seq:    &SequenceCounter{},
		Now:    time.Now,
	}
}

// Sequence exposes the builder's counter so recovery logic can observe the
// last-claimed sequence without racing a concurrent Build.
func (b *Builder) Sequence() *SequenceCounter {
	return b.seq
}

// Build composes a complete, checksummed wire message from an ordered list
// of TLV fields, performing the four steps spec.md §4.4 requires:
//  1. allocate one contiguous buffer sized 32 + Σ(tlv_overhead + len)
//  2. write the header (payload_size, timestamp, claimed sequence)
//  3. append TLVs in order, using extended form automatically when len > 255
//  4. compute and write the CRC32 over the whole buffer with checksum zeroed
//
// Every field's type must belong to b.Domain per the registry — Build
// rejects the whole message (emitting nothing) on the first violation,
// matching spec.md §8 scenario 6.
func (b *Builder) Build(flags HeaderFlags, fields []TLVField) ([]byte, error) {
	for _, f := range fields {
		if err := CheckDomain(f.Type, b.Domain); err != nil {
			return nil, err
		}
	}

	payloadSize := 0
	for _, f := range fields {
		payloadSize += EncodedLen(f.Value)
	}

	message := make([]byte, HeaderSize+payloadSize)
	header := MessageHeader{
		Magic:       Magic,
		Domain:      b.Domain,
		Version:     ProtocolVersion,
		Source:      b.Source,
		Flags:       flags,
		PayloadSize: uint32(payloadSize),
		Sequence:    b.seq.Next(),
		TimestampNs: uint64(b.Now().UnixNano()),
	}
	EncodeHeader(message[:HeaderSize], header)

	offset := HeaderSize
	for _, f := range fields {
		offset += EncodeTLV(message[offset:], f.Type, f.Value)
	}

	FinalizeChecksum(message)
	return message, nil
}

package core

import (
	"encoding/binary"

	"github.com/holiman/uint256"
)

// Every record in this file is a fixed or bounded-layout little-endian
// struct per spec.md §3/§4.3. Field access is always by value — Encode
// copies fields out into a buffer, Decode copies bytes back into a fresh
// value — never by casting a pointer over a byte slice, so there is no
// misaligned-reference hazard regardless of what the host architecture
// tolerates.

// TradeTLV is a single trade print, 8-decimal fixed-point USD pricing
// (spec.md §3). 37 bytes on the wire.
type TradeTLV struct {
	VenueId     VenueId
	AssetType   AssetType
	Reserved    uint8
	AssetId     uint64
	Price       int64 // 8-decimal fixed point
	Volume      int64 // 8-decimal fixed point
	Side        uint8 // 0=buy, 1=sell
	TimestampNs uint64
}

const TradeTLVSize = 2 + 1 + 1 + 8 + 8 + 8 + 1 + 8 // 37

func (t TradeTLV) Encode() []byte {
	buf := make([]byte, TradeTLVSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(t.VenueId))
	buf[2] = byte(t.AssetType)
	buf[3] = t.Reserved
	binary.LittleEndian.PutUint64(buf[4:12], t.AssetId)
	binary.LittleEndian.PutUint64(buf[12:20], uint64(t.Price))
	binary.LittleEndian.PutUint64(buf[20:28], uint64(t.Volume))
	buf[28] = t.Side
	binary.LittleEndian.PutUint64(buf[29:37], t.TimestampNs)
	return buf
}

func DecodeTradeTLV(b []byte) (TradeTLV, error) {
	if len(b) != TradeTLVSize {
		return TradeTLV{}, newParseError(ErrFixedSizeMismatch, 0, "TradeTLV")
	}
	return TradeTLV{
		VenueId:     VenueId(binary.LittleEndian.Uint16(b[0:2])),
		AssetType:   AssetType(b[2]),
		Reserved:    b[3],
		AssetId:     binary.LittleEndian.Uint64(b[4:12]),
		Price:       int64(binary.LittleEndian.Uint64(b[12:20])),
		Volume:      int64(binary.LittleEndian.Uint64(b[20:28])),
		Side:        b[28],
		TimestampNs: binary.LittleEndian.Uint64(b[29:37]),
	}, nil
}

// QuoteTLV is a top-of-book bid/ask snapshot, 8-decimal fixed point.
// 52 bytes on the wire.
type QuoteTLV struct {
	VenueId     VenueId
	AssetType   AssetType
	Reserved    uint8
	AssetId     uint64
	BidPrice    int64
	AskPrice    int64
	BidSize     int64
	AskSize     int64
	TimestampNs uint64
}

const QuoteTLVSize = 2 + 1 + 1 + 8 + 8 + 8 + 8 + 8 + 8 // 52

func (q QuoteTLV) Encode() []byte {
	buf := make([]byte, QuoteTLVSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(q.VenueId))
	buf[2] = byte(q.AssetType)
	buf[3] = q.Reserved
	binary.LittleEndian.PutUint64(buf[4:12], q.AssetId)
	binary.LittleEndian.PutUint64(buf[12:20], uint64(q.BidPrice))
	binary.LittleEndian.PutUint64(buf[20:28], uint64(q.AskPrice))
	binary.LittleEndian.PutUint64(buf[28:36], uint64(q.BidSize))
	binary.LittleEndian.PutUint64(buf[36:44], uint64(q.AskSize))
	binary.LittleEndian.PutUint64(buf[44:52], q.TimestampNs)
	return buf
}

func DecodeQuoteTLV(b []byte) (QuoteTLV, error) {
	if len(b) != QuoteTLVSize {
		return QuoteTLV{}, newParseError(ErrFixedSizeMismatch, 0, "QuoteTLV")
	}
	return QuoteTLV{
		VenueId:     VenueId(binary.LittleEndian.Uint16(b[0:2])),
		AssetType:   AssetType(b[2]),
		Reserved:    b[3],
		AssetId:     binary.LittleEndian.Uint64(b[4:12]),
		BidPrice:    int64(binary.LittleEndian.Uint64(b[12:20])),
		AskPrice:    int64(binary.LittleEndian.Uint64(b[20:28])),
		BidSize:     int64(binary.LittleEndian.Uint64(b[28:36])),
		AskSize:     int64(binary.LittleEndian.Uint64(b[36:44])),
		TimestampNs: binary.LittleEndian.Uint64(b[44:52]),
	}, nil
}

// OrderLevel is one price/quantity rung of an OrderBookTLV.
type OrderLevel struct {
	Price    int64
	Quantity int64
}

const orderLevelSize = 16

// OrderBookTLV is a bounded sequence of OrderLevel, up to the maxLevels
// bound passed to DecodeOrderBookTLV (protocol.max_order_levels, spec.md
// §3, default 50, range 1-100).
type OrderBookTLV struct {
	VenueId   VenueId
	AssetType AssetType
	Reserved  uint8
	AssetId   uint64
	Levels    []OrderLevel
}

func orderBookHeaderSize() int { return 2 + 1 + 1 + 8 }

func (o OrderBookTLV) Encode() []byte {
	buf := make([]byte, orderBookHeaderSize()+len(o.Levels)*orderLevelSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(o.VenueId))
	buf[2] = byte(o.AssetType)
	buf[3] = o.Reserved
	binary.LittleEndian.PutUint64(buf[4:12], o.AssetId)
	off := 12
	for _, lvl := range o.Levels {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(lvl.Price))
		binary.LittleEndian.PutUint64(buf[off+8:off+16], uint64(lvl.Quantity))
		off += orderLevelSize
	}
	return buf
}

// DecodeOrderBookTLV decodes b, rejecting level counts above maxLevels
// (the process-configured protocol.max_order_levels, spec.md §3/§6).
func DecodeOrderBookTLV(b []byte, maxLevels int) (OrderBookTLV, error) {
	hdr := orderBookHeaderSize()
	if len(b) < hdr {
		return OrderBookTLV{}, newParseError(ErrTruncatedTLV, 0, "OrderBookTLV header")
	}
	rest := len(b) - hdr
	if rest%orderLevelSize != 0 {
		return OrderBookTLV{}, newParseError(ErrTruncatedTLV, hdr, "OrderBookTLV levels not a multiple of level size")
	}
	n := rest / orderLevelSize
	if n > maxLevels {
		e := newParseError(ErrBoundedSizeOutOfRange, hdr, "OrderBookTLV exceeds configured max_order_levels")
		e.Expected = uint64(maxLevels)
		e.Actual = uint64(n)
		return OrderBookTLV{}, e
	}
	ob := OrderBookTLV{
		VenueId:   VenueId(binary.LittleEndian.Uint16(b[0:2])),
		AssetType: AssetType(b[2]),
		Reserved:  b[3],
		AssetId:   binary.LittleEndian.Uint64(b[4:12]),
		Levels:    make([]OrderLevel, n),
	}
	off := hdr
	for i := 0; i < n; i++ {
		ob.Levels[i] = OrderLevel{
			Price:    int64(binary.LittleEndian.Uint64(b[off : off+8])),
			Quantity: int64(binary.LittleEndian.Uint64(b[off+8 : off+16])),
		}
		off += orderLevelSize
	}
	return ob, nil
}

// PoolSwapTLV carries an on-chain AMM swap at native token precision — no
// scaling, no float, ever (spec.md §3/§4.3/§9).
type PoolSwapTLV struct {
	PoolAddress        [20]byte
	TokenInAddr        [20]byte
	TokenOutAddr       [20]byte
	AmountIn           int64
	AmountOut          int64
	AmountInDecimals   uint8
	AmountOutDecimals  uint8
	SqrtPriceX96After  *uint256.Int // full uint160, stored in a uint256.Int
	LiquidityAfter     *uint256.Int // u128
	TickAfter          int32
	BlockNumber        uint64
	TimestampNs        uint64
}

// PoolSwapTLVSize is the wire size: 3*20 address bytes + 2*8 amounts +
// 2 decimals bytes + 20 sqrt_price_x96 + 16 liquidity + 4 tick + 8 block +
// 8 timestamp = 134 bytes, inside the spec's 60-200 byte bound.
const PoolSwapTLVSize = 20 + 20 + 20 + 8 + 8 + 1 + 1 + 20 + 16 + 4 + 8 + 8

func (p PoolSwapTLV) Encode() []byte {
	buf := make([]byte, PoolSwapTLVSize)
	off := 0
	off += copy(buf[off:], p.PoolAddress[:])
	off += copy(buf[off:], p.TokenInAddr[:])
	off += copy(buf[off:], p.TokenOutAddr[:])
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(p.AmountIn))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(p.AmountOut))
	off += 8
	buf[off] = p.AmountInDecimals
	off++
	buf[off] = p.AmountOutDecimals
	off++
	putUint160(buf[off:off+20], p.SqrtPriceX96After)
	off += 20
	putUint128(buf[off:off+16], p.LiquidityAfter)
	off += 16
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(p.TickAfter))
	off += 4
	binary.LittleEndian.PutUint64(buf[off:off+8], p.BlockNumber)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], p.TimestampNs)
	return buf
}

func DecodePoolSwapTLV(b []byte) (PoolSwapTLV, error) {
	if len(b) != PoolSwapTLVSize {
		return PoolSwapTLV{}, newParseError(ErrFixedSizeMismatch, 0, "PoolSwapTLV")
	}
	var p PoolSwapTLV
	off := 0
	copy(p.PoolAddress[:], b[off:off+20])
	off += 20
	copy(p.TokenInAddr[:], b[off:off+20])
	off += 20
	copy(p.TokenOutAddr[:], b[off:off+20])
	off += 20
	p.AmountIn = int64(binary.LittleEndian.Uint64(b[off : off+8]))
	off += 8
	p.AmountOut = int64(binary.LittleEndian.Uint64(b[off : off+8]))
	off += 8
	p.AmountInDecimals = b[off]
	off++
	p.AmountOutDecimals = b[off]
	off++
	p.SqrtPriceX96After = getUint160(b[off : off+20])
	off += 20
	p.LiquidityAfter = getUint128(b[off : off+16])
	off += 16
	p.TickAfter = int32(binary.LittleEndian.Uint32(b[off : off+4]))
	off += 4
	p.BlockNumber = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	p.TimestampNs = binary.LittleEndian.Uint64(b[off : off+8])
	return p, nil
}

// putUint160 writes v's low 20 bytes little-endian into dst (len 20).
func putUint160(dst []byte, v *uint256.Int) {
	if v == nil {
		return
	}
	full := v.Bytes32() // big-endian, 32 bytes
	for i := 0; i < 20; i++ {
		dst[i] = full[31-i]
	}
}

func getUint160(src []byte) *uint256.Int {
	var be [32]byte
	for i := 0; i < len(src); i++ {
		be[31-i] = src[i]
	}
	return new(uint256.Int).SetBytes32(be[:])
}

func putUint128(dst []byte, v *uint256.Int) {
	if v == nil {
		return
	}
	full := v.Bytes32()
	for i := 0; i < 16; i++ {
		dst[i] = full[31-i]
	}
}

func getUint128(src []byte) *uint256.Int {
	var be [32]byte
	for i := 0; i < len(src); i++ {
		be[31-i] = src[i]
	}
	return new(uint256.Int).SetBytes32(be[:])
}

// PoolSyncTLV mirrors Uniswap V2-style reserve sync events at native
// precision.
type PoolSyncTLV struct {
	PoolAddress   [20]byte
	Reserve0      int64
	Reserve1      int64
	Decimals0     uint8
	Decimals1     uint8
	BlockNumber   uint64
	TimestampNs   uint64
}

const PoolSyncTLVSize = 20 + 8 + 8 + 1 + 1 + 8 + 8 // 54

func (p PoolSyncTLV) Encode() []byte {
	buf := make([]byte, PoolSyncTLVSize)
	off := copy(buf, p.PoolAddress[:])
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(p.Reserve0))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(p.Reserve1))
	off += 8
	buf[off] = p.Decimals0
	off++
	buf[off] = p.Decimals1
	off++
	binary.LittleEndian.PutUint64(buf[off:off+8], p.BlockNumber)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], p.TimestampNs)
	return buf
}

func DecodePoolSyncTLV(b []byte) (PoolSyncTLV, error) {
	if len(b) != PoolSyncTLVSize {
		return PoolSyncTLV{}, newParseError(ErrFixedSizeMismatch, 0, "PoolSyncTLV")
	}
	var p PoolSyncTLV
	off := copy(p.PoolAddress[:], b[0:20])
	p.Reserve0 = int64(binary.LittleEndian.Uint64(b[off : off+8]))
	off += 8
	p.Reserve1 = int64(binary.LittleEndian.Uint64(b[off : off+8]))
	off += 8
	p.Decimals0 = b[off]
	off++
	p.Decimals1 = b[off]
	off++
	p.BlockNumber = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	p.TimestampNs = binary.LittleEndian.Uint64(b[off : off+8])
	return p, nil
}

// PoolMintTLV and PoolBurnTLV share a layout: liquidity added/removed by a
// provider at native per-token precision.
type PoolMintTLV struct {
	PoolAddress [20]byte
	Amount0     int64
	Amount1     int64
	Decimals0   uint8
	Decimals1   uint8
	TimestampNs uint64
}

const PoolMintTLVSize = 20 + 8 + 8 + 1 + 1 + 8 // 46

func (p PoolMintTLV) Encode() []byte {
	buf := make([]byte, PoolMintTLVSize)
	off := copy(buf, p.PoolAddress[:])
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(p.Amount0))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(p.Amount1))
	off += 8
	buf[off] = p.Decimals0
	off++
	buf[off] = p.Decimals1
	off++
	binary.LittleEndian.PutUint64(buf[off:off+8], p.TimestampNs)
	return buf
}

func DecodePoolMintTLV(b []byte) (PoolMintTLV, error) {
	if len(b) != PoolMintTLVSize {
		return PoolMintTLV{}, newParseError(ErrFixedSizeMismatch, 0, "PoolMintTLV")
	}
	var p PoolMintTLV
	off := copy(p.PoolAddress[:], b[0:20])
	p.Amount0 = int64(binary.LittleEndian.Uint64(b[off : off+8]))
	off += 8
	p.Amount1 = int64(binary.LittleEndian.Uint64(b[off : off+8]))
	off += 8
	p.Decimals0 = b[off]
	off++
	p.Decimals1 = b[off]
	off++
	p.TimestampNs = binary.LittleEndian.Uint64(b[off : off+8])
	return p, nil
}

type PoolBurnTLV PoolMintTLV

const PoolBurnTLVSize = PoolMintTLVSize

func (p PoolBurnTLV) Encode() []byte { return PoolMintTLV(p).Encode() }

func DecodePoolBurnTLV(b []byte) (PoolBurnTLV, error) {
	m, err := DecodePoolMintTLV(b)
	return PoolBurnTLV(m), err
}

// PoolTickTLV reports a tick crossing during a swap.
type PoolTickTLV struct {
	PoolAddress [20]byte
	Tick        int32
	TimestampNs uint64
}

const PoolTickTLVSize = 20 + 4 + 8 // 32

func (p PoolTickTLV) Encode() []byte {
	buf := make([]byte, PoolTickTLVSize)
	off := copy(buf, p.PoolAddress[:])
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(p.Tick))
	off += 4
	binary.LittleEndian.PutUint64(buf[off:off+8], p.TimestampNs)
	return buf
}

func DecodePoolTickTLV(b []byte) (PoolTickTLV, error) {
	if len(b) != PoolTickTLVSize {
		return PoolTickTLV{}, newParseError(ErrFixedSizeMismatch, 0, "PoolTickTLV")
	}
	var p PoolTickTLV
	off := copy(p.PoolAddress[:], b[0:20])
	p.Tick = int32(binary.LittleEndian.Uint32(b[off : off+4]))
	off += 4
	p.TimestampNs = binary.LittleEndian.Uint64(b[off : off+8])
	return p, nil
}

// PoolStateTLV is a variable-length full pool-state snapshot, used when a
// consumer must rebuild state rather than replay individual events.
type PoolStateTLV struct {
	PoolAddress [20]byte
	TimestampNs uint64
	StateBytes  []byte // venue-specific encoded reserves/ticks/fee-tier
}

func (p PoolStateTLV) Encode() []byte {
	buf := make([]byte, 20+8+len(p.StateBytes))
	off := copy(buf, p.PoolAddress[:])
	binary.LittleEndian.PutUint64(buf[off:off+8], p.TimestampNs)
	off += 8
	copy(buf[off:], p.StateBytes)
	return buf
}

func DecodePoolStateTLV(b []byte) (PoolStateTLV, error) {
	if len(b) < 28 {
		return PoolStateTLV{}, newParseError(ErrTruncatedTLV, 0, "PoolStateTLV")
	}
	var p PoolStateTLV
	off := copy(p.PoolAddress[:], b[0:20])
	p.TimestampNs = binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	p.StateBytes = append([]byte(nil), b[off:]...)
	return p, nil
}

// SignalIdentityTLV identifies the strategy/signal source emitting an
// EconomicsTLV. 16 bytes.
type SignalIdentityTLV struct {
	SignalId   uint64
	StrategyId uint32
	Confidence uint32 // fixed point, 1e6 = 100%
}

const SignalIdentityTLVSize = 8 + 4 + 4 // 16

func (s SignalIdentityTLV) Encode() []byte {
	buf := make([]byte, SignalIdentityTLVSize)
	binary.LittleEndian.PutUint64(buf[0:8], s.SignalId)
	binary.LittleEndian.PutUint32(buf[8:12], s.StrategyId)
	binary.LittleEndian.PutUint32(buf[12:16], s.Confidence)
	return buf
}

func DecodeSignalIdentityTLV(b []byte) (SignalIdentityTLV, error) {
	if len(b) != SignalIdentityTLVSize {
		return SignalIdentityTLV{}, newParseError(ErrFixedSizeMismatch, 0, "SignalIdentityTLV")
	}
	return SignalIdentityTLV{
		SignalId:   binary.LittleEndian.Uint64(b[0:8]),
		StrategyId: binary.LittleEndian.Uint32(b[8:12]),
		Confidence: binary.LittleEndian.Uint32(b[12:16]),
	}, nil
}

// EconomicsTLV carries a Q64.64 fixed-point profit estimate. 32 bytes.
type EconomicsTLV struct {
	ExpectedProfitQ6464 uint64 // high 64 bits of the Q64.64 value
	ExpectedProfitFrac  uint64 // low (fractional) 64 bits
	GasCostUsd8Dec      int64
	ConfidenceBp        uint32
	Reserved            uint32
}

const EconomicsTLVSize = 8 + 8 + 8 + 4 + 4 // 32

func (e EconomicsTLV) Encode() []byte {
	buf := make([]byte, EconomicsTLVSize)
	binary.LittleEndian.PutUint64(buf[0:8], e.ExpectedProfitQ6464)
	binary.LittleEndian.PutUint64(buf[8:16], e.ExpectedProfitFrac)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(e.GasCostUsd8Dec))
	binary.LittleEndian.PutUint32(buf[24:28], e.ConfidenceBp)
	binary.LittleEndian.PutUint32(buf[28:32], e.Reserved)
	return buf
}

func DecodeEconomicsTLV(b []byte) (EconomicsTLV, error) {
	if len(b) != EconomicsTLVSize {
		return EconomicsTLV{}, newParseError(ErrFixedSizeMismatch, 0, "EconomicsTLV")
	}
	return EconomicsTLV{
		ExpectedProfitQ6464: binary.LittleEndian.Uint64(b[0:8]),
		ExpectedProfitFrac:  binary.LittleEndian.Uint64(b[8:16]),
		GasCostUsd8Dec:      int64(binary.LittleEndian.Uint64(b[16:24])),
		ConfidenceBp:        binary.LittleEndian.Uint32(b[24:28]),
		Reserved:            binary.LittleEndian.Uint32(b[28:32]),
	}, nil
}

// OrderRequestTLV is an execution-domain order intent. 32 bytes.
type OrderRequestTLV struct {
	OrderId       uint64
	InstrumentU64 uint64
	Side          uint8
	OrderType     uint8
	Reserved      uint16
	Quantity      int64
	LimitPrice    int32 // 8-decimal fixed point
}

const OrderRequestTLVSize = 8 + 8 + 1 + 1 + 2 + 8 + 4 // 32

func (o OrderRequestTLV) Encode() []byte {
	buf := make([]byte, OrderRequestTLVSize)
	binary.LittleEndian.PutUint64(buf[0:8], o.OrderId)
	binary.LittleEndian.PutUint64(buf[8:16], o.InstrumentU64)
	buf[16] = o.Side
	buf[17] = o.OrderType
	binary.LittleEndian.PutUint16(buf[18:20], o.Reserved)
	binary.LittleEndian.PutUint64(buf[20:28], uint64(o.Quantity))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(o.LimitPrice))
	return buf
}

func DecodeOrderRequestTLV(b []byte) (OrderRequestTLV, error) {
	if len(b) != OrderRequestTLVSize {
		return OrderRequestTLV{}, newParseError(ErrFixedSizeMismatch, 0, "OrderRequestTLV")
	}
	return OrderRequestTLV{
		OrderId:       binary.LittleEndian.Uint64(b[0:8]),
		InstrumentU64: binary.LittleEndian.Uint64(b[8:16]),
		Side:          b[16],
		OrderType:     b[17],
		Reserved:      binary.LittleEndian.Uint16(b[18:20]),
		Quantity:      int64(binary.LittleEndian.Uint64(b[20:28])),
		LimitPrice:    int32(binary.LittleEndian.Uint32(b[28:32])),
	}, nil
}

// FillTLV reports an execution fill against an OrderRequestTLV. 32 bytes.
type FillTLV struct {
	OrderId   uint64
	FillId    uint64
	FilledQty int64
	FillPrice int64
}

const FillTLVSize = 8 + 8 + 8 + 8 // 32

func (f FillTLV) Encode() []byte {
	buf := make([]byte, FillTLVSize)
	binary.LittleEndian.PutUint64(buf[0:8], f.OrderId)
	binary.LittleEndian.PutUint64(buf[8:16], f.FillId)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(f.FilledQty))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(f.FillPrice))
	return buf
}

func DecodeFillTLV(b []byte) (FillTLV, error) {
	if len(b) != FillTLVSize {
		return FillTLV{}, newParseError(ErrFixedSizeMismatch, 0, "FillTLV")
	}
	return FillTLV{
		OrderId:   binary.LittleEndian.Uint64(b[0:8]),
		FillId:    binary.LittleEndian.Uint64(b[8:16]),
		FilledQty: int64(binary.LittleEndian.Uint64(b[16:24])),
		FillPrice: int64(binary.LittleEndian.Uint64(b[24:32])),
	}, nil
}

// HeartbeatTLV is a liveness ping carrying the sender's current sequence.
// 16 bytes.
type HeartbeatTLV struct {
	Source         SourceType
	Reserved       [3]byte
	CurrentSeq     uint64
	TimestampNsLow uint32
}

const HeartbeatTLVSize = 1 + 3 + 8 + 4 // 16

func (h HeartbeatTLV) Encode() []byte {
	buf := make([]byte, HeartbeatTLVSize)
	buf[0] = byte(h.Source)
	copy(buf[1:4], h.Reserved[:])
	binary.LittleEndian.PutUint64(buf[4:12], h.CurrentSeq)
	binary.LittleEndian.PutUint32(buf[12:16], h.TimestampNsLow)
	return buf
}

func DecodeHeartbeatTLV(b []byte) (HeartbeatTLV, error) {
	if len(b) != HeartbeatTLVSize {
		return HeartbeatTLV{}, newParseError(ErrFixedSizeMismatch, 0, "HeartbeatTLV")
	}
	var h HeartbeatTLV
	h.Source = SourceType(b[0])
	copy(h.Reserved[:], b[1:4])
	h.CurrentSeq = binary.LittleEndian.Uint64(b[4:12])
	h.TimestampNsLow = binary.LittleEndian.Uint32(b[12:16])
	return h, nil
}

// StateInvalidationAction is the action carried by a StateInvalidationTLV.
type StateInvalidationAction uint8

const StateInvalidationReset StateInvalidationAction = 1

// StateInvalidationTLV is the only way the core signals "discard prior
// state" (spec.md §7).
type StateInvalidationTLV struct {
	Venue         VenueId
	InstrumentU64 uint64
	Action        StateInvalidationAction
	Reserved      [5]byte
}

const StateInvalidationTLVSize = 2 + 8 + 1 + 5 // 16

func (s StateInvalidationTLV) Encode() []byte {
	buf := make([]byte, StateInvalidationTLVSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(s.Venue))
	binary.LittleEndian.PutUint64(buf[2:10], s.InstrumentU64)
	buf[10] = byte(s.Action)
	copy(buf[11:16], s.Reserved[:])
	return buf
}

func DecodeStateInvalidationTLV(b []byte) (StateInvalidationTLV, error) {
	if len(b) != StateInvalidationTLVSize {
		return StateInvalidationTLV{}, newParseError(ErrFixedSizeMismatch, 0, "StateInvalidationTLV")
	}
	var s StateInvalidationTLV
	s.Venue = VenueId(binary.LittleEndian.Uint16(b[0:2]))
	s.InstrumentU64 = binary.LittleEndian.Uint64(b[2:10])
	s.Action = StateInvalidationAction(b[10])
	copy(s.Reserved[:], b[11:16])
	return s, nil
}

// TraceContextTLV propagates a distributed trace across the relay fabric.
// spec.md §3 names this record 26 bytes, but its own field list (trace_id
// u128, span_id u64, parent_span_id u64, business_flag u8, originating
// domain u8) sums to 34 bytes; we implement the full field list at its
// natural 34-byte width rather than truncate trace_id to fit the stated
// count (see DESIGN.md).
type TraceContextTLV struct {
	TraceIdHi    uint64
	TraceIdLo    uint64
	SpanId       uint64
	ParentSpanId uint64
	BusinessFlag uint8
	OriginDomain RelayDomain
}

const TraceContextTLVSize = 8 + 8 + 8 + 8 + 1 + 1 // 34

func (t TraceContextTLV) Encode() []byte {
	buf := make([]byte, TraceContextTLVSize)
	binary.LittleEndian.PutUint64(buf[0:8], t.TraceIdHi)
	binary.LittleEndian.PutUint64(buf[8:16], t.TraceIdLo)
	binary.LittleEndian.PutUint64(buf[16:24], t.SpanId)
	binary.LittleEndian.PutUint64(buf[24:32], t.ParentSpanId)
	buf[32] = t.BusinessFlag
	buf[33] = byte(t.OriginDomain)
	return buf
}

func DecodeTraceContextTLV(b []byte) (TraceContextTLV, error) {
	if len(b) != TraceContextTLVSize {
		return TraceContextTLV{}, newParseError(ErrFixedSizeMismatch, 0, "TraceContextTLV")
	}
	var t TraceContextTLV
	t.TraceIdHi = binary.LittleEndian.Uint64(b[0:8])
	t.TraceIdLo = binary.LittleEndian.Uint64(b[8:16])
	t.SpanId = binary.LittleEndian.Uint64(b[16:24])
	t.ParentSpanId = binary.LittleEndian.Uint64(b[24:32])
	t.BusinessFlag = b[32]
	t.OriginDomain = RelayDomain(b[33])
	return t, nil
}

// RecoveryRequestType distinguishes retransmit from snapshot recovery.
type RecoveryRequestType uint8

const (
	RecoveryRetransmit RecoveryRequestType = 1
	RecoverySnapshot    RecoveryRequestType = 2
)

// RecoveryRequestTLV is emitted by a consumer on gap detection (spec.md
// §4.6/§8 scenario 4). spec.md names this record 18 bytes, but its field
// list (consumer_id u32, last_sequence u64, current_sequence u64,
// request_type u8, reserved u8) sums to 22; we keep the natural 22-byte
// width rather than shrink a field to match the stated count (see
// DESIGN.md).
type RecoveryRequestTLV struct {
	ConsumerId      uint32
	LastSequence    uint64
	CurrentSequence uint64
	RequestType     RecoveryRequestType
	Reserved        uint8
}

const RecoveryRequestTLVSize = 4 + 8 + 8 + 1 + 1 // 22

func (r RecoveryRequestTLV) Encode() []byte {
	buf := make([]byte, RecoveryRequestTLVSize)
	binary.LittleEndian.PutUint32(buf[0:4], r.ConsumerId)
	binary.LittleEndian.PutUint64(buf[4:12], r.LastSequence)
	binary.LittleEndian.PutUint64(buf[12:20], r.CurrentSequence)
	buf[20] = byte(r.RequestType)
	buf[21] = r.Reserved
	return buf
}

func DecodeRecoveryRequestTLV(b []byte) (RecoveryRequestTLV, error) {
	if len(b) != RecoveryRequestTLVSize {
		return RecoveryRequestTLV{}, newParseError(ErrFixedSizeMismatch, 0, "RecoveryRequestTLV")
	}
	var r RecoveryRequestTLV
	r.ConsumerId = binary.LittleEndian.Uint32(b[0:4])
	r.LastSequence = binary.LittleEndian.Uint64(b[4:12])
	r.CurrentSequence = binary.LittleEndian.Uint64(b[12:20])
	r.RequestType = RecoveryRequestType(b[20])
	r.Reserved = b[21]
	return r, nil
}

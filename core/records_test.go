package core

import (
	"reflect"
	"testing"

	"github.com/holiman/uint256"
)

func TestTradeTLVSizeAndRoundTrip(t *testing.T) {
	if n := len(TradeTLV{}.Encode()); n != TradeTLVSize || n != 37 {
		t.Fatalf("TradeTLV encoded size=%d want 37", n)
	}
	r := TradeTLV{VenueId: VenueBinance, AssetType: AssetTypeToken, AssetId: 0x0102030405060708,
		Price: 4_512_350_000_000, Volume: 12_345_678, Side: 0, TimestampNs: 1_700_000_000_000_000_000}
	got, err := DecodeTradeTLV(r.Encode())
	if err != nil {
		t.Fatalf("DecodeTradeTLV: %v", err)
	}
	if got != r {
		t.Fatalf("round-trip mismatch: got %+v want %+v", got, r)
	}
}

func TestQuoteTLVSizeAndRoundTrip(t *testing.T) {
	if n := len(QuoteTLV{}.Encode()); n != QuoteTLVSize || n != 52 {
		t.Fatalf("QuoteTLV encoded size=%d want 52", n)
	}
	r := QuoteTLV{VenueId: VenueCoinbase, AssetType: AssetTypeToken, AssetId: 9,
		BidPrice: 100, AskPrice: 101, BidSize: 5, AskSize: 6, TimestampNs: 42}
	got, err := DecodeQuoteTLV(r.Encode())
	if err != nil {
		t.Fatalf("DecodeQuoteTLV: %v", err)
	}
	if got != r {
		t.Fatalf("round-trip mismatch: got %+v want %+v", got, r)
	}
}

func TestOrderBookTLVRoundTrip(t *testing.T) {
	r := OrderBookTLV{VenueId: VenueBinance, AssetType: AssetTypeToken, AssetId: 1,
		Levels: []OrderLevel{{Price: 1, Quantity: 2}, {Price: 3, Quantity: 4}}}
	got, err := DecodeOrderBookTLV(r.Encode(), 50)
	if err != nil {
		t.Fatalf("DecodeOrderBookTLV: %v", err)
	}
	if !reflect.DeepEqual(got, r) {
		t.Fatalf("round-trip mismatch: got %+v want %+v", got, r)
	}
}

func TestOrderBookTLVRejectsOverMaxLevels(t *testing.T) {
	levels := make([]OrderLevel, 10)
	r := OrderBookTLV{VenueId: VenueBinance, Levels: levels}
	_, err := DecodeOrderBookTLV(r.Encode(), 5)
	var pe *ParseError
	if !asParseError(err, &pe) || pe.Kind != ErrBoundedSizeOutOfRange {
		t.Fatalf("expected ErrBoundedSizeOutOfRange, got %v", err)
	}
}

func TestPoolSwapTLVSizeAndRoundTrip(t *testing.T) {
	if PoolSwapTLVSize != 134 {
		t.Fatalf("PoolSwapTLVSize=%d want 134", PoolSwapTLVSize)
	}
	r := PoolSwapTLV{
		AmountIn: 1_000_000, AmountOut: 2_000_000, AmountInDecimals: 18, AmountOutDecimals: 6,
		SqrtPriceX96After: uint256.NewInt(123456789),
		LiquidityAfter:    uint256.NewInt(987654321),
		TickAfter:         -100, BlockNumber: 20_000_000, TimestampNs: 1_700_000_000_000_000_000,
	}
	copy(r.PoolAddress[:], []byte{1, 2, 3})
	copy(r.TokenInAddr[:], []byte{4, 5, 6})
	copy(r.TokenOutAddr[:], []byte{7, 8, 9})
	encoded := r.Encode()
	if len(encoded) != PoolSwapTLVSize {
		t.Fatalf("encoded len=%d want %d", len(encoded), PoolSwapTLVSize)
	}
	got, err := DecodePoolSwapTLV(encoded)
	if err != nil {
		t.Fatalf("DecodePoolSwapTLV: %v", err)
	}
	if got.PoolAddress != r.PoolAddress || got.AmountIn != r.AmountIn || got.TickAfter != r.TickAfter {
		t.Fatalf("round-trip mismatch: got %+v want %+v", got, r)
	}
	if got.SqrtPriceX96After.Cmp(r.SqrtPriceX96After) != 0 {
		t.Fatalf("SqrtPriceX96After mismatch: got %s want %s", got.SqrtPriceX96After, r.SqrtPriceX96After)
	}
	if got.LiquidityAfter.Cmp(r.LiquidityAfter) != 0 {
		t.Fatalf("LiquidityAfter mismatch: got %s want %s", got.LiquidityAfter, r.LiquidityAfter)
	}
}

func TestPoolSyncTLVSizeAndRoundTrip(t *testing.T) {
	if PoolSyncTLVSize != 54 {
		t.Fatalf("PoolSyncTLVSize=%d want 54", PoolSyncTLVSize)
	}
	r := PoolSyncTLV{Reserve0: 1, Reserve1: 2, Decimals0: 18, Decimals1: 6, BlockNumber: 3, TimestampNs: 4}
	got, err := DecodePoolSyncTLV(r.Encode())
	if err != nil {
		t.Fatalf("DecodePoolSyncTLV: %v", err)
	}
	if got != r {
		t.Fatalf("round-trip mismatch: got %+v want %+v", got, r)
	}
}

func TestPoolMintBurnTLVSizeAndRoundTrip(t *testing.T) {
	if PoolMintTLVSize != 46 || PoolBurnTLVSize != 46 {
		t.Fatalf("PoolMint/BurnTLVSize=%d/%d want 46/46", PoolMintTLVSize, PoolBurnTLVSize)
	}
	mint := PoolMintTLV{Amount0: 1, Amount1: 2, Decimals0: 18, Decimals1: 18, TimestampNs: 5}
	gotMint, err := DecodePoolMintTLV(mint.Encode())
	if err != nil || gotMint != mint {
		t.Fatalf("PoolMintTLV round-trip failed: got %+v err %v", gotMint, err)
	}
	burn := PoolBurnTLV(mint)
	gotBurn, err := DecodePoolBurnTLV(burn.Encode())
	if err != nil || gotBurn != burn {
		t.Fatalf("PoolBurnTLV round-trip failed: got %+v err %v", gotBurn, err)
	}
}

func TestPoolTickTLVSizeAndRoundTrip(t *testing.T) {
	if PoolTickTLVSize != 32 {
		t.Fatalf("PoolTickTLVSize=%d want 32", PoolTickTLVSize)
	}
	r := PoolTickTLV{Tick: -42, TimestampNs: 99}
	got, err := DecodePoolTickTLV(r.Encode())
	if err != nil || got != r {
		t.Fatalf("PoolTickTLV round-trip failed: got %+v err %v", got, err)
	}
}

func TestPoolStateTLVVariableRoundTrip(t *testing.T) {
	r := PoolStateTLV{TimestampNs: 1, StateBytes: []byte{1, 2, 3, 4, 5}}
	got, err := DecodePoolStateTLV(r.Encode())
	if err != nil {
		t.Fatalf("DecodePoolStateTLV: %v", err)
	}
	if got.TimestampNs != r.TimestampNs || !reflect.DeepEqual(got.StateBytes, r.StateBytes) {
		t.Fatalf("round-trip mismatch: got %+v want %+v", got, r)
	}
}

func TestSignalIdentityTLVSizeAndRoundTrip(t *testing.T) {
	if SignalIdentityTLVSize != 16 {
		t.Fatalf("SignalIdentityTLVSize=%d want 16", SignalIdentityTLVSize)
	}
	r := SignalIdentityTLV{SignalId: 1, StrategyId: 2, Confidence: 900_000}
	got, err := DecodeSignalIdentityTLV(r.Encode())
	if err != nil || got != r {
		t.Fatalf("round-trip failed: got %+v err %v", got, err)
	}
}

func TestEconomicsTLVSizeAndRoundTrip(t *testing.T) {
	if EconomicsTLVSize != 32 {
		t.Fatalf("EconomicsTLVSize=%d want 32", EconomicsTLVSize)
	}
	r := EconomicsTLV{ExpectedProfitQ6464: 1, ExpectedProfitFrac: 2, GasCostUsd8Dec: 300, ConfidenceBp: 9500}
	got, err := DecodeEconomicsTLV(r.Encode())
	if err != nil || got != r {
		t.Fatalf("round-trip failed: got %+v err %v", got, err)
	}
}

func TestOrderRequestTLVSizeAndRoundTrip(t *testing.T) {
	if OrderRequestTLVSize != 32 {
		t.Fatalf("OrderRequestTLVSize=%d want 32", OrderRequestTLVSize)
	}
	r := OrderRequestTLV{OrderId: 1, InstrumentU64: 2, Side: 0, OrderType: 1, Quantity: 500, LimitPrice: -12345}
	got, err := DecodeOrderRequestTLV(r.Encode())
	if err != nil || got != r {
		t.Fatalf("round-trip failed: got %+v err %v", got, err)
	}
}

func TestFillTLVSizeAndRoundTrip(t *testing.T) {
	if FillTLVSize != 32 {
		t.Fatalf("FillTLVSize=%d want 32", FillTLVSize)
	}
	r := FillTLV{OrderId: 1, FillId: 2, FilledQty: 300, FillPrice: 400}
	got, err := DecodeFillTLV(r.Encode())
	if err != nil || got != r {
		t.Fatalf("round-trip failed: got %+v err %v", got, err)
	}
}

func TestHeartbeatTLVSizeAndRoundTrip(t *testing.T) {
	if HeartbeatTLVSize != 16 {
		t.Fatalf("HeartbeatTLVSize=%d want 16", HeartbeatTLVSize)
	}
	r := HeartbeatTLV{Source: SourceRelayInternal, CurrentSeq: 7, TimestampNsLow: 8}
	got, err := DecodeHeartbeatTLV(r.Encode())
	if err != nil || got != r {
		t.Fatalf("round-trip failed: got %+v err %v", got, err)
	}
}

func TestStateInvalidationTLVSizeAndRoundTrip(t *testing.T) {
	if StateInvalidationTLVSize != 16 {
		t.Fatalf("StateInvalidationTLVSize=%d want 16", StateInvalidationTLVSize)
	}
	r := StateInvalidationTLV{Venue: VenueBinance, InstrumentU64: 42, Action: StateInvalidationReset}
	got, err := DecodeStateInvalidationTLV(r.Encode())
	if err != nil || got != r {
		t.Fatalf("round-trip failed: got %+v err %v", got, err)
	}
}

func TestTraceContextTLVRoundTripPreservesFullTraceId(t *testing.T) {
	if TraceContextTLVSize != 34 {
		t.Fatalf("TraceContextTLVSize=%d want 34", TraceContextTLVSize)
	}
	r := TraceContextTLV{TraceIdHi: 0xAABBCCDDEEFF0011, TraceIdLo: 0x1122334455667788,
		SpanId: 1, ParentSpanId: 2, BusinessFlag: 1, OriginDomain: DomainExecution}
	got, err := DecodeTraceContextTLV(r.Encode())
	if err != nil || got != r {
		t.Fatalf("round-trip failed: got %+v err %v", got, err)
	}
	if got.TraceIdHi == 0 {
		t.Fatalf("TraceIdHi lost during round-trip")
	}
}

func TestRecoveryRequestTLVSizeAndRoundTrip(t *testing.T) {
	if RecoveryRequestTLVSize != 22 {
		t.Fatalf("RecoveryRequestTLVSize=%d want 22", RecoveryRequestTLVSize)
	}
	r := RecoveryRequestTLV{ConsumerId: 1, LastSequence: 100, CurrentSequence: 105, RequestType: RecoveryRetransmit}
	got, err := DecodeRecoveryRequestTLV(r.Encode())
	if err != nil || got != r {
		t.Fatalf("round-trip failed: got %+v err %v", got, err)
	}
}

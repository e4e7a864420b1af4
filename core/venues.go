package core

import (
	"fmt"
	"strconv"
)

// VenueId enumerates the exchanges, chains, and protocols an InstrumentId
// can reference. Values are pinned once here per
// spec.md §9's open question — every other package imports this table
// instead of re-declaring venue numbers.
type VenueId uint16

const (
	VenueGenericTest VenueId = 0
	VenueNYSE        VenueId = 1
	VenueNASDAQ      VenueId = 2
	VenueBinance     VenueId = 100
	VenueCoinbase    VenueId = 101
	VenueKraken      VenueId = 102
	VenueEthereum    VenueId = 200
	VenuePolygon     VenueId = 202
	VenueArbitrum    VenueId = 203
	VenueOptimism    VenueId = 204
	VenueBase        VenueId = 205
	VenueUniswapV3   VenueId = 301
	VenueUniswapV2   VenueId = 302
	VenueSushiSwap   VenueId = 303
	VenueCurve       VenueId = 304
)

var venueNames = map[VenueId]string{
	VenueGenericTest: "generic_test",
	VenueNYSE:        "nyse",
	VenueNASDAQ:      "nasdaq",
	VenueBinance:     "binance",
	VenueCoinbase:    "coinbase",
	VenueKraken:      "kraken",
	VenueEthereum:    "ethereum",
	VenuePolygon:     "polygon",
	VenueArbitrum:    "arbitrum",
	VenueOptimism:    "optimism",
	VenueBase:        "base",
	VenueUniswapV3:   "uniswap_v3",
	VenueUniswapV2:   "uniswap_v2",
	VenueSushiSwap:   "sushiswap",
	VenueCurve:       "curve",
}

// String renders a known venue name, or a numeric fallback for values not yet
// pinned in this table. InstrumentId round-tripping never depends on this —
// it exists purely for diagnostics and logging.
func (v VenueId) String() string {
	if name, ok := venueNames[v]; ok {
		return name
	}
	return "venue(" + strconv.FormatUint(uint64(v), 10) + ")"
}

// ParseVenueId looks up the VenueId whose String() form equals name, for
// config/CLI layers that identify a venue by name.
func ParseVenueId(name string) (VenueId, error) {
	for v, n := range venueNames {
		if n == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("core: unknown venue %q", name)
}

// AssetType enumerates the kind of instrument an InstrumentId describes.
type AssetType uint8

const (
	AssetTypeUnknown AssetType = iota
	AssetTypeStock
	AssetTypeBond
	AssetTypeETF
	AssetTypeCoin
	AssetTypeToken
	AssetTypeStableCoin
	AssetTypeNFT
	AssetTypePool
	AssetTypeVault
	AssetTypeOption
	AssetTypeFuture
	AssetTypePerpetual
)

var assetTypeNames = map[AssetType]string{
	AssetTypeUnknown:    "unknown",
	AssetTypeStock:      "stock",
	AssetTypeBond:       "bond",
	AssetTypeETF:        "etf",
	AssetTypeCoin:       "coin",
	AssetTypeToken:      "token",
	AssetTypeStableCoin: "stablecoin",
	AssetTypeNFT:        "nft",
	AssetTypePool:       "pool",
	AssetTypeVault:      "vault",
	AssetTypeOption:     "option",
	AssetTypeFuture:     "future",
	AssetTypePerpetual:  "perpetual",
}

func (a AssetType) String() string {
	if name, ok := assetTypeNames[a]; ok {
		return name
	}
	return "asset_type(" + strconv.FormatUint(uint64(a), 10) + ")"
}

// SourceType enumerates the producer identity carried in every
// MessageHeader. It scopes the per-source sequence space (spec.md §3/§5).
type SourceType uint8

const (
	SourceUnknown SourceType = iota
	SourceBinanceCollector
	SourceCoinbaseCollector
	SourceKrakenCollector
	SourcePolygonCollector
	SourceEthereumCollector
	SourceArbitrumCollector
	SourceArbitrageStrategy
	SourceExecutionEngine
	SourceRelayInternal
)

var sourceTypeNames = map[SourceType]string{
	SourceUnknown:           "unknown",
	SourceBinanceCollector:  "binance_collector",
	SourceCoinbaseCollector: "coinbase_collector",
	SourceKrakenCollector:   "kraken_collector",
	SourcePolygonCollector:  "polygon_collector",
	SourceEthereumCollector: "ethereum_collector",
	SourceArbitrumCollector: "arbitrum_collector",
	SourceArbitrageStrategy: "arbitrage_strategy",
	SourceExecutionEngine:   "execution_engine",
	SourceRelayInternal:     "relay_internal",
}

func (s SourceType) String() string {
	if name, ok := sourceTypeNames[s]; ok {
		return name
	}
	return "source(" + strconv.FormatUint(uint64(s), 10) + ")"
}

// ParseSourceType looks up the SourceType whose String() form equals name,
// for config/CLI layers that identify a producer by name rather than by
// its raw wire byte.
func ParseSourceType(name string) (SourceType, error) {
	for s, n := range sourceTypeNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("core: unknown source type %q", name)
}


package relayconfig

import (
	"testing"

	"protocol-v2/core"
	"protocol-v2/internal/testutil"
)

func TestLoadTopicFiltersResolvesSourcesAndTypes(t *testing.T) {
	sandbox, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox: %v", err)
	}
	defer sandbox.Cleanup()

	yaml := `
- topic: market_data_binance
  sources: [binance_collector]
  types: [Trade, Quote]
- topic: all_pools
`
	if err := sandbox.WriteFile("topics.yaml", []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	filters, err := LoadTopicFilters(sandbox.Path("topics.yaml"))
	if err != nil {
		t.Fatalf("LoadTopicFilters: %v", err)
	}
	if len(filters) != 2 {
		t.Fatalf("len(filters)=%d want 2", len(filters))
	}

	first := filters[0]
	if first.Topic != "market_data_binance" {
		t.Fatalf("first.Topic=%q", first.Topic)
	}
	if len(first.Sources) != 1 || first.Sources[0] != core.SourceBinanceCollector {
		t.Fatalf("first.Sources=%+v", first.Sources)
	}
	if len(first.Types) != 2 || first.Types[0] != core.TypeTrade || first.Types[1] != core.TypeQuote {
		t.Fatalf("first.Types=%+v", first.Types)
	}

	second := filters[1]
	if second.Topic != "all_pools" || second.Sources != nil || second.Types != nil {
		t.Fatalf("second=%+v want matches-anything filter", second)
	}
}

func TestLoadTopicFiltersRejectsUnknownSource(t *testing.T) {
	sandbox, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox: %v", err)
	}
	defer sandbox.Cleanup()

	yaml := `
- topic: bad
  sources: [not_a_real_source]
`
	if err := sandbox.WriteFile("topics.yaml", []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadTopicFilters(sandbox.Path("topics.yaml")); err == nil {
		t.Fatalf("expected error for unknown source name")
	}
}

func TestLoadTopicFiltersRejectsMissingFile(t *testing.T) {
	if _, err := LoadTopicFilters("/nonexistent/topics.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

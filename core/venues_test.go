package core

import "testing"

func TestParseSourceTypeRoundTripsEveryKnownName(t *testing.T) {
	for s, name := range sourceTypeNames {
		got, err := ParseSourceType(name)
		if err != nil {
			t.Fatalf("ParseSourceType(%q): %v", name, err)
		}
		if got != s {
			t.Fatalf("ParseSourceType(%q)=%v want %v", name, got, s)
		}
	}
}

func TestParseSourceTypeRejectsUnknownName(t *testing.T) {
	if _, err := ParseSourceType("not_a_real_source"); err == nil {
		t.Fatalf("expected error for unknown source name")
	}
}

func TestParseVenueIdRoundTripsEveryKnownName(t *testing.T) {
	for v, name := range venueNames {
		got, err := ParseVenueId(name)
		if err != nil {
			t.Fatalf("ParseVenueId(%q): %v", name, err)
		}
		if got != v {
			t.Fatalf("ParseVenueId(%q)=%v want %v", name, got, v)
		}
	}
}

func TestParseVenueIdRejectsUnknownName(t *testing.T) {
	if _, err := ParseVenueId("not_a_real_venue"); err == nil {
		t.Fatalf("expected error for unknown venue name")
	}
}

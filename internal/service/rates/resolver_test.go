package rates

import (
	"errors"
	"testing"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

var sampleTable = models.RateTable{
	{FatPercentage: 4.0, Rate: 40},
	{FatPercentage: 3.0, Rate: 30},
	{FatPercentage: 5.0, Rate: 52.5},
	{FatPercentage: 4.5, Rate: 45.75},
}

func TestResolveExactReturnsConfiguredRate(t *testing.T) {
	for _, entry := range sampleTable {
		rate, err := ResolveExact(entry.FatPercentage, sampleTable)
		if err != nil {
			t.Fatalf("fat %.1f: unexpected error %v", entry.FatPercentage, err)
		}
		if rate != entry.Rate {
			t.Fatalf("fat %.1f: expected %v, got %v", entry.FatPercentage, entry.Rate, rate)
		}
	}
}

func TestResolveExactNeverInterpolates(t *testing.T) {
	for _, fat := range []float64{2.9, 3.5, 4.2, 5.1, 0} {
		_, err := ResolveExact(fat, sampleTable)
		if !errors.Is(err, ErrRateNotFound) {
			t.Fatalf("fat %v: expected ErrRateNotFound, got %v", fat, err)
		}
	}

	_, err := ResolveExact(3.7, sampleTable)
	want := "Fat rate not available for 3.7%. Please configure this exact fat rate first."
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}

	var notFound *RateNotFoundError
	if !errors.As(err, &notFound) || notFound.FatPercentage != 3.7 {
		t.Fatalf("expected RateNotFoundError for 3.7, got %#v", err)
	}
}

func TestResolveInterpolated(t *testing.T) {
	cases := []struct {
		name string
		fat  float64
		want float64
	}{
		{"exact", 4.5, 45.75},
		{"below min clamps", 1.0, 30},
		{"at min", 3.0, 30},
		{"above max clamps", 9.0, 52.5},
		{"midpoint rounds", 3.5, 35},
		{"rounds half up", 3.25, 33},
		{"between decimals", 4.75, 49},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveInterpolated(tc.fat, sampleTable); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	if got := ResolveInterpolated(4.0, nil); got != 0 {
		t.Fatalf("empty table should resolve to 0, got %v", got)
	}
}

func TestResolveInterpolatedIsMonotonic(t *testing.T) {
	table := models.RateTable{
		{FatPercentage: 6.0, Rate: 60},
		{FatPercentage: 3.0, Rate: 28},
		{FatPercentage: 4.2, Rate: 41},
		{FatPercentage: 5.0, Rate: 41},
	}
	previous := ResolveInterpolated(0, table)
	for fat := 0.0; fat <= 8.0; fat += 0.05 {
		got := ResolveInterpolated(fat, table)
		if got < previous {
			t.Fatalf("rate decreased at fat %.2f: %v < %v", fat, got, previous)
		}
		previous = got
	}
}

func TestDetectManualEdit(t *testing.T) {
	if DetectManualEdit(ComputeAmount(10.5, 45), 10.5, 45) {
		t.Fatalf("auto amount flagged as manual")
	}

	roundTripped, err := ParseAmount(FormatAmount(ComputeAmount(10.5, 45)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if FormatAmount(ComputeAmount(10.5, 45)) != "472.50" {
		t.Fatalf("unexpected formatted amount %s", FormatAmount(ComputeAmount(10.5, 45)))
	}
	if DetectManualEdit(roundTripped, 10.5, 45) {
		t.Fatalf("round-tripped auto amount flagged as manual")
	}

	odd, _ := ParseAmount(FormatAmount(ComputeAmount(3.33, 41.7)))
	if DetectManualEdit(odd, 3.33, 41.7) {
		t.Fatalf("rounded display amount flagged as manual")
	}

	base := ComputeAmount(12, 38.5)
	if !DetectManualEdit(base+0.02, 12, 38.5) {
		t.Fatalf("expected +0.02 to be manual")
	}
	if DetectManualEdit(base+0.005, 12, 38.5) {
		t.Fatalf("expected +0.005 to stay auto")
	}
}

func TestPreviewCollection(t *testing.T) {
	p := PreviewCollection(10, 4.5, sampleTable)
	if !p.Available || p.Rate != 45.75 || p.Amount != 457.5 {
		t.Fatalf("unexpected preview %+v", p)
	}

	missing := PreviewCollection(10, 4.4, sampleTable)
	if missing.Available || missing.Rate != 0 || missing.Amount != 0 || missing.Message == "" {
		t.Fatalf("unexpected preview for missing rate %+v", missing)
	}
	if missing.Estimate != 45 {
		t.Fatalf("expected interpolated estimate 45, got %v", missing.Estimate)
	}
}

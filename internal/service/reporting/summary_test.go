package reporting

import (
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

func sampleRange(t *testing.T) DateRange {
	t.Helper()
	r, err := ResolveRange(PresetCustom, time.Now(), "2024-06-10", "2024-06-12")
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func sampleCollections() []models.CollectionEntry {
	return []models.CollectionEntry{
		{UserID: "f1", UserName: "Asha", Date: "2024-06-10", Liters: 10, FatPercentage: 3.5, Rate: 45, Amount: 450},
		{UserID: "f1", UserName: "Asha", Date: "2024-06-11", Liters: 12, FatPercentage: 4.5, Rate: 50, Amount: 600},
		{UserID: "f2", UserName: "Bala", Date: "2024-06-11", Liters: 5, FatPercentage: 4.0, Rate: 48, Amount: 250, IsManuallyEdited: true},
		// previous period
		{UserID: "f1", Date: "2024-06-08", Liters: 20, FatPercentage: 4.0, Rate: 48, Amount: 1000},
		// outside both periods
		{UserID: "f2", Date: "2024-05-01", Liters: 99, FatPercentage: 4.0, Rate: 48, Amount: 4752},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(SummaryInput{
		Range:       sampleRange(t),
		Collections: sampleCollections(),
		Farmers:     []models.Farmer{{ID: "f1", Name: "Asha Devi"}},
		Advances:    []models.AdvanceEntry{{UserID: "f1", Amount: 300}, {UserID: "f1", Amount: -100}},
	})

	m := s.Metrics
	if m.TotalCollections != 3 || m.TotalLiters != 27 || m.TotalAmount != 1300 {
		t.Fatalf("unexpected totals %+v", m)
	}
	if m.AverageFat != 4 || m.ManualCollections != 1 || m.AutoCollections != 2 || m.AverageAmount != 433.33 {
		t.Fatalf("unexpected averages %+v", m)
	}
	if s.Growth.Amount != 30 || s.Growth.Liters != 35 || s.Growth.Collections != 200 {
		t.Fatalf("unexpected growth %+v", s.Growth)
	}

	if len(s.Farmers) != 2 || s.Farmers[0].UserID != "f1" {
		t.Fatalf("farmers should be sorted by amount: %+v", s.Farmers)
	}
	asha := s.Farmers[0]
	if asha.Name != "Asha Devi" || asha.TotalAmount != 1050 || asha.FatDeviation != 0.5 || asha.NetAdvances != 200 || asha.Payable != 850 {
		t.Fatalf("unexpected farmer stats %+v", asha)
	}
	if bala := s.Farmers[1]; bala.Name != "Bala" || bala.ManualEdits != 1 || bala.FatDeviation != 0 {
		t.Fatalf("roster miss should fall back to the entry name: %+v", bala)
	}

	if len(s.Daily) != 2 || s.Daily[0].Date != "2024-06-11" || s.Daily[0].Collections != 2 {
		t.Fatalf("unexpected daily %+v", s.Daily)
	}
	if len(s.Monthly) != 1 || s.Monthly[0].Month != "2024-06" || s.Monthly[0].AverageFat != 4 {
		t.Fatalf("unexpected monthly %+v", s.Monthly)
	}
}

func TestFarmerStatement(t *testing.T) {
	stats := FarmerStatement(models.Farmer{ID: "f1", Name: "Asha"}, sampleCollections(),
		[]models.AdvanceEntry{{UserID: "f1", Amount: 500}, {UserID: "f2", Amount: 50}}, sampleRange(t))
	if stats.Collections != 2 || stats.TotalAmount != 1050 || stats.NetAdvances != 500 || stats.Payable != 550 {
		t.Fatalf("unexpected statement %+v", stats)
	}

	text := RenderStatement(stats, sampleRange(t))
	if !strings.Contains(text, "payable 550.00") || !strings.Contains(text, "Asha") {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestRenderSummary(t *testing.T) {
	empty := RenderSummary(models.ReportSummary{StartDate: "2024-06-10", EndDate: "2024-06-12"})
	if empty != "Milk summary (2024-06-10 to 2024-06-12): no collections recorded." {
		t.Fatalf("unexpected %q", empty)
	}

	s := Summarize(SummaryInput{Range: sampleRange(t), Collections: sampleCollections()})
	text := RenderSummary(s)
	for _, want := range []string{"Collections: 3", "Amount: 1300.00", "amount +30.0%", "1. Asha"} {
		if !strings.Contains(text, want) {
			t.Fatalf("%q missing from %q", want, text)
		}
	}
}

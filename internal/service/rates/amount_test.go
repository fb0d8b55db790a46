package rates

import (
	"testing"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

func TestAmountEditorAutoRecomputes(t *testing.T) {
	e := NewAmountEditor(models.RateTable{{FatPercentage: 4.0, Rate: 40}, {FatPercentage: 4.5, Rate: 45}})

	e.SetLiters("10.5")
	if e.Amount() != "" {
		t.Fatalf("amount should stay empty until fat is set, got %q", e.Amount())
	}
	e.SetFatPercentage("4.5")
	if e.Amount() != "472.50" {
		t.Fatalf("expected 472.50, got %q", e.Amount())
	}
	e.SetFatPercentage("4")
	if e.Amount() != "420.00" {
		t.Fatalf("expected 420.00, got %q", e.Amount())
	}
	e.SetFatPercentage("4.2")
	if e.Amount() != "0.00" {
		t.Fatalf("missing rate should compute 0.00, got %q", e.Amount())
	}
}

func TestAmountEditorManualFreezesUntilAuto(t *testing.T) {
	e := NewAmountEditor(models.RateTable{{FatPercentage: 4.5, Rate: 45}})
	e.SetLiters("10")
	e.SetFatPercentage("4.5")

	e.EditAmount("500")
	if e.Mode() != ModeManual {
		t.Fatalf("typing an amount must switch to manual")
	}
	e.SetLiters("20")
	if e.Amount() != "500" {
		t.Fatalf("manual amount must not change, got %q", e.Amount())
	}

	e.SwitchToAuto()
	if e.Mode() != ModeAuto || e.Amount() != "900.00" {
		t.Fatalf("switching to auto must recompute, got %s %q", e.Mode(), e.Amount())
	}

	e.Toggle()
	if e.Mode() != ModeManual || e.Amount() != "900.00" {
		t.Fatalf("toggle to manual must freeze current value, got %s %q", e.Mode(), e.Amount())
	}
	e.Toggle()
	if e.Mode() != ModeAuto {
		t.Fatalf("toggle must return to auto")
	}
}

func TestAmountEditorLoadAndReset(t *testing.T) {
	e := NewAmountEditor(models.RateTable{{FatPercentage: 4.5, Rate: 45}})
	e.Load(models.CollectionEntry{Liters: 10, FatPercentage: 4.5, Rate: 45, Amount: 480, IsManuallyEdited: true})
	if e.Mode() != ModeManual || e.Amount() != "480" {
		t.Fatalf("manual entry should load frozen, got %s %q", e.Mode(), e.Amount())
	}
	e.Reset()
	if e.Mode() != ModeAuto || e.Amount() != "" {
		t.Fatalf("reset should clear state")
	}
}

func TestRoundMoney(t *testing.T) {
	if got := RoundMoney(10.005); got != 10.01 {
		t.Fatalf("expected 10.01, got %v", got)
	}
	if _, err := ParseAmount("abc"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]AmountMode{"": ModeAuto, "auto": ModeAuto, " Manual ": ModeManual} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("fixed"); err == nil {
		t.Fatalf("expected unknown mode to error")
	}
}

func TestPreviewDraft(t *testing.T) {
	table := models.RateTable{{FatPercentage: 4.0, Rate: 40}, {FatPercentage: 5.0, Rate: 50}}

	auto := PreviewDraft(Draft{Liters: 10.5, FatPercentage: 4.0, Amount: "999"}, table)
	if auto.Mode != ModeAuto || auto.Amount != 420 || auto.ManuallyEdited || !auto.Available {
		t.Fatalf("unexpected auto preview %+v", auto)
	}

	manual := PreviewDraft(Draft{Liters: 10, FatPercentage: 4.0, Mode: ModeManual, Amount: "425.50"}, table)
	if manual.Mode != ModeManual || manual.Amount != 425.5 || !manual.ManuallyEdited {
		t.Fatalf("unexpected manual preview %+v", manual)
	}

	retyped := PreviewDraft(Draft{Liters: 10, FatPercentage: 4.0, Mode: ModeManual, Amount: "400.00"}, table)
	if retyped.ManuallyEdited {
		t.Fatalf("retyping the computed amount is not a manual edit: %+v", retyped)
	}

	blank := PreviewDraft(Draft{Liters: 10, FatPercentage: 4.0, Mode: ModeManual}, table)
	if blank.Amount != 0 || blank.Message == "" {
		t.Fatalf("blank manual amount should be reported: %+v", blank)
	}

	between := PreviewDraft(Draft{Liters: 10, FatPercentage: 4.5}, table)
	if between.Available || between.Amount != 0 || between.Estimate != 45 || between.Message == "" {
		t.Fatalf("unexpected preview between rows %+v", between)
	}
}

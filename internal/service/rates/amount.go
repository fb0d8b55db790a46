package rates

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

// FormatAmount renders an amount with two decimals, as the form fields do.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// ParseAmount reads an amount typed into a form field.
func ParseAmount(value string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, err)
	}
	f, _ := d.Float64()
	return f, nil
}

// RoundMoney rounds an amount to two decimals for display totals.
func RoundMoney(amount float64) float64 {
	f, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return f
}

// AmountMode tells whether the entry form computes the amount itself.
type AmountMode string

const (
	ModeAuto   AmountMode = "auto"
	ModeManual AmountMode = "manual"
)

// ParseMode reads a mode sent by the form. An empty value means ModeAuto.
func ParseMode(value string) (AmountMode, error) {
	switch AmountMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeManual:
		return ModeManual, nil
	}
	return "", fmt.Errorf("unknown amount mode %q", value)
}

// AmountEditor holds the amount field state of a collection entry form.
//
// In ModeAuto the amount follows liters and fat percentage. Typing an amount
// switches to ModeManual, which freezes the value until the operator types
// again or switches back to ModeAuto, which recomputes at once.
type AmountEditor struct {
	table  models.RateTable
	mode   AmountMode
	liters string
	fat    string
	amount string
}

// NewAmountEditor starts an editor in ModeAuto.
func NewAmountEditor(table models.RateTable) *AmountEditor {
	return &AmountEditor{table: table, mode: ModeAuto}
}

// Mode returns the current mode.
func (e *AmountEditor) Mode() AmountMode { return e.mode }

// Amount returns the amount field text.
func (e *AmountEditor) Amount() string { return e.amount }

// SetTable swaps the rate table, e.g. after a refresh.
func (e *AmountEditor) SetTable(table models.RateTable) {
	e.table = table
	e.recompute()
}

// SetLiters updates the liters field.
func (e *AmountEditor) SetLiters(value string) {
	e.liters = value
	e.recompute()
}

// SetFatPercentage updates the fat percentage field.
func (e *AmountEditor) SetFatPercentage(value string) {
	e.fat = value
	e.recompute()
}

// EditAmount records a value typed by the operator and enters ModeManual.
func (e *AmountEditor) EditAmount(value string) {
	e.amount = value
	e.mode = ModeManual
}

// SwitchToAuto leaves ModeManual and recomputes immediately.
func (e *AmountEditor) SwitchToAuto() {
	e.mode = ModeAuto
	e.recompute()
}

// SwitchToManual freezes the current amount.
func (e *AmountEditor) SwitchToManual() {
	e.mode = ModeManual
}

// Toggle flips between the two modes.
func (e *AmountEditor) Toggle() {
	if e.mode == ModeManual {
		e.SwitchToAuto()
		return
	}
	e.SwitchToManual()
}

// Load seeds the editor from an existing entry; manual entries open in
// ModeManual with their stored amount.
func (e *AmountEditor) Load(entry models.CollectionEntry) {
	e.liters = decimal.NewFromFloat(entry.Liters).String()
	e.fat = decimal.NewFromFloat(entry.FatPercentage).String()
	e.amount = decimal.NewFromFloat(entry.Amount).String()
	e.mode = ModeAuto
	if entry.IsManuallyEdited {
		e.mode = ModeManual
	}
}

// Reset clears all fields and returns to ModeAuto.
func (e *AmountEditor) Reset() {
	e.liters, e.fat, e.amount = "", "", ""
	e.mode = ModeAuto
}

func (e *AmountEditor) recompute() {
	if e.mode != ModeAuto || e.liters == "" || e.fat == "" {
		return
	}
	liters, err := ParseAmount(e.liters)
	if err != nil {
		return
	}
	fat, err := ParseAmount(e.fat)
	if err != nil {
		return
	}
	rate, err := ResolveExact(fat, e.table)
	if err != nil {
		rate = 0
	}
	e.amount = FormatAmount(ComputeAmount(liters, rate))
}

// Draft is the entry form as typed so far. Amount is only read in ModeManual.
type Draft struct {
	Liters        float64
	FatPercentage float64
	Mode          AmountMode
	Amount        string
}

// PreviewDraft replays d through an AmountEditor. In ModeManual the typed
// amount is kept and flagged when it deviates from liters*rate.
func PreviewDraft(d Draft, table models.RateTable) Preview {
	p := PreviewCollection(d.Liters, d.FatPercentage, table)

	editor := NewAmountEditor(table)
	editor.SetLiters(FormatFat(d.Liters))
	editor.SetFatPercentage(FormatFat(d.FatPercentage))
	if d.Mode == ModeManual {
		editor.EditAmount(d.Amount)
	}
	p.Mode = editor.Mode()

	amount, err := ParseAmount(editor.Amount())
	if err != nil {
		p.Amount = 0
		if p.Message == "" {
			p.Message = "Please enter a valid amount"
		}
		return p
	}
	p.Amount = amount
	if p.Mode == ModeManual && p.Available {
		p.ManuallyEdited = DetectManualEdit(amount, d.Liters, p.Rate)
	}
	return p
}

package models

import "time"

// AdvanceEntry is a signed cash transaction against a farmer. Positive amounts
// are advances given, negative amounts are repayments received.
type AdvanceEntry struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName,omitempty"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
}

// IsRepayment reports whether the entry records money received from the farmer.
func (a AdvanceEntry) IsRepayment() bool {
	return a.Amount < 0
}

// Kind labels the entry for listings.
func (a AdvanceEntry) Kind() string {
	if a.IsRepayment() {
		return "Repayment"
	}
	return "Advance"
}

// AdvanceInput is the advance form payload.
type AdvanceInput struct {
	UserID      string     `json:"userId"`
	Amount      float64    `json:"amount"`
	Date        *time.Time `json:"date,omitempty"`
	Description string     `json:"description"`
}

package models

import "time"

// Farmer is a milk supplier registered with the cooperative.
type Farmer struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	PhoneNumber        string     `json:"phoneNumber"`
	Address            string     `json:"address"`
	CreatedAt          time.Time  `json:"createdAt,omitempty"`
	IsActive           *bool      `json:"isActive,omitempty"`
	DeactivatedAt      *time.Time `json:"deactivatedAt,omitempty"`
	DeactivationReason string     `json:"deactivationReason,omitempty"`
}

// Active reports whether collections and advances may be recorded for the
// farmer. A missing flag counts as active.
func (f Farmer) Active() bool {
	return f.IsActive == nil || *f.IsActive
}

// FarmerInput is the writable subset of a farmer.
type FarmerInput struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
}

// ActivationStatus mirrors the backend activation-status payload.
type ActivationStatus struct {
	IsActive           bool       `json:"isActive"`
	DeactivatedAt      *time.Time `json:"deactivatedAt,omitempty"`
	DeactivationReason string     `json:"deactivationReason,omitempty"`
}

package models

import "time"

// Status is the redemption state of a credential. There is no transition
// out of Redeemed.
type Status string

const (
	StatusNotRedeemed Status = "NOT_REDEEMED"
	StatusRedeemed    Status = "REDEEMED"
)

// RedemptionRecord tracks admission progress for one credential.
//
// Invariants: 0 <= ScanCount <= Capacity at all times; ScanCount never
// decreases; Status is Redeemed exactly when ScanCount >= Capacity.
type RedemptionRecord struct {
	CredentialCode string    `json:"credential_code"`
	Capacity       int       `json:"capacity"`
	ScanCount      int       `json:"scan_count"`
	Status         Status    `json:"status"`
	LastScannedBy  string    `json:"last_scanned_by,omitempty"`
	LastScannedAt  time.Time `json:"last_scanned_at,omitzero"`
}

// Remaining returns how many admissions are left on the credential.
func (r RedemptionRecord) Remaining() int {
	if r.ScanCount >= r.Capacity {
		return 0
	}
	return r.Capacity - r.ScanCount
}

// InvariantsHold reports whether the record satisfies its invariants.
// Checked after every mutation; a violation is a bug, not a business error.
func (r RedemptionRecord) InvariantsHold() bool {
	if r.ScanCount < 0 || r.ScanCount > r.Capacity {
		return false
	}
	redeemed := r.ScanCount >= r.Capacity
	return redeemed == (r.Status == StatusRedeemed)
}

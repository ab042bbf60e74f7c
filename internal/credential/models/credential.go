package models

import "time"

// Credential is a guest's admission identity: a globally unique scannable
// code plus the number of physical admissions it authorizes.
//
// Capacity is fixed at issuance from the guest's tier and never changes;
// retiring a credential means issuing a replacement, not mutating this one.
type Credential struct {
	Code     string    `json:"code"`
	OwnerRef string    `json:"owner_ref"`
	Capacity int       `json:"capacity"`
	IssuedAt time.Time `json:"issued_at"`
}

// Package store persists redemption records. All implementations provide
// the same atomic Redeem primitive so the over-admission check and the
// increment can never be separated by a concurrent scan.
package store

import (
	"context"
	"time"

	"guestpass/internal/admission/models"
)

// Store persists redemption progress keyed by credential code.
type Store interface {
	// Redeem initializes the record if absent, then increments the scan
	// count if it is still below capacity — as one atomic step, serialized
	// per credential code. It returns the post-operation record and whether
	// the increment was applied. applied == false means capacity was
	// already exhausted and the record was not mutated.
	Redeem(ctx context.Context, code string, capacity int, scannedBy string, at time.Time) (record *models.RedemptionRecord, applied bool, err error)

	// Get returns the record, or nil when the code has never been scanned.
	Get(ctx context.Context, code string) (*models.RedemptionRecord, error)
}

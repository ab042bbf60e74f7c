// Package rendered persists RenderedCard rows, the ledger of produced
// artifacts per credential.
package rendered

import (
	"context"

	"guestpass/internal/card/models"
)

// Store records every rendered artifact. Rows are append-only from the
// compositor's side; only the lifecycle manager removes them.
type Store interface {
	// Add records a newly rendered artifact.
	Add(ctx context.Context, card models.RenderedCard) error

	// ListByCredential returns all artifacts rendered for a code, oldest
	// first.
	ListByCredential(ctx context.Context, code string) ([]models.RenderedCard, error)

	// Remove deletes the row for an artifact path.
	Remove(ctx context.Context, artifactPath string) error
}

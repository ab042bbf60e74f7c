// Package store provides credential persistence. Stores are pure I/O;
// code generation and capacity rules live in the service.
package store

import (
	"context"
	"errors"

	"guestpass/internal/credential/models"
)

// ErrCodeTaken is returned by Save when the code is already issued. The
// service treats it as a collision signal and regenerates.
var ErrCodeTaken = errors.New("credential code already issued")

// Store persists credentials keyed by their unique code.
type Store interface {
	// Save inserts a new credential. Returns ErrCodeTaken if the code exists.
	Save(ctx context.Context, cred models.Credential) error

	// FindByCode returns the credential, or nil when unknown.
	FindByCode(ctx context.Context, code string) (*models.Credential, error)

	// ListByOwner returns all credentials issued to an owner.
	ListByOwner(ctx context.Context, ownerRef string) ([]*models.Credential, error)

	// Delete removes a credential. Only owner deletion reaches this.
	Delete(ctx context.Context, code string) error
}

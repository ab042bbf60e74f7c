// Package template persists card templates keyed by event reference.
package template

import (
	"context"

	"guestpass/internal/card/models"
)

// Store persists one template per event. Template CRUD and upload validation
// live in the surrounding management system; this layer is read-mostly.
type Store interface {
	// Save inserts or replaces the event's template.
	Save(ctx context.Context, tmpl models.Template) error

	// Get returns the event's template, or nil when none is registered.
	Get(ctx context.Context, eventRef string) (*models.Template, error)
}

// Package audit captures structured events for admission-relevant actions.
// Events are append-only; sinks fan out to storage or a broker.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Action identifies what happened.
type Action string

const (
	ActionCredentialIssued Action = "credential_issued"
	ActionCardRendered     Action = "card_rendered"
	ActionAdmissionGranted Action = "admission_granted"
	ActionAdmissionDenied  Action = "admission_denied"
	ActionCardsPurged      Action = "cards_purged"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp      time.Time `json:"timestamp"`
	Action         Action    `json:"action"`
	CredentialCode string    `json:"credential_code,omitempty"`
	OwnerRef       string    `json:"owner_ref,omitempty"`
	// Actor is who triggered the action (a scanner identity at the gate,
	// or the calling subsystem for issuance and cleanup).
	Actor     string `json:"actor,omitempty"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Store is an append-only event sink with lookup by credential code.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCredential(ctx context.Context, code string) ([]Event, error)
}

// Publisher is the port services emit through.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// StorePublisher writes events synchronously to a store. Tests and
// single-process deployments use this directly; production fronts it with
// the channel worker.
type StorePublisher struct {
	store Store
}

func NewStorePublisher(store Store) *StorePublisher {
	return &StorePublisher{store: store}
}

func (p *StorePublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.store.Append(ctx, event)
}

// Log emits an audit event and mirrors it to the logger. Audit failures are
// logged, never propagated: a broken audit sink must not fail admissions.
func Log(ctx context.Context, logger *slog.Logger, pub Publisher, event Event) {
	if logger != nil {
		logger.InfoContext(ctx, "audit",
			"action", event.Action,
			"credential_code", event.CredentialCode,
			"owner_ref", event.OwnerRef,
			"actor", event.Actor,
			"detail", event.Detail,
			"request_id", event.RequestID,
		)
	}
	if pub == nil {
		return
	}
	if err := pub.Emit(ctx, event); err != nil && logger != nil {
		logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

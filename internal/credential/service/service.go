// Package service implements admission credential issuance.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"guestpass/internal/audit"
	"guestpass/internal/credential/metrics"
	"guestpass/internal/credential/models"
	"guestpass/internal/credential/store"
	"guestpass/internal/platform/config"
	dErrors "guestpass/pkg/domain-errors"
	"guestpass/pkg/requestcontext"
)

// Store is the persistence port. Uniqueness is enforced by the store's Save
// (unique key), so generate-then-save is collision-safe without a separate
// existence check.
type Store = store.Store

// Service issues credentials. Code generation is capped per width: after
// RetriesPerWidth collisions the random suffix widens by one digit, up to
// MaxDigits. This keeps issuance bounded even as the corpus approaches
// keyspace saturation, instead of looping forever on a fixed width.
type Service struct {
	store      Store
	cfg        config.IssuerConfig
	logger     *slog.Logger
	publisher  audit.Publisher
	metrics    *metrics.Metrics
	randDigits func(width int) (string, error)
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRandomDigits overrides the random source. Tests use it to force
// collisions deterministically.
func WithRandomDigits(fn func(width int) (string, error)) Option {
	return func(s *Service) { s.randDigits = fn }
}

func New(st Store, cfg config.IssuerConfig, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if cfg.Digits < 1 || cfg.MaxDigits < cfg.Digits || cfg.RetriesPerWidth < 1 {
		return nil, fmt.Errorf("invalid issuer config: digits=%d max=%d retries=%d",
			cfg.Digits, cfg.MaxDigits, cfg.RetriesPerWidth)
	}

	svc := &Service{
		store:      st,
		cfg:        cfg,
		randDigits: cryptoDigits,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Issue creates and persists a credential for ownerRef authorizing capacity
// admissions. The code is prefix + zero-padded random digits, unique across
// all credentials ever issued.
func (s *Service) Issue(ctx context.Context, ownerRef string, capacity int) (*models.Credential, error) {
	if ownerRef == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "owner_ref is required")
	}
	if capacity < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "capacity must be at least 1")
	}

	for width := s.cfg.Digits; width <= s.cfg.MaxDigits; width++ {
		for attempt := 0; attempt < s.cfg.RetriesPerWidth; attempt++ {
			if err := ctx.Err(); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "issuance cancelled")
			}

			digits, err := s.randDigits(width)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "random source failed")
			}

			cred := models.Credential{
				Code:     s.cfg.Prefix + digits,
				OwnerRef: ownerRef,
				Capacity: capacity,
				IssuedAt: requestcontext.Now(ctx),
			}

			err = s.store.Save(ctx, cred)
			if err == nil {
				s.metrics.IncIssued()
				audit.Log(ctx, s.logger, s.publisher, audit.Event{
					Action:         audit.ActionCredentialIssued,
					CredentialCode: cred.Code,
					OwnerRef:       ownerRef,
					RequestID:      requestcontext.RequestID(ctx),
				})
				return &cred, nil
			}
			if errors.Is(err, store.ErrCodeTaken) {
				s.metrics.IncCollision()
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist credential")
		}

		s.metrics.IncWidening()
		if s.logger != nil {
			s.logger.WarnContext(ctx, "code keyspace widened",
				"from_digits", width,
				"retries", s.cfg.RetriesPerWidth,
			)
		}
	}

	return nil, dErrors.New(dErrors.CodeInternal, "admission code keyspace exhausted")
}

// Get returns the credential for code.
func (s *Service) Get(ctx context.Context, code string) (*models.Credential, error) {
	if code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "code is required")
	}
	cred, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}
	if cred == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
	}
	return cred, nil
}

// ListByOwner returns every credential issued to an owner.
func (s *Service) ListByOwner(ctx context.Context, ownerRef string) ([]*models.Credential, error) {
	if ownerRef == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "owner_ref is required")
	}
	creds, err := s.store.ListByOwner(ctx, ownerRef)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	return creds, nil
}

// cryptoDigits returns width zero-padded decimal digits from crypto/rand.
func cryptoDigits(width int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(width)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", width, n), nil
}

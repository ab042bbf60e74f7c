package artifact

import (
	"context"
	"fmt"
	"log/slog"

	"guestpass/internal/audit"
	cardmodels "guestpass/internal/card/models"
	credentialmodels "guestpass/internal/credential/models"
	dErrors "guestpass/pkg/domain-errors"
	pstrings "guestpass/pkg/platform/strings"
)

// CredentialSource lists the credentials whose artifacts a purge covers.
type CredentialSource interface {
	ListByOwner(ctx context.Context, ownerRef string) ([]*credentialmodels.Credential, error)
}

// RenderedLedger is the rendered-card bookkeeping the lifecycle manager
// reads and clears.
type RenderedLedger interface {
	ListByCredential(ctx context.Context, code string) ([]cardmodels.RenderedCard, error)
	Remove(ctx context.Context, artifactPath string) error
}

// PointerClearer is the collaborator holding each owner's current-card
// pointer. Purge clears it so a deleted artifact is never referenced again.
type PointerClearer interface {
	ClearCurrentCard(ctx context.Context, ownerRef string) error
}

// CleanupReport summarizes one purge pass. Errors counts artifacts whose
// file could not be deleted, including files already gone from disk.
type CleanupReport struct {
	OwnerRef string `json:"owner_ref"`
	Examined int    `json:"examined"`
	Deleted  int    `json:"deleted"`
	Errors   int    `json:"errors"`
}

// Stats describes the artifacts currently recorded for an owner.
type Stats struct {
	OwnerRef   string `json:"owner_ref"`
	Artifacts  int    `json:"artifacts"`
	TotalBytes int64  `json:"total_bytes"`
}

// Service purges rendered card files once an event is over. Credentials
// and redemption records are untouched; only artifacts and their ledger
// rows are removed.
type Service struct {
	credentials CredentialSource
	rendered    RenderedLedger
	files       *FileStore
	pointers    PointerClearer
	logger      *slog.Logger
	auditPub    audit.Publisher
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.auditPub = p }
}

// WithPointerClearer installs the collaborator owning current-card
// pointers. Without it, purge only removes files and ledger rows.
func WithPointerClearer(p PointerClearer) Option {
	return func(s *Service) { s.pointers = p }
}

func NewService(credentials CredentialSource, rendered RenderedLedger, files *FileStore, opts ...Option) (*Service, error) {
	if credentials == nil {
		return nil, fmt.Errorf("credential source is required")
	}
	if rendered == nil {
		return nil, fmt.Errorf("rendered ledger is required")
	}
	if files == nil {
		return nil, fmt.Errorf("file store is required")
	}
	s := &Service{
		credentials: credentials,
		rendered:    rendered,
		files:       files,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// PurgeForOwner deletes every rendered artifact for the owner's
// credentials. Deletion is best effort: a failed file removal is counted
// and logged, and the ledger row is cleared regardless so a stale path is
// never served again.
func (s *Service) PurgeForOwner(ctx context.Context, ownerRef string) (*CleanupReport, error) {
	if ownerRef == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "owner reference is required")
	}

	creds, err := s.credentials.ListByOwner(ctx, ownerRef)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list owner credentials")
	}

	report := &CleanupReport{OwnerRef: ownerRef}
	for _, cred := range creds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cards, err := s.rendered.ListByCredential(ctx, cred.Code)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list rendered cards")
		}
		for _, c := range cards {
			report.Examined++
			if err := s.files.Delete(c.ArtifactPath); err != nil {
				// A missing file counts too: the ledger said it existed.
				report.Errors++
				s.logger.WarnContext(ctx, "artifact delete failed",
					"path", c.ArtifactPath,
					"code", cred.Code,
					"error", err,
				)
			} else {
				report.Deleted++
			}
			if err := s.rendered.Remove(ctx, c.ArtifactPath); err != nil {
				report.Errors++
				s.logger.WarnContext(ctx, "ledger row removal failed",
					"path", c.ArtifactPath,
					"error", err,
				)
			}
		}
	}

	// The pointer is cleared even when file deletions failed: a purged
	// owner must never keep serving a stale card path.
	if s.pointers != nil {
		if err := s.pointers.ClearCurrentCard(ctx, ownerRef); err != nil {
			report.Errors++
			s.logger.WarnContext(ctx, "card pointer clear failed",
				"owner_ref", ownerRef,
				"error", err,
			)
		}
	}

	audit.Log(ctx, s.logger, s.auditPub, audit.Event{
		Action:   audit.ActionCardsPurged,
		OwnerRef: ownerRef,
		Detail:   fmt.Sprintf("examined=%d deleted=%d errors=%d", report.Examined, report.Deleted, report.Errors),
	})
	s.logger.InfoContext(ctx, "artifact purge complete",
		"owner_ref", ownerRef,
		"examined", report.Examined,
		"deleted", report.Deleted,
		"errors", report.Errors,
	)
	return report, nil
}

// PurgeForOwners runs a purge per owner, continuing past per-owner
// failures and reporting each outcome. Duplicate owner refs are purged
// once.
func (s *Service) PurgeForOwners(ctx context.Context, ownerRefs []string) ([]CleanupReport, error) {
	ownerRefs = pstrings.DedupeAndTrim(ownerRefs)
	if len(ownerRefs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one owner reference is required")
	}

	reports := make([]CleanupReport, 0, len(ownerRefs))
	for _, ref := range ownerRefs {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := s.PurgeForOwner(ctx, ref)
		if err != nil {
			s.logger.ErrorContext(ctx, "owner purge failed", "owner_ref", ref, "error", err)
			reports = append(reports, CleanupReport{OwnerRef: ref, Errors: 1})
			continue
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// StatsForOwner reports how many artifacts an owner has on disk and their
// combined size. Ledger rows whose files are missing count as artifacts
// with zero bytes.
func (s *Service) StatsForOwner(ctx context.Context, ownerRef string) (*Stats, error) {
	if ownerRef == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "owner reference is required")
	}

	creds, err := s.credentials.ListByOwner(ctx, ownerRef)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list owner credentials")
	}

	stats := &Stats{OwnerRef: ownerRef}
	for _, cred := range creds {
		cards, err := s.rendered.ListByCredential(ctx, cred.Code)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list rendered cards")
		}
		for _, c := range cards {
			stats.Artifacts++
			size, err := s.files.Size(c.ArtifactPath)
			if err != nil {
				continue
			}
			stats.TotalBytes += size
		}
	}
	return stats, nil
}

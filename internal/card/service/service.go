// Package service orchestrates card rendering: template lookup, compositing,
// artifact publication and bookkeeping.
package service

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/disintegration/imaging"

	"guestpass/internal/artifact"
	"guestpass/internal/audit"
	"guestpass/internal/card"
	"guestpass/internal/card/compositor"
	"guestpass/internal/card/metrics"
	"guestpass/internal/card/models"
	"guestpass/internal/card/store/rendered"
	"guestpass/internal/card/store/template"
	credmodels "guestpass/internal/credential/models"
	"guestpass/internal/platform/config"
	dErrors "guestpass/pkg/domain-errors"
	"guestpass/pkg/requestcontext"
)

// CredentialSource is the slice of the credential store this service needs.
type CredentialSource interface {
	FindByCode(ctx context.Context, code string) (*credmodels.Credential, error)
}

// Service renders personalized cards and records the produced artifacts.
type Service struct {
	credentials CredentialSource
	templates   template.Store
	renders     rendered.Store
	files       *artifact.FileStore
	compositor  *compositor.Compositor
	cfg         config.CardConfig

	logger    *slog.Logger
	publisher audit.Publisher
	metrics   *metrics.Metrics
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

func New(credentials CredentialSource, templates template.Store, renders rendered.Store, files *artifact.FileStore, comp *compositor.Compositor, cfg config.CardConfig, opts ...Option) (*Service, error) {
	switch {
	case credentials == nil:
		return nil, fmt.Errorf("credential source is required")
	case templates == nil:
		return nil, fmt.Errorf("template store is required")
	case renders == nil:
		return nil, fmt.Errorf("rendered card store is required")
	case files == nil:
		return nil, fmt.Errorf("artifact file store is required")
	case comp == nil:
		return nil, fmt.Errorf("compositor is required")
	}

	svc := &Service{
		credentials: credentials,
		templates:   templates,
		renders:     renders,
		files:       files,
		compositor:  comp,
		cfg:         cfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Render produces a new card artifact for the credential using the event's
// template. Prior artifacts stay untouched; each render publishes to a fresh
// timestamped path, which makes duplicate or concurrent render requests safe.
func (s *Service) Render(ctx context.Context, credentialCode, eventRef string, subject models.Subject) (*models.RenderedCard, error) {
	start := time.Now()

	cred, err := s.credentials.FindByCode(ctx, credentialCode)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}
	if cred == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
	}

	tmpl, err := s.templates.Get(ctx, eventRef)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load template")
	}
	if tmpl == nil {
		s.metrics.IncFailed("template")
		return nil, dErrors.New(dErrors.CodeNotFound, "card template not found")
	}

	src, err := s.decodeTemplateImage(tmpl.ImagePath)
	if err != nil {
		return nil, err
	}

	payload := card.QRPayload(s.cfg.BaseURL, cred.Code)
	canvas, err := s.compositor.Compose(src, tmpl.Layout, tmpl.Style, subject, payload)
	if err != nil {
		s.metrics.IncFailed("qr")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "compositing failed")
	}

	now := requestcontext.Now(ctx)
	relPath := fmt.Sprintf("cards/%s_%d.jpg", cred.Code, now.UnixNano())

	err = s.files.WriteAtomic(relPath, func(w io.Writer) error {
		return imaging.Encode(w, canvas, imaging.JPEG, imaging.JPEGQuality(s.cfg.JPEGQuality))
	})
	if err != nil {
		s.metrics.IncFailed("storage")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "artifact write failed")
	}

	record := models.RenderedCard{
		CredentialCode: cred.Code,
		ArtifactPath:   relPath,
		RenderedAt:     now,
	}
	if err := s.renders.Add(ctx, record); err != nil {
		// Keep records and files consistent: an unrecorded artifact must
		// not linger on disk.
		if delErr := s.files.Delete(relPath); delErr != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "orphan artifact cleanup failed",
				"artifact_path", relPath,
				"error", delErr,
			)
		}
		s.metrics.IncFailed("storage")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record rendered card")
	}

	if size, sizeErr := s.files.Size(relPath); sizeErr == nil {
		s.metrics.ObserveArtifactSize(size)
	}
	s.metrics.IncRendered()
	s.metrics.ObserveRender(time.Since(start))

	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		Action:         audit.ActionCardRendered,
		CredentialCode: cred.Code,
		OwnerRef:       cred.OwnerRef,
		Detail:         relPath,
		RequestID:      requestcontext.RequestID(ctx),
	})

	return &record, nil
}

// SaveTemplate validates and stores an event's card template. Image format
// and dimension allow-listing happen upstream at upload time; this checks
// only what the compositor relies on.
func (s *Service) SaveTemplate(ctx context.Context, tmpl models.Template) error {
	if tmpl.EventRef == "" {
		return dErrors.New(dErrors.CodeValidation, "event_ref is required")
	}
	if tmpl.ImagePath == "" {
		return dErrors.New(dErrors.CodeValidation, "image_path is required")
	}
	for _, p := range []models.Point{tmpl.Layout.Name, tmpl.Layout.QR, tmpl.Layout.Tier} {
		if p.XPct < 0 || p.XPct > 100 || p.YPct < 0 || p.YPct > 100 {
			return dErrors.New(dErrors.CodeValidation, "layout coordinates must be percentages in [0,100]")
		}
	}
	if tmpl.UpdatedAt.IsZero() {
		tmpl.UpdatedAt = requestcontext.Now(ctx)
	}
	if err := s.templates.Save(ctx, tmpl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save template")
	}
	return nil
}

// GetTemplate returns the event's template.
func (s *Service) GetTemplate(ctx context.Context, eventRef string) (*models.Template, error) {
	tmpl, err := s.templates.Get(ctx, eventRef)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load template")
	}
	if tmpl == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "card template not found")
	}
	return tmpl, nil
}

func (s *Service) decodeTemplateImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		s.metrics.IncFailed("template")
		if os.IsNotExist(err) {
			return nil, dErrors.New(dErrors.CodeNotFound, "template image missing")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open template image")
	}
	defer f.Close()

	decoded, err := imaging.Decode(f)
	if err != nil {
		s.metrics.IncFailed("decode")
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "template image undecodable")
	}
	return decoded, nil
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"guestpass/internal/card/models"
	"guestpass/pkg/platform/httputil"
	"guestpass/pkg/requestcontext"
)

// Service defines the card operations the HTTP layer needs.
type Service interface {
	Render(ctx context.Context, credentialCode, eventRef string, subject models.Subject) (*models.RenderedCard, error)
	SaveTemplate(ctx context.Context, tmpl models.Template) error
	GetTemplate(ctx context.Context, eventRef string) (*models.Template, error)
}

// Handler wires card endpoints to the card service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a card handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts card endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cards/render", h.HandleRender)
	r.Put("/templates/{eventRef}", h.HandleSaveTemplate)
	r.Get("/templates/{eventRef}", h.HandleGetTemplate)
}

// HandleRender handles POST /cards/render.
func (h *Handler) HandleRender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	req, ok := httputil.Decode[RenderRequest](w, r, h.logger)
	if !ok {
		return
	}

	subject := models.Subject{DisplayName: req.GuestName, TierLabel: req.TierLabel}
	card, err := h.service.Render(ctx, req.CredentialCode, req.EventRef, subject)
	if err != nil {
		h.logger.ErrorContext(ctx, "card render failed",
			"request_id", requestcontext.RequestID(ctx),
			"credential_code", req.CredentialCode,
			"event_ref", req.EventRef,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "card rendered",
		"request_id", requestcontext.RequestID(ctx),
		"credential_code", req.CredentialCode,
		"artifact_path", card.ArtifactPath,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, card)
}

// HandleSaveTemplate handles PUT /templates/{eventRef}.
func (h *Handler) HandleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[TemplateRequest](w, r, h.logger)
	if !ok {
		return
	}

	tmpl := models.Template{
		EventRef:  chi.URLParam(r, "eventRef"),
		ImagePath: req.ImagePath,
		Layout:    req.Layout,
		Style:     req.Style,
	}
	if err := h.service.SaveTemplate(ctx, tmpl); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// HandleGetTemplate handles GET /templates/{eventRef}.
func (h *Handler) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tmpl, err := h.service.GetTemplate(ctx, chi.URLParam(r, "eventRef"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tmpl)
}

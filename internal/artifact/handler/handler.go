package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"guestpass/internal/artifact"
	"guestpass/pkg/platform/httputil"
	"guestpass/pkg/requestcontext"
)

// Service defines the lifecycle operations the HTTP layer needs.
type Service interface {
	PurgeForOwner(ctx context.Context, ownerRef string) (*artifact.CleanupReport, error)
	PurgeForOwners(ctx context.Context, ownerRefs []string) ([]artifact.CleanupReport, error)
	StatsForOwner(ctx context.Context, ownerRef string) (*artifact.Stats, error)
}

// Handler wires artifact lifecycle endpoints to the purge service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts lifecycle endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/owners/{ownerRef}/purge", h.HandlePurge)
	r.Post("/purges", h.HandleBatchPurge)
	r.Get("/owners/{ownerRef}/cards/stats", h.HandleStats)
}

// HandlePurge handles POST /owners/{ownerRef}/purge.
func (h *Handler) HandlePurge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.service.PurgeForOwner(ctx, chi.URLParam(r, "ownerRef"))
	if err != nil {
		h.logger.ErrorContext(ctx, "purge failed",
			"request_id", requestcontext.RequestID(ctx),
			"owner_ref", chi.URLParam(r, "ownerRef"),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleBatchPurge handles POST /purges.
func (h *Handler) HandleBatchPurge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[BatchPurgeRequest](w, r, h.logger)
	if !ok {
		return
	}

	reports, err := h.service.PurgeForOwners(ctx, req.OwnerRefs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reports)
}

// HandleStats handles GET /owners/{ownerRef}/cards/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.StatsForOwner(ctx, chi.URLParam(r, "ownerRef"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

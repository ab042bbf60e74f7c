package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"guestpass/internal/credential/models"
	"guestpass/pkg/platform/httputil"
	"guestpass/pkg/requestcontext"
)

// Service defines the credential operations the HTTP layer needs.
type Service interface {
	Issue(ctx context.Context, ownerRef string, capacity int) (*models.Credential, error)
	Get(ctx context.Context, code string) (*models.Credential, error)
	ListByOwner(ctx context.Context, ownerRef string) ([]*models.Credential, error)
}

// Handler wires credential endpoints to the issuer service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a credential handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts credential endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials", h.HandleIssue)
	r.Get("/credentials/{code}", h.HandleGet)
	r.Get("/owners/{ownerRef}/credentials", h.HandleListByOwner)
}

// HandleIssue handles POST /credentials.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[IssueRequest](w, r, h.logger)
	if !ok {
		return
	}

	cred, err := h.service.Issue(ctx, req.OwnerRef, req.Capacity)
	if err != nil {
		h.logger.ErrorContext(ctx, "credential issuance failed",
			"request_id", requestcontext.RequestID(ctx),
			"owner_ref", req.OwnerRef,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, cred)
}

// HandleGet handles GET /credentials/{code}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cred, err := h.service.Get(ctx, chi.URLParam(r, "code"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, cred)
}

// HandleListByOwner handles GET /owners/{ownerRef}/credentials.
func (h *Handler) HandleListByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creds, err := h.service.ListByOwner(ctx, chi.URLParam(r, "ownerRef"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, creds)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"guestpass/internal/admission/models"
	"guestpass/internal/admission/service"
	"guestpass/pkg/platform/httputil"
	"guestpass/pkg/requestcontext"
)

// Service defines the admission operations the HTTP layer needs.
type Service interface {
	Scan(ctx context.Context, payload, scannedBy string) (*service.Decision, error)
	Progress(ctx context.Context, code string) (*models.RedemptionRecord, error)
}

// Handler wires scan endpoints to the admission service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts admission endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/scans", h.HandleScan)
	r.Get("/scans/{code}", h.HandleProgress)
}

// HandleScan handles POST /scans. A scan that would exceed credential
// capacity is reported with 409 and the current redemption state.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[ScanRequest](w, r, h.logger)
	if !ok {
		return
	}

	decision, err := h.service.Scan(ctx, req.Code, req.ScannedBy)
	if err != nil {
		h.logger.ErrorContext(ctx, "scan failed",
			"request_id", requestcontext.RequestID(ctx),
			"scanned_by", req.ScannedBy,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if !decision.Granted {
		status = http.StatusConflict
	}
	httputil.WriteJSON(w, status, ScanResponse{
		Granted:   decision.Granted,
		Reason:    decision.Reason,
		ScanCount: decision.Record.ScanCount,
		Capacity:  decision.Record.Capacity,
		Remaining: decision.Record.Remaining(),
		Status:    string(decision.Record.Status),
	})
}

// HandleProgress handles GET /scans/{code}.
func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	record, err := h.service.Progress(ctx, chi.URLParam(r, "code"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, record)
}

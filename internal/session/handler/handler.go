// Package handler exposes the session lifecycle over HTTP: check-in,
// check-out, preview, payment confirmation, and the directory's active-set
// queries including a server-sent-events stream for live dashboards.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"playpass/internal/directory"
	"playpass/internal/platform/metrics"
	"playpass/internal/session"
	"playpass/internal/transport/http/shared"
	dErrors "playpass/pkg/domainerrors"
)

// Service defines the lifecycle operations the handler needs.
type Service interface {
	Start(ctx context.Context, identityKey string) (session.Session, error)
	Active(ctx context.Context, identityKey string) (session.Session, error)
	End(ctx context.Context, sessionID string) (session.Receipt, error)
	MarkPaid(ctx context.Context, sessionID string) error
	Preview(ctx context.Context, sessionID string) (session.Receipt, error)
}

// Directory defines the read side the handler serves.
type Directory interface {
	ListActive(ctx context.Context) ([]session.Session, error)
	ListAll(ctx context.Context, since time.Time) ([]session.Session, error)
	Stats(ctx context.Context, since time.Time) (directory.Stats, error)
	Subscribe(cb func([]session.Session)) func()
}

// Handler handles session lifecycle endpoints.
type Handler struct {
	logger    *slog.Logger
	lifecycle Service
	directory Directory
	metrics   *metrics.Metrics
}

func New(lifecycle Service, dir Directory, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{logger: logger, lifecycle: lifecycle, directory: dir, metrics: m}
}

// Register registers the session routes with the chi router. The watch
// stream stays outside the timed group so a dashboard connection is not cut
// off by the request deadline.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		r.Post("/checkin", h.handleCheckIn)
		r.Post("/checkout", h.handleCheckOut)
		r.Get("/identities/{key}/session", h.handleActive)
		r.Get("/sessions/{id}/preview", h.handlePreview)
		r.Post("/sessions/{id}/pay", h.handleMarkPaid)
		r.Get("/sessions/active", h.handleListActive)
		r.Get("/sessions", h.handleListAll)
		r.Get("/stats", h.handleStats)
	})
	r.Get("/sessions/watch", h.handleWatch)
}

type checkInRequest struct {
	IdentityKey string `json:"identityKey"`
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IdentityKey == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "identityKey is required"))
		return
	}

	sess, err := h.lifecycle.Start(ctx, req.IdentityKey)
	if err != nil {
		h.logFailure(ctx, "check-in failed", err)
		shared.WriteError(w, err)
		return
	}
	h.metrics.IncCheckIns()
	shared.WriteJSON(w, http.StatusCreated, sess)
}

type checkOutRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "sessionId is required"))
		return
	}

	receipt, err := h.lifecycle.End(ctx, req.SessionID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeAlreadyEnded) {
			// Re-render the committed receipt so a double scan still shows
			// the original charge.
			shared.WriteJSON(w, http.StatusConflict, map[string]any{
				"error":           string(dErrors.CodeAlreadyEnded),
				"sessionId":       receipt.SessionID,
				"durationMinutes": receipt.DurationMinutes,
				"amount":          receipt.Amount,
			})
			return
		}
		h.logFailure(ctx, "check-out failed", err)
		shared.WriteError(w, err)
		return
	}
	h.metrics.IncCheckOuts(receipt.Amount)
	shared.WriteJSON(w, http.StatusOK, receipt)
}

// handleActive serves the re-scan flow: resolve a wristband key to the stay
// currently in progress.
func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.lifecycle.Active(ctx, chi.URLParam(r, "key"))
	if err != nil {
		h.logFailure(ctx, "active lookup failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sess)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	receipt, err := h.lifecycle.Preview(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.logFailure(ctx, "preview failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, receipt)
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.lifecycle.MarkPaid(ctx, chi.URLParam(r, "id")); err != nil {
		h.logFailure(ctx, "mark paid failed", err)
		shared.WriteError(w, err)
		return
	}
	h.metrics.IncPayments()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListActive(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.directory.ListActive(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "list active failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sessions)
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	since, err := parseSince(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sessions, err := h.directory.ListAll(r.Context(), since)
	if err != nil {
		h.logFailure(r.Context(), "list sessions failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sessions)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	since, err := parseSince(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	stats, err := h.directory.Stats(r.Context(), since)
	if err != nil {
		h.logFailure(r.Context(), "stats failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, stats)
}

// handleWatch streams the active set as server-sent events: one snapshot on
// connect, then one per committed change, until the client goes away.
func (h *Handler) handleWatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	snapshots := make(chan []session.Session, 8)
	cancel := h.directory.Subscribe(func(active []session.Session) {
		select {
		case snapshots <- active:
		default: // client is slow; it will catch up on the next snapshot
		}
	})
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	initial, err := h.directory.ListActive(ctx)
	if err != nil {
		h.logFailure(ctx, "watch snapshot failed", err)
		return
	}
	if !writeSSE(w, flusher, initial) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case active := <-snapshots:
			if !writeSSE(w, flusher, active) {
				return
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, active []session.Session) bool {
	payload, err := json.Marshal(active)
	if err != nil {
		return false
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return false
	}
	if _, err := w.Write(payload); err != nil {
		return false
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

func parseSince(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return time.Time{}, nil
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, "since must be RFC 3339")
	}
	return since, nil
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	code := dErrors.CodeOf(err)
	switch code {
	case dErrors.CodeStoreUnavailable, dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, msg,
			"request_id", chimw.GetReqID(ctx),
			"error", err.Error(),
		)
	default:
		h.logger.WarnContext(ctx, msg,
			"request_id", chimw.GetReqID(ctx),
			"code", string(code),
		)
	}
}

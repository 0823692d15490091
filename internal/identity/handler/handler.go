// Package handler is the thin HTTP layer over identity registration. It
// delegates to the service without embedding business logic so transport
// concerns stay isolated.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"playpass/internal/identity"
	"playpass/internal/platform/metrics"
	"playpass/internal/transport/http/shared"
	dErrors "playpass/pkg/domainerrors"
)

// Service defines the identity operations the handler needs.
type Service interface {
	Register(ctx context.Context, attrs identity.Attributes) (identity.Record, bool, error)
	Lookup(ctx context.Context, key string) (identity.Record, error)
}

// Handler handles registration endpoints.
type Handler struct {
	logger   *slog.Logger
	identity Service
	metrics  *metrics.Metrics
}

func New(identitySvc Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{logger: logger, identity: identitySvc, metrics: m}
}

// Register registers the identity routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		r.Post("/register", h.handleRegister)
		r.Get("/identities/{key}", h.handleLookup)
	})
}

type registerResponse struct {
	identity.Record
	IsNew bool `json:"isNew"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var attrs identity.Attributes
	if err := json.NewDecoder(r.Body).Decode(&attrs); err != nil {
		h.logger.WarnContext(ctx, "invalid register request",
			"request_id", chimw.GetReqID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, isNew, err := h.identity.Register(ctx, attrs)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "registration failed",
			"request_id", chimw.GetReqID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
		h.metrics.IncRegistrations()
	}
	shared.WriteJSON(w, status, registerResponse{Record: record, IsNew: isNew})
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "key")

	record, err := h.identity.Lookup(ctx, key)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "identity lookup failed",
				"request_id", chimw.GetReqID(ctx),
				"key", key,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, record)
}

package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"nestsync/internal/platform/metrics"
	"nestsync/internal/platform/middleware"
	"nestsync/internal/record"
	"nestsync/pkg/domain"

	dErrors "nestsync/pkg/domain-errors"
)

// Service defines the interface for consent decision operations.
type Service interface {
	Record(ctx context.Context, subjectID string, t domain.ConsentType, granted bool, version, feature, platform, requestID string) (record.Decision, error)
	History(ctx context.Context, subjectID string) ([]record.Decision, error)
}

// Handler handles consent decision endpoints.
type Handler struct {
	logger       *slog.Logger
	service      Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new decision Handler.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the decision routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	decisionRouter := chi.NewRouter()
	decisionRouter.Use(middleware.Recovery(h.logger))
	decisionRouter.Use(middleware.RequestID)
	decisionRouter.Use(middleware.Logger(h.logger))
	decisionRouter.Use(middleware.Timeout(30 * time.Second))
	decisionRouter.Use(middleware.ContentTypeJSON)
	decisionRouter.Use(middleware.LatencyMiddleware(h.metrics))
	decisionRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	decisionRouter.Post("/v1/consent/decisions", h.handleRecordDecision)
	decisionRouter.Get("/v1/consent/decisions", h.handleListDecisions)

	r.Mount("/", decisionRouter)
}

// handleRecordDecision persists a decision for the authenticated subject.
func (h *Handler) handleRecordDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	subjectID := middleware.GetSubjectID(ctx)
	if subjectID == "" {
		// Should never happen with RequireAuth configured on the router.
		h.logger.ErrorContext(ctx, "subjectID missing from context despite auth middleware",
			"request_id", requestID,
		)
		writeError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req recordDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid record decision request",
			"request_id", requestID,
			"error", err.Error(),
		)
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	consentType, err := domain.ParseConsentType(req.ConsentType)
	if err != nil {
		writeError(w, err)
		return
	}

	platform := platformFromUserAgent(r.UserAgent())

	decision, err := h.service.Record(ctx, subjectID, consentType, req.Granted, req.Version, req.Feature, platform, requestID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeBadRequest) || dErrors.Is(err, dErrors.CodeInvalidInput) || dErrors.Is(err, dErrors.CodeConflict) {
			h.logger.WarnContext(ctx, "record decision rejected",
				"request_id", requestID,
				"error", err.Error(),
			)
			writeError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to record decision",
			"request_id", requestID,
			"error", err.Error(),
		)
		writeError(w, dErrors.New(dErrors.CodeInternal, "failed to record decision"))
		return
	}

	writeJSON(w, http.StatusCreated, toDecisionResponse(decision))
}

// handleListDecisions returns the full decision history for the subject.
func (h *Handler) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	subjectID := middleware.GetSubjectID(ctx)
	if subjectID == "" {
		writeError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	decisions, err := h.service.History(ctx, subjectID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list decisions",
			"request_id", requestID,
			"error", err.Error(),
		)
		writeError(w, dErrors.New(dErrors.CodeInternal, "failed to list decisions"))
		return
	}

	writeJSON(w, http.StatusOK, toListResponse(decisions))
}

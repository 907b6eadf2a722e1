package record

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"nestsync/internal/audit"
	"nestsync/internal/platform/metrics"
	"nestsync/pkg/domain"

	dErrors "nestsync/pkg/domain-errors"
)

// Service persists consent decisions and keeps the audit trail flowing. It
// owns validation so stores stay dumb and handlers stay thin.
type Service struct {
	store   Store
	audit   *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

func NewService(store Store, auditPub *audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		audit:   auditPub,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("nestsync/record"),
		now:     time.Now,
	}
}

// Record validates and persists one decision, emitting an audit event on
// success. Required consent types never reach this path: they are accepted at
// signup, not just-in-time, and recording them here would corrupt the trail.
func (s *Service) Record(ctx context.Context, subjectID string, t domain.ConsentType, granted bool, version, feature, platform, requestID string) (Decision, error) {
	ctx, span := s.tracer.Start(ctx, "consent.record",
		trace.WithAttributes(
			attribute.String("consent.type", t.String()),
			attribute.Bool("consent.granted", granted),
		))
	defer span.End()

	if !t.IsValid() {
		return Decision{}, dErrors.New(dErrors.CodeInvalidInput, "invalid consent type")
	}
	if t.IsRequired() {
		return Decision{}, dErrors.New(dErrors.CodeBadRequest, "required consent types are not recorded just-in-time")
	}
	if version != domain.CatalogVersion {
		// A stale client prompted under an outdated schema; the decision
		// cannot stand. The client refreshes its catalog and re-prompts.
		return Decision{}, dErrors.New(dErrors.CodeConflict, "consent schema version is stale")
	}

	entry, ok := domain.Lookup(t)
	if !ok {
		return Decision{}, dErrors.New(dErrors.CodeInternal, "consent type missing from catalog")
	}

	decision := Decision{
		ID:          uuid.NewString(),
		SubjectID:   subjectID,
		ConsentType: t,
		Granted:     granted,
		Version:     version,
		Purpose:     entry.Purpose,
		Feature:     feature,
		Platform:    platform,
		RecordedAt:  s.now(),
	}

	if err := s.store.Append(ctx, decision); err != nil {
		return Decision{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "persist consent decision")
	}

	if s.metrics != nil {
		s.metrics.RecordDecision(t.String(), granted)
	}

	action := audit.ActionConsentDeclined
	if granted {
		action = audit.ActionConsentGranted
	}
	s.audit.Emit(ctx, audit.Event{
		SubjectID:   subjectID,
		Action:      action,
		ConsentType: t.String(),
		Version:     version,
		Feature:     feature,
		Platform:    platform,
		RequestID:   requestID,
	})

	return decision, nil
}

// History returns every decision ever recorded for a subject, oldest first,
// for data-export and support tooling.
func (s *Service) History(ctx context.Context, subjectID string) ([]Decision, error) {
	ctx, span := s.tracer.Start(ctx, "consent.history")
	defer span.End()

	decisions, err := s.store.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list consent decisions")
	}
	return decisions, nil
}

// Current returns the latest standing decision for one consent type.
func (s *Service) Current(ctx context.Context, subjectID string, t domain.ConsentType) (Decision, error) {
	decision, err := s.store.Latest(ctx, subjectID, t)
	if err != nil {
		return Decision{}, dErrors.Wrap(err, dErrors.CodeNotFound, "no decision on record")
	}
	return decision, nil
}

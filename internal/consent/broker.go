package consent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nestsync/internal/consent/metrics"
	"nestsync/pkg/domain"

	dErrors "nestsync/pkg/domain-errors"
)

// Prompter is the presentation surface contract. The broker calls Show exactly
// once per pending request and expects exactly one of the two callbacks to be
// invoked, exactly once, before any subsequent Show for the same type.
type Prompter interface {
	Show(prompt Prompt, onGrant func(), onDecline func())
	Hide()
}

// Recorder persists a decision server-side for the audit trail. One attempt
// per decision; the broker does not cache on failure.
type Recorder interface {
	Record(ctx context.Context, t domain.ConsentType, granted bool, version, feature string) error
}

// Broker is the single authority deciding whether a guarded feature may
// proceed, and the sole writer of the cache. Construct one per application
// root and inject it; there is deliberately no package-level instance.
type Broker struct {
	mu      sync.Mutex
	pending map[domain.ConsentType]*pendingRequest

	cache         *Cache
	recorder      Recorder
	prompter      Prompter
	recordTimeout time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// pendingRequest fans one open prompt out to every caller that asked for the
// same consent type while it was unanswered. Resolution is broadcast: all
// waiters observe the same decision.
type pendingRequest struct {
	prompt  Prompt
	done    chan struct{}
	granted bool
	// initiatorErr carries the remote-record failure to the caller that
	// opened the prompt; co-waiters only ever see the boolean.
	initiatorErr error
	decided      bool
}

// NewBroker wires the broker to its collaborators. metrics may be nil.
func NewBroker(cache *Cache, recorder Recorder, prompter Prompter, recordTimeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Broker {
	return &Broker{
		pending:       make(map[domain.ConsentType]*pendingRequest),
		cache:         cache,
		recorder:      recorder,
		prompter:      prompter,
		recordTimeout: recordTimeout,
		logger:        logger,
		metrics:       m,
	}
}

// RequestConsent resolves whether the caller may use a capability gated on
// the given consent type, prompting the user at most once no matter how many
// callers ask concurrently.
//
// Required types short-circuit to true without cache or prompt. A valid
// cached decision, granted or denied, is authoritative within its TTL. When a
// prompt for the same type is already open the caller joins it as a waiter.
func (b *Broker) RequestConsent(ctx context.Context, t domain.ConsentType, feature string) (bool, error) {
	if !t.IsValid() {
		return false, dErrors.New(dErrors.CodeInvalidInput, "invalid consent type")
	}
	if t.IsRequired() {
		return true, nil
	}

	b.mu.Lock()
	if record, ok := b.cache.Get(t); ok {
		b.mu.Unlock()
		b.metrics.CacheHit(t.String())
		return record.Granted, nil
	}

	if p, ok := b.pending[t]; ok {
		b.mu.Unlock()
		select {
		case <-p.done:
			return p.granted, nil
		case <-ctx.Done():
			// The caller gives up waiting; the prompt stays open for
			// co-waiters and the eventual decision still lands in cache.
			return false, ctx.Err()
		}
	}

	entry, ok := domain.Lookup(t)
	if !ok {
		b.mu.Unlock()
		return false, dErrors.New(dErrors.CodeInternal, "consent type missing from catalog")
	}

	p := &pendingRequest{
		prompt: Prompt{
			Type:           t,
			Purpose:        entry.Purpose,
			DataCategories: entry.DataCategories,
			Feature:        feature,
		},
		done: make(chan struct{}),
	}
	b.pending[t] = p
	b.mu.Unlock()

	b.metrics.PromptShown(t.String())
	b.prompter.Show(p.prompt,
		func() { b.resolve(t, p, true) },
		func() { b.resolve(t, p, false) },
	)

	select {
	case <-p.done:
		return p.granted, p.initiatorErr
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// HasConsent is a non-blocking, cache-only check with no prompt side effect,
// for UI that decides whether to show gated affordances.
func (b *Broker) HasConsent(t domain.ConsentType) bool {
	if t.IsRequired() {
		return true
	}
	record, ok := b.cache.Get(t)
	return ok && record.Granted
}

// Dismiss forcibly resolves the open request for a type with false, without
// caching and without calling the recorder. A dismiss is not a recorded
// decision: the user is re-prompted on the next attempt in the same session.
func (b *Broker) Dismiss(t domain.ConsentType) {
	b.mu.Lock()
	p, ok := b.pending[t]
	if !ok || p.decided {
		b.mu.Unlock()
		return
	}
	p.decided = true
	delete(b.pending, t)
	p.granted = false
	close(p.done)
	b.mu.Unlock()

	b.prompter.Hide()
	b.metrics.Dismissed(t.String())
}

// resolve runs on the user's decision. The remote record call happens before
// any waiter is released: a decision the backend never acknowledged is not a
// decision, and resolves fail-closed without touching the cache.
func (b *Broker) resolve(t domain.ConsentType, p *pendingRequest, granted bool) {
	b.mu.Lock()
	// A callback from a dismissed or already-answered prompt must not decide
	// a newer request for the same type.
	if b.pending[t] != p || p.decided {
		b.mu.Unlock()
		return
	}
	p.decided = true
	b.mu.Unlock()

	b.prompter.Hide()

	ctx, cancel := context.WithTimeout(context.Background(), b.recordTimeout)
	defer cancel()

	if err := b.recorder.Record(ctx, t, granted, b.cache.version, p.prompt.Feature); err != nil {
		b.logger.WarnContext(ctx, "consent decision not recorded, resolving denied",
			"consent_type", t.String(),
			"error", err,
		)
		b.metrics.RemoteFailure(t.String())
		b.finish(t, p, false, dErrors.Wrap(err, dErrors.CodeRemoteRecord, "record consent decision"))
		return
	}

	if err := b.cache.Put(ctx, t, granted); err != nil {
		// The backend holds the decision of record; a failed local cache
		// write only costs a re-prompt next session.
		b.logger.WarnContext(ctx, "consent cache write failed",
			"consent_type", t.String(),
			"error", err,
		)
	}

	b.metrics.Decided(t.String(), granted)
	b.finish(t, p, granted, nil)
}

func (b *Broker) finish(t domain.ConsentType, p *pendingRequest, granted bool, initiatorErr error) {
	b.mu.Lock()
	p.granted = granted
	p.initiatorErr = initiatorErr
	delete(b.pending, t)
	close(p.done)
	b.mu.Unlock()
}

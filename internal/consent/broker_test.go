package consent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"nestsync/pkg/domain"

	dErrors "nestsync/pkg/domain-errors"
)

type BrokerSuite struct {
	suite.Suite
	cache    *Cache
	prompter *fakePrompter
	recorder *fakeRecorder
	broker   *Broker
}

func TestBrokerSuite(t *testing.T) {
	suite.Run(t, new(BrokerSuite))
}

func (s *BrokerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.cache = NewCache(NewMemoryStore(), 30*24*time.Hour, domain.CatalogVersion, logger)
	s.prompter = newFakePrompter()
	s.recorder = &fakeRecorder{}
	s.broker = NewBroker(s.cache, s.recorder, s.prompter, time.Second, logger, nil)
}

func (s *BrokerSuite) TestRequiredTypesShortCircuit() {
	granted, err := s.broker.RequestConsent(context.Background(), domain.ConsentTypePrivacyPolicy, "signup")
	s.Require().NoError(err)
	s.True(granted)
	s.Equal(0, s.prompter.showCount())
	s.Equal(0, s.recorder.callCount())

	s.True(s.broker.HasConsent(domain.ConsentTypeTermsOfService))
}

func (s *BrokerSuite) TestInvalidTypeRejected() {
	_, err := s.broker.RequestConsent(context.Background(), domain.ConsentType("telemetry"), "dashboard")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
}

func (s *BrokerSuite) TestCachedDecisionsAnswerWithoutPrompt() {
	s.Run("granted", func() {
		s.Require().NoError(s.cache.Put(context.Background(), domain.ConsentTypeAnalytics, true))

		granted, err := s.broker.RequestConsent(context.Background(), domain.ConsentTypeAnalytics, "dashboard")
		s.Require().NoError(err)
		s.True(granted)
		s.Equal(0, s.prompter.showCount())
	})

	s.Run("denied is authoritative too", func() {
		s.Require().NoError(s.cache.Put(context.Background(), domain.ConsentTypeMarketing, false))

		granted, err := s.broker.RequestConsent(context.Background(), domain.ConsentTypeMarketing, "offers")
		s.Require().NoError(err)
		s.False(granted)
		s.Equal(0, s.prompter.showCount())
	})
}

func (s *BrokerSuite) TestGrantFlowRecordsThenCaches() {
	result := s.request(domain.ConsentTypeAnalytics, "dashboard")
	s.prompter.awaitShow(s.T())

	prompt := s.prompter.lastPrompt()
	s.Equal(domain.ConsentTypeAnalytics, prompt.Type)
	s.NotEmpty(prompt.Purpose)
	s.NotEmpty(prompt.DataCategories)
	s.Equal("dashboard", prompt.Feature)

	s.prompter.grant()

	r := <-result
	s.Require().NoError(r.err)
	s.True(r.granted)
	s.Equal(1, s.recorder.callCount())

	record, ok := s.cache.Get(domain.ConsentTypeAnalytics)
	s.Require().True(ok)
	s.True(record.Granted)
	s.Equal(domain.CatalogVersion, record.Version)
}

func (s *BrokerSuite) TestDeclineFlowCachesDenial() {
	result := s.request(domain.ConsentTypeMarketing, "offers")
	s.prompter.awaitShow(s.T())
	s.prompter.decline()

	r := <-result
	s.Require().NoError(r.err)
	s.False(r.granted)

	record, ok := s.cache.Get(domain.ConsentTypeMarketing)
	s.Require().True(ok)
	s.False(record.Granted)

	// No re-prompt within TTL.
	granted, err := s.broker.RequestConsent(context.Background(), domain.ConsentTypeMarketing, "offers")
	s.Require().NoError(err)
	s.False(granted)
	s.Equal(1, s.prompter.showCount())
}

func (s *BrokerSuite) TestConcurrentCallersShareOnePrompt() {
	const callers = 8

	first := s.request(domain.ConsentTypeAnalytics, "dashboard")
	s.prompter.awaitShow(s.T())

	results := make([]chan requestResult, 0, callers-1)
	for range callers - 1 {
		results = append(results, s.request(domain.ConsentTypeAnalytics, "export"))
	}
	// Let the joiners attach to the pending request before deciding.
	time.Sleep(50 * time.Millisecond)

	s.prompter.grant()

	r := <-first
	s.Require().NoError(r.err)
	s.True(r.granted)
	for _, ch := range results {
		r := <-ch
		s.Require().NoError(r.err)
		s.True(r.granted)
	}

	s.Equal(1, s.prompter.showCount())
	s.Equal(1, s.recorder.callCount())
}

func (s *BrokerSuite) TestTTLExpiryTriggersNewPrompt() {
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	s.cache.now = func() time.Time { return base }
	s.Require().NoError(s.cache.Put(context.Background(), domain.ConsentTypeAnalytics, true))

	s.cache.now = func() time.Time { return base.Add(30*24*time.Hour + time.Minute) }

	result := s.request(domain.ConsentTypeAnalytics, "dashboard")
	s.prompter.awaitShow(s.T())
	s.prompter.grant()

	r := <-result
	s.Require().NoError(r.err)
	s.True(r.granted)
	s.Equal(1, s.prompter.showCount())
}

func (s *BrokerSuite) TestVersionMismatchTriggersNewPrompt() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewMemoryStore()

	old := NewCache(store, 30*24*time.Hour, "2024-01", logger)
	s.Require().NoError(old.Put(context.Background(), domain.ConsentTypeAnalytics, true))

	current := NewCache(store, 30*24*time.Hour, domain.CatalogVersion, logger)
	s.Require().NoError(current.Load(context.Background()))
	s.broker = NewBroker(current, s.recorder, s.prompter, time.Second, logger, nil)

	result := s.request(domain.ConsentTypeAnalytics, "dashboard")
	s.prompter.awaitShow(s.T())
	s.prompter.grant()

	r := <-result
	s.Require().NoError(r.err)
	s.Equal(1, s.prompter.showCount())
}

func (s *BrokerSuite) TestRemoteFailureResolvesClosedWithoutCaching() {
	s.recorder.err = errors.New("network down")

	first := s.request(domain.ConsentTypeDataSharing, "forecast")
	s.prompter.awaitShow(s.T())

	second := s.request(domain.ConsentTypeDataSharing, "forecast")
	time.Sleep(50 * time.Millisecond)

	s.prompter.grant()

	r := <-first
	s.Require().Error(r.err)
	s.True(dErrors.Is(r.err, dErrors.CodeRemoteRecord))
	s.False(r.granted)

	// Co-waiters get the boolean only.
	r2 := <-second
	s.Require().NoError(r2.err)
	s.False(r2.granted)

	// Cache unchanged: the next attempt prompts again.
	_, ok := s.cache.Get(domain.ConsentTypeDataSharing)
	s.False(ok)

	s.recorder.err = nil
	result := s.request(domain.ConsentTypeDataSharing, "forecast")
	s.prompter.awaitShow(s.T())
	s.prompter.grant()
	r3 := <-result
	s.Require().NoError(r3.err)
	s.True(r3.granted)
	s.Equal(2, s.prompter.showCount())
}

func (s *BrokerSuite) TestDismissDoesNotPersist() {
	first := s.request(domain.ConsentTypeChildData, "profile")
	s.prompter.awaitShow(s.T())

	s.broker.Dismiss(domain.ConsentTypeChildData)

	r := <-first
	s.Require().NoError(r.err)
	s.False(r.granted)
	s.Equal(0, s.recorder.callCount())

	_, ok := s.cache.Get(domain.ConsentTypeChildData)
	s.False(ok)

	// Same session, same type: prompt again.
	second := s.request(domain.ConsentTypeChildData, "profile")
	s.prompter.awaitShow(s.T())
	s.prompter.grant()
	r2 := <-second
	s.Require().NoError(r2.err)
	s.True(r2.granted)
	s.Equal(2, s.prompter.showCount())
}

func (s *BrokerSuite) TestStaleCallbackCannotResolveNewPrompt() {
	first := s.request(domain.ConsentTypeAnalytics, "dashboard")
	s.prompter.awaitShow(s.T())
	staleGrant := s.prompter.grantFn()

	s.broker.Dismiss(domain.ConsentTypeAnalytics)
	r := <-first
	s.Require().NoError(r.err)
	s.False(r.granted)

	second := s.request(domain.ConsentTypeAnalytics, "dashboard")
	s.prompter.awaitShow(s.T())

	// A late callback from the dismissed prompt is a no-op: it neither
	// records nor releases the new request's waiters.
	staleGrant()
	s.Equal(0, s.recorder.callCount())
	select {
	case r2 := <-second:
		s.FailNowf("new request resolved without a decision", "granted=%v err=%v", r2.granted, r2.err)
	case <-time.After(100 * time.Millisecond):
	}

	s.prompter.decline()
	r2 := <-second
	s.Require().NoError(r2.err)
	s.False(r2.granted)
	s.Equal(1, s.recorder.callCount())
}

func (s *BrokerSuite) TestCallerCancellationLeavesCoWaitersIntact() {
	first := s.request(domain.ConsentTypeAnalytics, "dashboard")
	s.prompter.awaitShow(s.T())

	ctx, cancel := context.WithCancel(context.Background())
	canceled := make(chan requestResult, 1)
	go func() {
		granted, err := s.broker.RequestConsent(ctx, domain.ConsentTypeAnalytics, "export")
		canceled <- requestResult{granted: granted, err: err}
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	r := <-canceled
	s.Require().ErrorIs(r.err, context.Canceled)
	s.False(r.granted)

	s.prompter.grant()
	r2 := <-first
	s.Require().NoError(r2.err)
	s.True(r2.granted)
}

func (s *BrokerSuite) TestHasConsentNeverPrompts() {
	s.False(s.broker.HasConsent(domain.ConsentTypeAnalytics))
	s.Equal(0, s.prompter.showCount())

	s.Require().NoError(s.cache.Put(context.Background(), domain.ConsentTypeAnalytics, true))
	s.True(s.broker.HasConsent(domain.ConsentTypeAnalytics))

	s.Require().NoError(s.cache.Put(context.Background(), domain.ConsentTypeAnalytics, false))
	s.False(s.broker.HasConsent(domain.ConsentTypeAnalytics))
	s.Equal(0, s.prompter.showCount())
}

type requestResult struct {
	granted bool
	err     error
}

func (s *BrokerSuite) request(t domain.ConsentType, feature string) chan requestResult {
	result := make(chan requestResult, 1)
	go func() {
		granted, err := s.broker.RequestConsent(context.Background(), t, feature)
		result <- requestResult{granted: granted, err: err}
	}()
	return result
}

// fakePrompter captures Show calls and lets tests drive the decision.
type fakePrompter struct {
	mu        sync.Mutex
	prompts   []Prompt
	onGrant   func()
	onDecline func()
	shown     chan struct{}
}

func newFakePrompter() *fakePrompter {
	return &fakePrompter{shown: make(chan struct{}, 16)}
}

func (f *fakePrompter) Show(p Prompt, onGrant func(), onDecline func()) {
	f.mu.Lock()
	f.prompts = append(f.prompts, p)
	f.onGrant = onGrant
	f.onDecline = onDecline
	f.mu.Unlock()
	f.shown <- struct{}{}
}

func (f *fakePrompter) Hide() {}

func (f *fakePrompter) awaitShow(t *testing.T) {
	t.Helper()
	select {
	case <-f.shown:
	case <-time.After(2 * time.Second):
		t.Fatal("prompt was never shown")
	}
}

func (f *fakePrompter) grant() {
	f.mu.Lock()
	fn := f.onGrant
	f.mu.Unlock()
	fn()
}

func (f *fakePrompter) decline() {
	f.mu.Lock()
	fn := f.onDecline
	f.mu.Unlock()
	fn()
}

// grantFn returns the grant callback of the most recent prompt, so tests can
// fire it after a newer prompt has replaced it.
func (f *fakePrompter) grantFn() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.onGrant
}

func (f *fakePrompter) showCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakePrompter) lastPrompt() Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[len(f.prompts)-1]
}

// fakeRecorder counts Record calls and can fail on demand.
type fakeRecorder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRecorder) Record(_ context.Context, _ domain.ConsentType, _ bool, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeRecorder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

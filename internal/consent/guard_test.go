package consent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestsync/pkg/domain"
)

// autoPrompter answers every prompt immediately with a fixed decision.
type autoPrompter struct {
	grant bool
}

func (p autoPrompter) Show(_ Prompt, onGrant func(), onDecline func()) {
	if p.grant {
		onGrant()
		return
	}
	onDecline()
}

func (p autoPrompter) Hide() {}

func newGuardBroker(t *testing.T, prompter Prompter, recorder Recorder) *Broker {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := NewCache(NewMemoryStore(), 30*24*time.Hour, domain.CatalogVersion, logger)
	return NewBroker(cache, recorder, prompter, time.Second, logger, nil)
}

func TestGuardRunsExactlyOnePath(t *testing.T) {
	t.Run("granted runs gated path", func(t *testing.T) {
		broker := newGuardBroker(t, autoPrompter{grant: true}, &fakeRecorder{})
		guard := NewGuard(broker, domain.ConsentTypeAnalytics, "dashboard")

		var gated, fellBack bool
		err := guard.Run(context.Background(),
			func(context.Context) error { gated = true; return nil },
			func(context.Context) error { fellBack = true; return nil },
		)
		require.NoError(t, err)
		assert.True(t, gated)
		assert.False(t, fellBack)
	})

	t.Run("declined runs fallback path", func(t *testing.T) {
		broker := newGuardBroker(t, autoPrompter{grant: false}, &fakeRecorder{})
		guard := NewGuard(broker, domain.ConsentTypeAnalytics, "dashboard")

		var gated, fellBack bool
		err := guard.Run(context.Background(),
			func(context.Context) error { gated = true; return nil },
			func(context.Context) error { fellBack = true; return nil },
		)
		require.NoError(t, err)
		assert.False(t, gated)
		assert.True(t, fellBack)
	})

	t.Run("recorder failure falls back without error", func(t *testing.T) {
		broker := newGuardBroker(t, autoPrompter{grant: true}, &fakeRecorder{err: errors.New("down")})
		guard := NewGuard(broker, domain.ConsentTypeAnalytics, "dashboard")

		var fellBack bool
		err := guard.Run(context.Background(),
			func(context.Context) error { return errors.New("must not run") },
			func(context.Context) error { fellBack = true; return nil },
		)
		require.NoError(t, err)
		assert.True(t, fellBack)
	})

	t.Run("nil fallback is a no-op", func(t *testing.T) {
		broker := newGuardBroker(t, autoPrompter{grant: false}, &fakeRecorder{})
		guard := NewGuard(broker, domain.ConsentTypeMarketing, "offers")

		err := guard.Run(context.Background(),
			func(context.Context) error { return errors.New("must not run") },
			nil,
		)
		require.NoError(t, err)
	})
}

func TestGuardVisible(t *testing.T) {
	broker := newGuardBroker(t, autoPrompter{grant: true}, &fakeRecorder{})
	guard := NewGuard(broker, domain.ConsentTypeAnalytics, "dashboard")

	assert.False(t, guard.Visible())
	require.True(t, guard.Allowed(context.Background()))
	assert.True(t, guard.Visible())
}

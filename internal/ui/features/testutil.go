// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/treegrid/internal/engine"
	"github.com/leapstack-labs/treegrid/internal/testutil"
	"github.com/leapstack-labs/treegrid/internal/ui/notifier"
	"github.com/leapstack-labs/treegrid/pkg/core"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Engine       *engine.Engine
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
}

// SetupTestFixture creates an engine over an in-memory store holding
// records, with a notifier subscribed to its moves.
func SetupTestFixture(t *testing.T, records ...core.Record) *TestFixture {
	t.Helper()

	eng, err := engine.New(context.Background(), engine.Config{
		Store:  core.StoreConfig{Type: "memory"},
		Logger: testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	require.NoError(t, eng.Replace(context.Background(), records))

	notify := notifier.New()
	cancel := eng.Source().Subscribe(notify.Moved)

	t.Cleanup(func() {
		cancel()
		_ = eng.Close()
	})

	return &TestFixture{
		Engine:       eng,
		Notifier:     notify,
		SessionStore: NewTestSessionStore(),
	}
}

// RequestWithPathParam wraps a request with chi URL params given as
// key, value pairs.
func RequestWithPathParam(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}

package grid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/treegrid/internal/testutil"
	"github.com/leapstack-labs/treegrid/internal/ui/features"
	"github.com/leapstack-labs/treegrid/pkg/core"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func setupRouter(t *testing.T) (chi.Router, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t, testutil.Org()...)
	r := chi.NewRouter()
	require.NoError(t, SetupRoutes(r, fixture.Engine, fixture.SessionStore, fixture.Notifier, 10))
	return r, fixture
}

func do(t *testing.T, h http.Handler, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// JSON API
// =============================================================================

func TestListRecords(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantIDs    []core.RecordID
		wantTotal  int
	}{
		{"roots", "/api/records", http.StatusOK, []core.RecordID{"M1", "M2"}, 2},
		{"children", "/api/records?parent=M1", http.StatusOK, []core.RecordID{"E1", "E2"}, 2},
		{"second page", "/api/records?parent=M1&page=1&size=1", http.StatusOK, []core.RecordID{"E2"}, 2},
		{"past the end", "/api/records?page=5", http.StatusOK, []core.RecordID{}, 2},
		{"unknown parent", "/api/records?parent=ghost", http.StatusOK, []core.RecordID{}, 0},
		{"bad page", "/api/records?page=x", http.StatusBadRequest, nil, 0},
		{"negative page", "/api/records?page=-1", http.StatusBadRequest, nil, 0},
		{"zero size", "/api/records?size=0", http.StatusBadRequest, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, http.MethodGet, tt.target, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, "invalid_argument", decode[errorResponse](t, rec).Kind)
				return
			}

			res := decode[pageResponse](t, rec)
			assert.Equal(t, tt.wantIDs, testutil.IDs(res.Items))
			assert.Equal(t, tt.wantTotal, res.TotalCount)
		})
	}
}

func TestGetRecord(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(t, r, http.MethodGet, "/api/records/E1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[core.Record](t, rec)
	assert.Equal(t, core.RecordID("M1"), got.ParentID)
	assert.Equal(t, "Employee One", got.Fields["name"])

	rec = do(t, r, http.MethodGet, "/api/records/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraggableAndDroppable(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		target     string
		wantStatus int
		key        string
		want       bool
	}{
		{"/api/records/E1/draggable", http.StatusOK, "draggable", true},
		{"/api/records/M1/draggable", http.StatusOK, "draggable", false},
		{"/api/records/ghost/draggable", http.StatusNotFound, "", false},
		{"/api/records/E1/droppable/M2", http.StatusOK, "droppable", true},
		{"/api/records/E1/droppable/M1", http.StatusOK, "droppable", false},
		{"/api/records/E1/droppable/E2", http.StatusOK, "droppable", false},
		{"/api/records/E1/droppable/ghost", http.StatusNotFound, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, r, http.MethodGet, tt.target, "")
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.key != "" {
				body := decode[map[string]any](t, rec)
				assert.Equal(t, tt.want, body[tt.key])
			}
		})
	}
}

func TestMove_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
		wantKind   string
	}{
		{"not found", "/api/records/ghost/move", `{"parentId":"M2"}`, http.StatusNotFound, "not_found"},
		{"leaf target", "/api/records/E1/move", `{"parentId":"E2"}`, http.StatusUnprocessableEntity, "invalid_target"},
		{"bad body", "/api/records/E1/move", `{`, http.StatusBadRequest, "invalid_argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupRouter(t)
			rec := do(t, r, http.MethodPost, tt.target, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantKind, decode[errorResponse](t, rec).Kind)
		})
	}
}

func TestMove_CycleDetected(t *testing.T) {
	fixture := features.SetupTestFixture(t, testutil.Chain()...)
	r := chi.NewRouter()
	require.NoError(t, SetupRoutes(r, fixture.Engine, fixture.SessionStore, fixture.Notifier, 10))

	rec := do(t, r, http.MethodPost, "/api/records/A/move", `{"parentId":"C"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "cycle_detected", decode[errorResponse](t, rec).Kind)
}

func TestMove_SuccessAndNoOp(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(t, r, http.MethodPost, "/api/records/E1/move", `{"parentId":"M2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ev := decode[core.MoveEvent](t, rec)
	assert.Equal(t, core.RecordID("E1"), ev.RecordID)
	assert.Equal(t, core.RecordID("M2"), ev.NewParentID)

	rec = do(t, r, http.MethodPost, "/api/records/E1/move", `{"parentId":"M2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"noop": true}, decode[map[string]bool](t, rec))

	rec = do(t, r, http.MethodGet, "/api/records?parent=M2", "")
	assert.Equal(t, []core.RecordID{"E1"}, testutil.IDs(decode[pageResponse](t, rec).Items))

	rec = do(t, r, http.MethodGet, "/api/moves?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	moves := decode[[]core.MoveEvent](t, rec)
	require.Len(t, moves, 1)
	assert.Equal(t, ev.ID, moves[0].ID)
}

func TestMoves_Empty(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(t, r, http.MethodGet, "/api/moves", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

// =============================================================================
// Session expansion state
// =============================================================================

func TestRows_SessionExpansion(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(t, r, http.MethodGet, "/api/rows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[rowsResponse](t, rec).Rows, 2)

	rec = do(t, r, http.MethodPost, "/api/expanded/M1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string][]core.RecordID{"expanded": {"M1"}}, decode[map[string][]core.RecordID](t, rec))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	rec = do(t, r, http.MethodGet, "/api/rows", "", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[rowsResponse](t, rec)
	assert.Equal(t, []core.RecordID{"M1"}, rows.Expanded)
	require.Len(t, rows.Rows, 4)
	assert.Equal(t, core.RecordID("E1"), rows.Rows[1].Record.ID)
	assert.Equal(t, 1, rows.Rows[1].Depth)

	// another browser has its own set
	rec = do(t, r, http.MethodGet, "/api/rows", "")
	assert.Len(t, decode[rowsResponse](t, rec).Rows, 2)

	rec = do(t, r, http.MethodDelete, "/api/expanded/M1", "", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, r, http.MethodGet, "/api/rows", "", rec.Result().Cookies()...)
	assert.Len(t, decode[rowsResponse](t, rec).Rows, 2)

	rec = do(t, r, http.MethodPost, "/api/expanded/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRows_InvalidPage(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(t, r, http.MethodGet, "/api/rows?page=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Datastar endpoints
// =============================================================================

func TestGridPage(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(t, r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, want := range []string{
		"<!doctype html>",
		"<title>treegrid</title>",
		"data-init",
		"/api/events",
		`id="rows"`,
		"Manager One",
		`id="row-M1"`,
		"Page 1 of 1",
	} {
		assert.Contains(t, body, want, "response should contain %q", want)
	}
	// employees are collapsed away
	assert.NotContains(t, body, "Employee One")
}

func TestDrop(t *testing.T) {
	r, fixture := setupRouter(t)

	rec := do(t, r, http.MethodPost, "/api/drop", `{"dragged":"E1","target":"M2"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, `"dropError":""`)
	assert.Contains(t, body, "datastar-patch-elements")
	assert.Contains(t, body, `id="rows"`)

	got, err := fixture.Engine.Source().Get("E1")
	require.NoError(t, err)
	assert.Equal(t, core.RecordID("M2"), got.ParentID)

	// invalid drop reports the error in signals
	rec = do(t, r, http.MethodPost, "/api/drop", `{"dragged":"E1","target":"E2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid drop target")
}

func TestRows_DatastarRequestPatchesFragment(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/expanded/M1", nil)
	req.Header.Set("Datastar-Request", "true")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "datastar-patch-elements")
	assert.Contains(t, body, "Employee One")
}

func TestRows_DatastarRequestHonoursSize(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/rows?page=1&size=1", nil)
	req.Header.Set("Datastar-Request", "true")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Manager Two")
	assert.NotContains(t, body, "Manager One")
	assert.Contains(t, body, "Page 2 of 2")
	assert.Contains(t, body, "page=0&amp;size=1")
}

func TestEvents_StreamsMoves(t *testing.T) {
	r, fixture := setupRouter(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return fixture.Notifier.Len() == 1 }, time.Second, 5*time.Millisecond)

	_, err := fixture.Engine.Move(context.Background(), "E2", "M2")
	require.NoError(t, err)
	fixture.Notifier.Reloaded()

	// the recorder may only be read once the handler has returned
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, `"recordId":"E2"`)
	assert.Contains(t, body, `"reloads":1`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrInvalidArgument, http.StatusBadRequest},
		{&core.MoveError{Op: "reparent", Err: core.ErrNotFound}, http.StatusNotFound},
		{core.ErrInvalidTarget, http.StatusUnprocessableEntity},
		{core.ErrCycleDetected, http.StatusConflict},
		{core.ErrNoOp, http.StatusOK},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestGetRecord_DirectHandler(t *testing.T) {
	fixture := features.SetupTestFixture(t, testutil.Org()...)
	h := NewHandlers(fixture.Engine, fixture.SessionStore, fixture.Notifier, 10)

	req := features.RequestWithPathParam(httptest.NewRequest(http.MethodGet, "/api/records/E1", nil), "id", "E1")
	rec := httptest.NewRecorder()
	h.GetRecord(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[core.Record](t, rec)
	assert.Equal(t, core.RecordID("M1"), got.ParentID)

	req = features.RequestWithPathParam(httptest.NewRequest(http.MethodGet, "/api/records/nobody", nil), "id", "nobody")
	rec = httptest.NewRecorder()
	h.GetRecord(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

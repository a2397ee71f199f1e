package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/backlog/internal/store"
	"github.com/roach88/backlog/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(
		filepath.Join(t.TempDir(), "api.db"),
		store.WithClock(testutil.NewDeterministicClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	for _, e := range []store.Entry{
		{Who: store.Other("alice"), Where: "#go", Message: "hello gophers"},
		{Who: store.Own(), Where: "#go", Message: "hi alice"},
		{Who: store.Other("bob"), Where: "bob", Message: "psst", Type: "ACTION"},
	} {
		require.NoError(t, st.Append(ctx, e))
	}
	return st
}

func get(t *testing.T, h http.Handler, url string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w.Code, body
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer("", newTestStore(t), ServerConfig{Self: "me"})

	code, body := get(t, srv.Handler(), "/api/health")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["log_count"])
}

func TestSearchEndpoint(t *testing.T) {
	srv := NewServer("", newTestStore(t), ServerConfig{Self: "me"})

	code, body := get(t, srv.Handler(), "/api/search?q=where+%3D+%27%23go%27&self=nick")
	require.Equal(t, http.StatusOK, code)

	want := []any{
		map[string]any{"time": "2024-03-01T12:00:00Z", "who": "alice", "own": false, "where": "#go", "message": "hello gophers"},
		map[string]any{"time": "2024-03-01T12:00:01Z", "who": "nick", "own": true, "where": "#go", "message": "hi alice"},
	}
	if diff := cmp.Diff(want, body["rows"]); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, float64(2), body["row_count"])
	assert.NotContains(t, body, "sql")
}

func TestSearchEndpoint_Debug(t *testing.T) {
	srv := NewServer("", newTestStore(t), ServerConfig{Self: "me"})

	code, body := get(t, srv.Handler(), "/api/search?q=who+%3D+me&limit=1&debug=true")
	require.Equal(t, http.StatusOK, code)

	assert.Contains(t, body["sql"], `COALESCE("who", ?)`)
	assert.Equal(t, []any{"me", "me", float64(1)}, body["params"])
	assert.Equal(t, float64(1), body["row_count"])
}

func TestSearchEndpoint_GrammarErrors(t *testing.T) {
	srv := NewServer("", newTestStore(t), ServerConfig{Self: "me"})

	code, body := get(t, srv.Handler(), "/api/search?q=")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "empty", body["kind"])
	assert.Equal(t, "Invalid query: a search needs at least one condition", body["error"])

	code, body = get(t, srv.Handler(), "/api/search?q=who+%3D+alice+garbage")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "syntax", body["kind"])

	code, _ = get(t, srv.Handler(), "/api/search?q=who+%3D+alice&limit=0")
	assert.Equal(t, http.StatusBadRequest, code)
}

type failingStore struct {
	*store.Store
}

func (failingStore) Query(context.Context, string, ...any) (*store.Rows, error) {
	return nil, errors.New("no such function: frobnicate")
}

func TestSearchEndpoint_ExecError(t *testing.T) {
	srv := NewServer("", failingStore{newTestStore(t)}, ServerConfig{Self: "me"})

	code, body := get(t, srv.Handler(), "/api/search?q=type+%3D+ACTION")

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "exec", body["kind"])
	assert.Equal(t, "no such function: frobnicate", body["error"])
	assert.Contains(t, body["sql"], `"type" = ?`)
}

func TestBacklogEndpoint(t *testing.T) {
	srv := NewServer("", newTestStore(t), ServerConfig{Self: "me"})

	code, body := get(t, srv.Handler(), "/api/backlog?target=BOB")
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, "BOB", body["target"])
	rows := body["rows"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "ACTION", rows[0].(map[string]any)["type"])

	code, body = get(t, srv.Handler(), "/api/backlog?target=%23go&n=1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["row_count"])

	code, _ = get(t, srv.Handler(), "/api/backlog")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = get(t, srv.Handler(), "/api/backlog?target=%23go&n=abc")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSearchEndpoint_DefaultLimit(t *testing.T) {
	srv := NewServer("", newTestStore(t), ServerConfig{Self: "me", DefaultLimit: 1})

	code, body := get(t, srv.Handler(), "/api/search?q=message+~+h")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["row_count"])
}

func TestServer_StartStop(t *testing.T) {
	srv := NewServer("127.0.0.1:0", newTestStore(t), ServerConfig{Self: "me"})
	require.NoError(t, srv.Start())
	gin.SetMode(gin.TestMode)

	resp, err := http.Get("http://" + srv.Addr() + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NoError(t, srv.Stop())
}

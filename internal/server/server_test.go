package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kurobon/gitgraph/internal/config"
	"github.com/kurobon/gitgraph/internal/git"
	_ "github.com/kurobon/gitgraph/internal/git/commands"
	"github.com/kurobon/gitgraph/internal/gittest"
	"github.com/kurobon/gitgraph/internal/graph"
	"github.com/kurobon/gitgraph/internal/metrics"
)

func newTestServer(t *testing.T) (*Server, *gittest.Repo) {
	t.Helper()
	return newTestServerWith(t, func(*config.Config) {})
}

func newTestServerWith(t *testing.T, configure func(*config.Config)) (*Server, *gittest.Repo) {
	t.Helper()
	r := gittest.New(t)
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	configure(cfg)
	srv, err := New(r.Session, cfg, zap.NewNop(), metrics.New())
	require.NoError(t, err)
	return srv, r
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func refNames(l *graph.Layout) []string {
	names := make([]string, 0, len(l.Refs))
	for _, r := range l.Refs {
		names = append(names, r.Name)
	}
	return names
}

func TestPing(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", decodeBody[map[string]string](t, rec)["message"])
}

func TestGetGraph(t *testing.T) {
	srv, r := newTestServer(t)
	r.Commit("a.txt", "a", "first")
	c2 := r.Commit("a.txt", "b", "second")

	refreshed, err := srv.Refresh(context.Background())
	require.NoError(t, err)
	require.True(t, refreshed)

	rec := do(t, srv, http.MethodGet, "/api/graph", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	layout := decodeBody[graph.Layout](t, rec)
	assert.Len(t, layout.Nodes, 2)
	assert.Equal(t, c2.String(), layout.Head)
	assert.Equal(t, "master", layout.ActiveBranch)
	assert.Equal(t, c2.String(), layout.Nodes[0].Hash)
}

func TestRefresh_DropsOverlappingRequest(t *testing.T) {
	srv, r := newTestServer(t)
	r.Commit("a.txt", "a", "first")

	srv.refreshMu.Lock()
	refreshed, err := srv.Refresh(context.Background())
	srv.refreshMu.Unlock()

	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Empty(t, srv.Graph().Nodes())

	rec := do(t, srv, http.MethodPost, "/api/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[refreshResponse](t, rec)
	assert.True(t, resp.Refreshed)
	assert.Len(t, resp.Layout.Nodes, 1)
}

func TestCreateAndDeleteBranch(t *testing.T) {
	srv, r := newTestServer(t)
	c1 := r.Commit("a.txt", "a", "first")
	r.Commit("a.txt", "b", "second")

	rec := do(t, srv, http.MethodPost, "/api/branches", map[string]any{"name": "feature", "startPoint": c1.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[commandResponse](t, rec)
	assert.Contains(t, refNames(resp.Layout), "refs/heads/feature")
	assert.Equal(t, c1, r.Ref("refs/heads/feature"))

	rec = do(t, srv, http.MethodDelete, "/api/branches", map[string]any{"name": "feature", "force": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, r.HasRef("refs/heads/feature"))
}

func TestCreateBranch_Validation(t *testing.T) {
	srv, r := newTestServer(t)
	r.Commit("a.txt", "a", "first")

	tests := []struct {
		name  string
		body  any
		field string
	}{
		{"missing name", map[string]any{}, "name"},
		{"space in name", map[string]any{"name": "bad name"}, "name"},
		{"double dot", map[string]any{"name": "a..b"}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/branches", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeBody[errorResponse](t, rec)
			assert.Contains(t, resp.Fields, tt.field)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/branches", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTags(t *testing.T) {
	srv, r := newTestServer(t)
	r.Commit("a.txt", "a", "first")

	rec := do(t, srv, http.MethodPost, "/api/tags", map[string]any{"name": "v1", "message": "release"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, refNames(decodeBody[commandResponse](t, rec).Layout), "tag: refs/tags/v1")

	rec = do(t, srv, http.MethodPost, "/api/tags", map[string]any{"name": "v1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/tags", map[string]any{"name": "v1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, r.HasRef("refs/tags/v1"))
}

func TestCheckout(t *testing.T) {
	srv, r := newTestServer(t)
	r.Commit("a.txt", "a", "first")
	r.Checkout("feature", true)
	r.Checkout("master", false)

	rec := do(t, srv, http.MethodPost, "/api/checkout", map[string]any{"name": "feature"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "feature", decodeBody[commandResponse](t, rec).Layout.ActiveBranch)

	rec = do(t, srv, http.MethodPost, "/api/checkout", map[string]any{"name": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMoveRef(t *testing.T) {
	srv, r := newTestServer(t)
	c1 := r.Commit("a.txt", "a", "first")
	r.Checkout("feature", true)
	r.Checkout("master", false)
	c2 := r.Commit("a.txt", "b", "second")
	_, err := srv.Refresh(context.Background())
	require.NoError(t, err)

	rec := do(t, srv, http.MethodPost, "/api/refs/move", map[string]any{"ref": "refs/heads/feature", "to": c2.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, c2, r.Ref("refs/heads/feature"))

	// The checked-out branch moves with a hard reset.
	rec = do(t, srv, http.MethodPost, "/api/refs/move", map[string]any{"ref": "refs/heads/master", "to": c1.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, c1, r.Ref("refs/heads/master"))
	assert.Equal(t, c1.String(), decodeBody[commandResponse](t, rec).Layout.Head)

	rec = do(t, srv, http.MethodPost, "/api/refs/move", map[string]any{"ref": "refs/heads/ghost", "to": c1.String()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSyncActions(t *testing.T) {
	srv, r := newTestServer(t)
	remote := r.AddRemote("origin")
	r.Commit("a.txt", "a", "first")

	rec := do(t, srv, http.MethodPost, "/api/push", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	c2 := r.Commit("a.txt", "b", "second")
	_, err := srv.Refresh(context.Background())
	require.NoError(t, err)

	path := "/api/refs/" + url.PathEscape("refs/heads/master") + "/actions"
	rec = do(t, srv, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[actionsResponse](t, rec)
	assert.Equal(t, "refs/heads/master", resp.Ref)
	assert.Equal(t, graph.SyncActions{Push: true, Reset: true}, resp.Actions)

	rec = do(t, srv, http.MethodPost, "/api/refs/master/actions/rebase", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/refs/master/actions/squash", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/refs/master/actions/push", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ref, err := remote.Reference("refs/heads/master", true)
	require.NoError(t, err)
	assert.Equal(t, c2, ref.Hash())

	rec = do(t, srv, http.MethodGet, "/api/refs/master/actions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, graph.SyncActions{}, decodeBody[actionsResponse](t, rec).Actions)

	rec = do(t, srv, http.MethodGet, "/api/refs/ghost/actions", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPullAndRebase_Errors(t *testing.T) {
	srv, r := newTestServer(t)
	r.Commit("a.txt", "a", "first")

	rec := do(t, srv, http.MethodPost, "/api/pull", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/rebase", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/reset", map[string]any{"to": "HEAD", "mode": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, r := newTestServer(t)
	r.Commit("a.txt", "a", "first")
	do(t, srv, http.MethodPost, "/api/tags", map[string]any{"name": "v1"})

	rec := do(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `gitgraph_commands_total{command="tag",status="ok"} 1`)
	assert.Contains(t, body, `gitgraph_refreshes_total{status="ok"} 1`)
	assert.Contains(t, body, `route="/api/tags"`)
}

func TestListCommands(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/commands", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Subset(t, decodeBody[map[string][]string](t, rec)["commands"],
		[]string{"branch", "checkout", "fetch", "pull", "push", "rebase", "reset", "tag"})
}

func TestListRemotes(t *testing.T) {
	srv, r := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/remotes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decodeBody[remotesResponse](t, rec)
	assert.False(t, empty.HasRemotes)
	assert.Equal(t, "origin", empty.Default)
	assert.Empty(t, empty.Remotes)

	r.AddRemote("upstream")
	r.AddRemote("origin")

	rec = do(t, srv, http.MethodGet, "/api/remotes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[remotesResponse](t, rec)
	assert.True(t, resp.HasRemotes)
	assert.Equal(t, []git.RemoteInfo{
		{Name: "origin", URLs: []string{"mem://origin"}},
		{Name: "upstream", URLs: []string{"mem://upstream"}},
	}, resp.Remotes)
}

func TestDefaultRemote_DrivesCommandsNotPairing(t *testing.T) {
	srv, r := newTestServerWith(t, func(cfg *config.Config) { cfg.Remote = "upstream" })
	upstream := r.AddRemote("upstream")
	c1 := r.Commit("a.txt", "a", "first")

	rec := do(t, srv, http.MethodPost, "/api/push", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ref, err := upstream.Reference("refs/heads/master", true)
	require.NoError(t, err)
	assert.Equal(t, c1, ref.Hash())

	layout := decodeBody[commandResponse](t, rec).Layout
	assert.Contains(t, refNames(layout), "refs/remotes/upstream/master")
	for _, v := range layout.Refs {
		if v.Name == "refs/heads/master" {
			assert.Empty(t, v.RemoteRef, "only origin branches pair")
		}
	}

	rec = do(t, srv, http.MethodGet, "/api/remotes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "upstream", decodeBody[remotesResponse](t, rec).Default)
}

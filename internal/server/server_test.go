package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/edulint/internal/analyzer"
	"github.com/dshills/edulint/internal/catalog"
	"github.com/dshills/edulint/internal/diag"
	"github.com/dshills/edulint/internal/pattern"
	"github.com/dshills/edulint/internal/structural"
)

func newTestServer(t *testing.T, a analyzer.Analyzer) (*httptest.Server, *catalog.Catalog) {
	t.Helper()
	cat, err := catalog.Load("games")
	require.NoError(t, err)
	h := NewHandler(cat, structural.NewWith(a), pattern.Options{})
	srv := httptest.NewServer(NewMux(h))
	t.Cleanup(srv.Close)
	return srv, cat
}

func quiet() analyzer.Analyzer {
	return &analyzer.MockAnalyzer{Result: []any{}}
}

func TestHandleCatalog(t *testing.T) {
	srv, _ := newTestServer(t, quiet())

	resp, err := http.Get(srv.URL + "/api/catalog")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var view catalogView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "games", view.Name)
	assert.Len(t, view.Rules, 5)
	assert.Contains(t, view.PatternRules, "no-while")
	assert.Contains(t, view.Sample, "def game")
}

func put(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestHandleSetRule(t *testing.T) {
	srv, cat := newTestServer(t, quiet())

	resp := put(t, srv.URL+"/api/rules/memo", `{"enabled": false}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotContains(t, cat.EnabledIDs(), "memo")

	resp = put(t, srv.URL+"/api/rules/no-such-rule", `{"enabled": false}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Len(t, cat.EnabledIDs(), 4)

	resp = put(t, srv.URL+"/api/rules/memo", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = put(t, srv.URL+"/api/rules/memo", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func postRun(t *testing.T, url string, body any) runResponse {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url+"/api/run", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out runResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHandleRun(t *testing.T) {
	srv, _ := newTestServer(t, quiet())

	rules := `[{"pattern":"\\bwhile\\b","message":"M"}]`
	out := postRun(t, srv.URL, map[string]any{"text": "while x:\n  while y:\n", "pattern_rules": rules})
	require.Len(t, out.Result.Diagnostics, 2)
	assert.Equal(t, "2:3", out.Result.Diagnostics[1].Location)
	assert.Equal(t, diag.Counts{Warning: 2}, out.Result.Counts)
	require.Len(t, out.Markers, 2)
	assert.Equal(t, 8, out.Markers[1].EndColumn)
}

func TestHandleRunDefaultRules(t *testing.T) {
	srv, _ := newTestServer(t, quiet())

	out := postRun(t, srv.URL, map[string]any{"text": "while x:\n    s = set()\n"})
	require.Len(t, out.Result.Diagnostics, 2)
	assert.Equal(t, diag.SeverityWarning, out.Result.Diagnostics[0].Severity)
	assert.Equal(t, diag.SeverityInfo, out.Result.Diagnostics[1].Severity)
}

func TestHandleRunBadBody(t *testing.T) {
	srv, _ := newTestServer(t, quiet())
	resp, err := http.Post(srv.URL+"/api/run", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, quiet())
	resp, err := http.Get(srv.URL + "/api/run")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	first := readWS(t, conn)
	require.Equal(t, "catalog", first.Type)
	require.NotNil(t, first.Catalog)
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) wsOutbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out wsOutbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func sendWS(t *testing.T, conn *websocket.Conn, in map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(in))
}

func TestWSEditRunsLint(t *testing.T) {
	srv, _ := newTestServer(t, quiet())
	conn := dialWS(t, srv)

	sendWS(t, conn, map[string]any{"type": "edit", "text": "while True:\n    pass\n"})
	out := readWS(t, conn)
	require.Equal(t, "result", out.Type)
	assert.Equal(t, uint64(1), out.RunID)
	require.NotNil(t, out.Result)
	assert.Equal(t, uint64(1), out.Result.RunID)
	require.Len(t, out.Result.Diagnostics, 1)
	assert.Equal(t, "1:1", out.Result.Diagnostics[0].Location)
	assert.Len(t, out.Markers, 1)
}

func TestWSRulesAndToggle(t *testing.T) {
	mock := &analyzer.MockAnalyzer{Result: []any{}}
	srv, shared := newTestServer(t, mock)
	conn := dialWS(t, srv)

	sendWS(t, conn, map[string]any{"type": "rules", "pattern_rules": "{not json"})
	out := readWS(t, conn)
	require.Equal(t, "result", out.Type)
	require.Len(t, out.Result.Diagnostics, 1)
	assert.Equal(t, diag.LocationCustom, out.Result.Diagnostics[0].Location)

	sendWS(t, conn, map[string]any{"type": "toggle", "id": "memo"})
	rules := readWS(t, conn)
	require.Equal(t, "rules", rules.Type)
	for _, r := range rules.Rules {
		if r.ID == "memo" {
			assert.False(t, r.Enabled)
		}
	}
	out = readWS(t, conn)
	require.Equal(t, "result", out.Type)

	calls := mock.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].EnabledRules, "memo")
	assert.NotContains(t, calls[1].EnabledRules, "memo")

	// Session toggles do not touch the shared catalog.
	assert.Contains(t, shared.EnabledIDs(), "memo")
}

func TestWSErrors(t *testing.T) {
	srv, _ := newTestServer(t, quiet())
	conn := dialWS(t, srv)

	for _, in := range []map[string]any{
		{"type": ""},
		{"type": "edit"},
		{"type": "rules"},
		{"type": "explode"},
	} {
		sendWS(t, conn, in)
		out := readWS(t, conn)
		assert.Equal(t, "error", out.Type, "inbound %v", in)
		assert.Equal(t, "invalid_argument", out.Code)
	}

	sendWS(t, conn, map[string]any{"type": "ping"})
	assert.Equal(t, "pong", readWS(t, conn).Type)
}

func TestWSSample(t *testing.T) {
	srv, _ := newTestServer(t, quiet())
	conn := dialWS(t, srv)

	sendWS(t, conn, map[string]any{"type": "sample"})
	out := readWS(t, conn)
	require.Equal(t, "result", out.Type)
	assert.Empty(t, out.Result.Diagnostics)
}

func TestWSStaleResultDiscarded(t *testing.T) {
	gate := make(chan struct{})
	slow := analyzer.Func(func(ctx context.Context, src string, _ []string) (any, error) {
		if src == "slow" {
			select {
			case <-gate:
			case <-ctx.Done():
			}
		}
		return []any{map[string]any{"message": src, "severity": "info"}}, nil
	})
	srv, _ := newTestServer(t, slow)
	conn := dialWS(t, srv)

	sendWS(t, conn, map[string]any{"type": "edit", "text": "slow"})
	sendWS(t, conn, map[string]any{"type": "edit", "text": "fast"})

	out := readWS(t, conn)
	require.Equal(t, "result", out.Type)
	assert.Equal(t, uint64(2), out.RunID)
	assert.Equal(t, "fast", out.Result.Diagnostics[0].Message)

	close(gate)
	sendWS(t, conn, map[string]any{"type": "run"})

	out = readWS(t, conn)
	require.Equal(t, "result", out.Type)
	assert.Equal(t, uint64(3), out.RunID, "run 1 finished after run 2 was sent and must be dropped")
}

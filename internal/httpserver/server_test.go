package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/robalobadob/cubes/assets"
	"github.com/robalobadob/cubes/internal/config"
	"github.com/robalobadob/cubes/internal/game"
	"github.com/robalobadob/cubes/internal/runs"
	"github.com/robalobadob/cubes/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testSecret = "test-secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	rs, err := runs.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rs.Close() })

	cfg := config.Config{
		JWTSecret:    testSecret,
		TokenTTL:     time.Hour,
		ClientOrigin: "http://localhost:5173",
		Limits:       game.DefaultLimits(),
	}
	return New(store.NewMemoryStore(), rs, cfg)
}

func do(t *testing.T, s *Server, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func authHeader(t *testing.T, sub string) http.Header {
	t.Helper()
	tok, _, err := SignToken(testSecret, sub, time.Hour)
	require.NoError(t, err)
	return http.Header{"Authorization": {"Bearer " + tok}}
}

func exampleInput(t *testing.T) string {
	t.Helper()
	in, err := assets.Example()
	require.NoError(t, err)
	return in
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestParseAndFetchGame(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/games/parse", parseReq{Line: "Game 3: 8 green, 6 blue, 20 red; 5 blue, 4 red, 13 green"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"id": 3,
		"pulls": [
			[{"count":8,"color":"green"},{"count":6,"color":"blue"},{"count":20,"color":"red"}],
			[{"count":5,"color":"blue"},{"count":4,"color":"red"},{"count":13,"color":"green"}]
		],
		"line": "Game 3: 8 green, 6 blue, 20 red; 5 blue, 4 red, 13 green",
		"possible": false,
		"minimum": {"red":20,"green":13,"blue":6},
		"power": "1560"
	}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/games/3", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[gameRes](t, rec)
	assert.EqualValues(t, 3, got.ID)
	assert.Len(t, got.Pulls, 2)

	rec = do(t, s, http.MethodGet, "/games", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]gameRes](t, rec), 1)

	rec = do(t, s, http.MethodGet, "/games/4", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/games/x", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParse_Failure(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/games/parse", parseReq{Line: "Game 1: 3 red, 4"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"parse_failed","kind":"malformed pair","offset":16}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/games/parse", map[string]any{"line": 5}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheck(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/check", checkReq{Input: exampleInput(t)}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]any](t, rec)
	assert.EqualValues(t, 8, got["idSum"])
	assert.EqualValues(t, 2286, got["powerSum"])
	assert.EqualValues(t, 3, got["possible"])

	rec = do(t, s, http.MethodPost, "/check", checkReq{Input: exampleInput(t), Limits: &game.Limits{Red: 100, Green: 100, Blue: 100}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 15, decode[map[string]any](t, rec)["idSum"])
}

func TestCheck_ParseFailure(t *testing.T) {
	s := newTestServer(t)
	in := "Game 1: 1 red\nGame 2: 1 red extra\n"

	rec := do(t, s, http.MethodPost, "/check", checkReq{Input: in}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"parse_failed","kind":"trailing input","offset":13,"line":2}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/check", checkReq{Input: in, SkipInvalid: true}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, got["idSum"])
	assert.Len(t, got["failures"], 1)
}

func TestCheck_LineTooLong(t *testing.T) {
	s := newTestServer(t)
	in := "Game 1: 1 red\nGame 2: " + strings.Repeat("1 red, ", 200_000) + "1 red\n"

	rec := do(t, s, http.MethodPost, "/check", checkReq{Input: in}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Equal(t, "line_too_long", got["error"])
	assert.EqualValues(t, 2, got["line"])
}

func TestRuns_RequireAuth(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/runs", checkReq{Input: exampleInput(t)}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/runs", checkReq{Input: exampleInput(t)}, http.Header{"Authorization": {"Bearer nope"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	bad, _, err := SignToken("other-secret", "mallory", time.Hour)
	require.NoError(t, err)
	rec = do(t, s, http.MethodPost, "/runs", checkReq{Input: exampleInput(t)}, http.Header{"Authorization": {"Bearer " + bad}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, _, err := SignToken(testSecret, "alice", -time.Minute)
	require.NoError(t, err)
	rec = do(t, s, http.MethodPost, "/runs", checkReq{Input: exampleInput(t)}, http.Header{"Authorization": {"Bearer " + expired}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRuns_CreateListGet(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/runs", checkReq{Input: exampleInput(t), Source: "sample"}, authHeader(t, "alice"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[createRunRes](t, rec)
	assert.Positive(t, created.ID)
	assert.EqualValues(t, 8, created.Report.IDSum)

	rec = do(t, s, http.MethodGet, "/runs", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]runs.Record](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Owner)
	assert.Equal(t, "sample", list[0].Source)
	assert.Equal(t, "2286", list[0].PowerSum)

	rec = do(t, s, http.MethodGet, "/runs/"+strconv.FormatInt(created.ID, 10), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[runs.Record](t, rec).ID)

	rec = do(t, s, http.MethodGet, "/runs/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/runs?limit=0", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFoundAndPreflight(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found"}`, rec.Body.String())

	rec = do(t, s, http.MethodOptions, "/check", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSignToken_EmptySubject(t *testing.T) {
	_, _, err := SignToken(testSecret, "", time.Hour)
	assert.Error(t, err)
}

func TestVerifyToken(t *testing.T) {
	tok, exp, err := SignToken(testSecret, "bob", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	sub, err := verifyToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "bob", sub)
}

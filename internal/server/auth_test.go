package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, token string) *Server {
	t.Helper()
	return &Server{
		log: zap.NewNop(),
		cfg: Config{APIToken: token, ShowDocs: true, APITitle: "test"},
	}
}

func TestHealthRequiresNoAuth(t *testing.T) {
	s := newTestEngine(t, "secret")
	engine := s.newEngine()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "expected 200 from /health")
}

func TestProtectedRouteRejectsMissingBearerToken(t *testing.T) {
	s := newTestEngine(t, "secret")
	engine := s.newEngine()

	req := httptest.NewRequest(http.MethodPost, "/identify", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code, "expected 401 without an Authorization header")
}

func TestProtectedRouteRejectsWrongBearerToken(t *testing.T) {
	s := newTestEngine(t, "secret")
	engine := s.newEngine()

	req := httptest.NewRequest(http.MethodPost, "/identify", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code, "expected 401 with a wrong bearer token")
}

func TestOpenAPIServedOnlyWhenShowDocsEnabled(t *testing.T) {
	shown := newTestEngine(t, "secret")
	engine := shown.newEngine()
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code, "expected /openapi.json to be served when ShowDocs is true")

	hidden := newTestEngine(t, "secret")
	hidden.cfg.ShowDocs = false
	engineHidden := hidden.newEngine()
	recHidden := httptest.NewRecorder()
	engineHidden.ServeHTTP(recHidden, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	require.Equal(t, http.StatusNotFound, recHidden.Code, "expected /openapi.json to be absent when ShowDocs is false")
}

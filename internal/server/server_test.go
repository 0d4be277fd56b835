package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"funding_digest/internal/logger"
	"funding_digest/internal/models"
	"funding_digest/internal/server"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Silence()
	os.Exit(m.Run())
}

type fakeStore struct {
	records  []models.Record
	err      error
	pingErr  error
	gotLimit int
}

func (f *fakeStore) LatestRecords(_ context.Context, limit int) ([]models.Record, error) {
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func newStore() *fakeStore {
	return &fakeStore{records: []models.Record{
		{CompanyName: "Acme", Round: models.SeriesA, Coverage: 2, Tags: []string{"Fintech"},
			Amount:  &models.Amount{Symbol: "€", Value: 5, Unit: models.Million},
			Article: models.RawArticle{Title: "Acme secures €5M Series A", Source: "Breakit"}},
		{CompanyName: "Beta", Coverage: 1, Tags: []string{},
			Article: models.RawArticle{Title: "Beta raises", Source: "Sifted"}},
	}}
}

func TestGetDigest(t *testing.T) {
	store := newStore()
	handler := server.NewServer(store).Routes()

	t.Run("valid request", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/digest/1", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))
		require.NotEmpty(t, w.Header().Get(server.RequestIDHeader))

		var got []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1)
		require.Equal(t, "Acme", got[0]["company"])
		require.Equal(t, "Series A", got[0]["round"])
		require.EqualValues(t, 2, got[0]["coverage"])
	})

	t.Run("limit is clamped", func(t *testing.T) {
		for path, want := range map[string]int{
			"/api/digest/abc": 10,
			"/api/digest/0":   10,
			"/api/digest/500": 100,
			"/api/digest":     10,
			"/api/digest/25":  25,
		} {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
			require.Equal(t, http.StatusOK, w.Code, path)
			require.Equal(t, want, store.gotLimit, path)
		}
	})

	t.Run("round none is null", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/digest/2", nil))
		var got []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 2)
		require.Nil(t, got[1]["round"])
		require.NotContains(t, got[1], "amount")
	})

	t.Run("request id is echoed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/digest/1", nil)
		req.Header.Set(server.RequestIDHeader, "abc123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		require.Equal(t, "abc123", w.Header().Get(server.RequestIDHeader))
	})
}

func TestGetDigest_EmptyArchive(t *testing.T) {
	handler := server.NewServer(&fakeStore{}).Routes()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/digest/5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[]", w.Body.String())
}

func TestGetDigest_StoreError(t *testing.T) {
	handler := server.NewServer(&fakeStore{err: errors.New("db down")}).Routes()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/digest/5", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "db down")
}

func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	server.NewServer(newStore()).Routes().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())

	w = httptest.NewRecorder()
	server.NewServer(&fakeStore{pingErr: errors.New("down")}).Routes().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	server.NewServer(newStore()).Routes().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "go_goroutines")
}

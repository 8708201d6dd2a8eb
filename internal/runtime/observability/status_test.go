package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/brokercore/internal/runtime/broker"
	"github.com/drblury/brokercore/internal/runtime/jsoncodec"
)

func TestStatusHandlerReturnsSnapshot(t *testing.T) {
	b, _ := newTree(t)
	require.NoError(t, b.Start())

	rec := httptest.NewRecorder()
	StatusHandler(b, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, StatusPath, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	var snap broker.BrokerSnapshot
	require.NoError(t, jsoncodec.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, b.ID(), snap.ID)
	assert.True(t, snap.Started)
	require.Len(t, snap.Services, 1)
}

func TestStatusHandlerCORS(t *testing.T) {
	b, _ := newTree(t)

	t.Run("wildcard", func(t *testing.T) {
		rec := httptest.NewRecorder()
		StatusHandler(b, []string{"*"}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, StatusPath, nil))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("listed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, StatusPath, nil)
		req.Header.Set("Origin", "https://ops.example.com")
		rec := httptest.NewRecorder()
		StatusHandler(b, []string{"https://OPS.example.com"}, nil).ServeHTTP(rec, req)
		assert.Equal(t, "https://ops.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unlisted origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, StatusPath, nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		StatusHandler(b, []string{"https://ops.example.com"}, nil).ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		StatusHandler(b, []string{"*"}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, StatusPath, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Zero(t, rec.Body.Len())
	})
}

func TestStatusHandlerRejectsWrites(t *testing.T) {
	b, _ := newTree(t)
	rec := httptest.NewRecorder()
	StatusHandler(b, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, StatusPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Allow"))
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-etl/internal/store"
	"github.com/i474232898/weather-etl/internal/weather"
)

func newApp(runs ...weather.RunSummary) *fiber.App {
	app := fiber.New()
	memStore := store.NewMemoryStore(10, 0)
	for _, r := range runs {
		memStore.SaveRun(r)
	}
	RegisterRoutes(app, memStore)
	return app
}

func TestLatestRunNotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil)
	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLatestRun(t *testing.T) {
	started := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	app := newApp(
		weather.RunSummary{RunID: "first", StartedAt: started},
		weather.RunSummary{RunID: "second", StartedAt: started.Add(15 * time.Minute), Loaded: 2, Errors: 1},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got weather.RunSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "second", got.RunID)
	assert.Equal(t, 2, got.Loaded)
	assert.Equal(t, 1, got.Errors)
}

// TestRunHistoryValidation verifies that the history endpoint rejects missing,
// malformed and inverted ranges.
func TestRunHistoryValidation(t *testing.T) {
	app := newApp()

	for _, target := range []string{
		"/api/v1/runs",
		"/api/v1/runs?from=yesterday&to=today",
		"/api/v1/runs?from=2024-03-02T00:00:00Z&to=2024-03-01T00:00:00Z",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
	}
}

func TestRunHistory(t *testing.T) {
	started := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	app := newApp(
		weather.RunSummary{RunID: "a", StartedAt: started},
		weather.RunSummary{RunID: "b", StartedAt: started.Add(time.Hour)},
	)

	from := strconv.FormatInt(started.Add(-time.Minute).Unix(), 10)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs?from="+from+"&to=2024-03-01T12:30:00Z", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Runs []weather.RunSummary `json:"runs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "a", body.Runs[0].RunID)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/runs?from=2025-01-01T00:00:00Z&to=2025-01-02T00:00:00Z", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

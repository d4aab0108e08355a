package statusapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sma-lab/smactl/internal/dataset"
	"github.com/sma-lab/smactl/internal/metrics"
	"github.com/sma-lab/smactl/internal/statusapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	tracker := dataset.NewTracker()
	m := metrics.New()
	handler := statusapi.NewHandler(tracker, m)

	server := httptest.NewServer(handler)
	defer server.Close()

	t.Run("Healthz", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Progress", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/progress")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var snap dataset.Snapshot
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
		assert.Equal(t, 0, snap.Total)
	})

	t.Run("Metrics", func(t *testing.T) {
		m.RangesCompleted.Inc()

		resp, err := http.Get(server.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

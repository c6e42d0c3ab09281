package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tola/internal/adapters/metrics"
)

func TestRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	r := metrics.NewRecorder(reg)

	r.ObserveJob("content", "succeeded", 120*time.Millisecond)
	r.ObserveJob("content", "failed", 80*time.Millisecond)
	r.ObserveJob("asset", "succeeded", time.Millisecond)
	r.ObserveSubmit(300*time.Millisecond, 3)
	r.IncCache(true)
	r.IncCache(true)
	r.IncCache(false)
	r.IncShared()
	r.IncRetry()

	count, err := testutil.GatherAndCount(reg, "tola_jobs_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 7)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL) //nolint:noctx // Test server
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // Test cleanup
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `tola_content_cache_lookups_total{result="hit"} 2`)
	assert.Contains(t, string(body), "tola_job_retries_total 1")
}

func TestRecorder_NilIsSafe(t *testing.T) {
	var r *metrics.Recorder
	assert.NotPanics(t, func() {
		r.ObserveJob("content", "succeeded", time.Second)
		r.ObserveSubmit(time.Second, 1)
		r.IncCache(true)
		r.IncShared()
		r.IncRetry()
	})
}

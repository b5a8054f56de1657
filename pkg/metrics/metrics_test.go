package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordConversion(t *testing.T) {
	c := New()
	c.RecordConversion(Conversion{Duration: 300 * time.Millisecond, Links: 4, Meshes: 5, Warnings: 1})
	c.RecordConversion(Conversion{Err: errors.New("boom"), Duration: time.Second, Links: 99})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.conversionsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.conversionsTotal.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.links), "a failed run keeps the last model size")
	assert.Equal(t, 5.0, testutil.ToFloat64(c.meshes))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.warnings))
	assert.Equal(t, 1, testutil.CollectAndCount(c.conversionDuration))
}

func TestCacheCounters(t *testing.T) {
	c := New()
	c.RecordCacheMiss("mesh")
	c.RecordCacheHit("mesh")
	c.RecordCacheHit("mesh")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheHits.WithLabelValues("mesh")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheMisses.WithLabelValues("mesh")))
}

func TestConcurrentRecording(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordCacheHit("mesh")
		}()
	}
	wg.Wait()
	assert.Equal(t, 16.0, testutil.ToFloat64(c.cacheHits.WithLabelValues("mesh")))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordCacheHit("mesh")
	assert.Equal(t, 0, testutil.CollectAndCount(b.cacheHits))
}

func TestWriteFile(t *testing.T) {
	c := New()
	c.RecordConversion(Conversion{Duration: time.Second, Links: 3})
	path := filepath.Join(t.TempDir(), "linkage.prom")
	require.NoError(t, c.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `linkage_conversions_total{result="ok"} 1`)
	assert.Contains(t, out, "linkage_links 3")
	assert.Contains(t, out, "# HELP linkage_conversion_duration_seconds")
}

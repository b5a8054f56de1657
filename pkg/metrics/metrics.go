// Package metrics collects conversion metrics in a Prometheus registry and
// writes them in the text exposition format, for node exporter's textfile
// collector or for inspection.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "linkage"

// Collector holds the conversion metrics. It is safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	conversionsTotal   *prometheus.CounterVec
	conversionDuration prometheus.Histogram

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	links    prometheus.Gauge
	meshes   prometheus.Gauge
	warnings prometheus.Gauge
}

// New creates a Collector with its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		conversionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "conversions_total",
				Help:      "Total number of conversions by result.",
			},
			[]string{"result"},
		),
		conversionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Conversion duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		cacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits.",
			},
			[]string{"cache_type"},
		),
		cacheMisses: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses.",
			},
			[]string{"cache_type"},
		),
		links: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "links",
			Help:      "Links in the last converted model.",
		}),
		meshes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "meshes",
			Help:      "Meshes written by the last conversion.",
		}),
		warnings: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "warnings",
			Help:      "Warnings raised by the last conversion.",
		}),
	}
}

// Registry returns the registry the metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Conversion describes a finished conversion.
type Conversion struct {
	Err      error
	Duration time.Duration
	Links    int
	Meshes   int
	Warnings int
}

// RecordConversion records one conversion. Model sizes are only updated
// for successful runs.
func (c *Collector) RecordConversion(conv Conversion) {
	result := "ok"
	if conv.Err != nil {
		result = "error"
	}
	c.conversionsTotal.WithLabelValues(result).Inc()
	c.conversionDuration.Observe(conv.Duration.Seconds())
	if conv.Err != nil {
		return
	}
	c.links.Set(float64(conv.Links))
	c.meshes.Set(float64(conv.Meshes))
	c.warnings.Set(float64(conv.Warnings))
}

// RecordCacheHit counts a cache hit.
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss counts a cache miss.
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// WriteFile writes every metric to path in the text exposition format. The
// file is replaced atomically.
func (c *Collector) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

package imagecache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace is the metric namespace used when none is provided.
const DefaultNamespace = "imagecache"

// Collector exposes a Cache's metrics as Prometheus metrics. It implements
// prometheus.Collector; registration stays with the caller:
//
//	prometheus.MustRegister(imagecache.NewCollector(cache, "myapp"))
type Collector struct {
	cache *Cache

	usageBytes       *prometheus.Desc
	capacityBytes    *prometheus.Desc
	purgeTargetBytes *prometheus.Desc
	entries          *prometheus.Desc
	hits             *prometheus.Desc
	misses           *prometheus.Desc
	evictions        *prometheus.Desc
	evictedBytes     *prometheus.Desc
	purges           *prometheus.Desc
}

// NewCollector creates a Prometheus collector for the given cache. Metrics
// are prefixed with the namespace; an empty namespace falls back to
// DefaultNamespace.
func NewCollector(cache *Cache, namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Collector{
		cache: cache,
		usageBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "usage_bytes"),
			"Current estimated memory usage of cached images in bytes",
			nil, nil,
		),
		capacityBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "capacity_bytes"),
			"Configured memory ceiling in bytes",
			nil, nil,
		),
		purgeTargetBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "purge_target_bytes"),
			"Configured usage floor a purge pass reduces the cache to",
			nil, nil,
		),
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "entries"),
			"Current number of cached images",
			nil, nil,
		),
		hits: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "hits_total"),
			"Total number of cache hits",
			nil, nil,
		),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "misses_total"),
			"Total number of cache misses",
			nil, nil,
		),
		evictions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "evictions_total"),
			"Total number of entries removed by purge passes",
			nil, nil,
		),
		evictedBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "evicted_bytes_total"),
			"Total bytes freed by purge passes",
			nil, nil,
		),
		purges: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "purges_total"),
			"Total number of purge passes",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.usageBytes
	ch <- c.capacityBytes
	ch <- c.purgeTargetBytes
	ch <- c.entries
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.evictedBytes
	ch <- c.purges
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.cache.Stats()
	snapshot := c.cache.Metrics().Snapshot()

	ch <- prometheus.MustNewConstMetric(
		c.usageBytes, prometheus.GaugeValue, float64(stats.UsageBytes))
	ch <- prometheus.MustNewConstMetric(
		c.capacityBytes, prometheus.GaugeValue, float64(stats.CapacityBytes))
	ch <- prometheus.MustNewConstMetric(
		c.purgeTargetBytes, prometheus.GaugeValue, float64(stats.PurgeTargetBytes))
	ch <- prometheus.MustNewConstMetric(
		c.entries, prometheus.GaugeValue, float64(stats.Entries))
	ch <- prometheus.MustNewConstMetric(
		c.hits, prometheus.CounterValue, float64(snapshot.Hits))
	ch <- prometheus.MustNewConstMetric(
		c.misses, prometheus.CounterValue, float64(snapshot.Misses))
	ch <- prometheus.MustNewConstMetric(
		c.evictions, prometheus.CounterValue, float64(snapshot.Evictions))
	ch <- prometheus.MustNewConstMetric(
		c.evictedBytes, prometheus.CounterValue, float64(snapshot.EvictedBytes))
	ch <- prometheus.MustNewConstMetric(
		c.purges, prometheus.CounterValue, float64(snapshot.Purges))
}

package redis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type poolStatser interface {
	PoolStats() *redis.PoolStats
}

// poolCollector reads go-redis pool statistics at scrape time.
type poolCollector struct {
	pool poolStatser

	totalConns *prometheus.Desc
	idleConns  *prometheus.Desc
	hits       *prometheus.Desc
	misses     *prometheus.Desc
	timeouts   *prometheus.Desc
}

func newPoolCollector(pool poolStatser) *poolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("didgate_redis_pool_"+name, help, nil, nil)
	}
	return &poolCollector{
		pool:       pool,
		totalConns: desc("total_connections", "Connections currently in the pool"),
		idleConns:  desc("idle_connections", "Idle connections in the pool"),
		hits:       desc("hits_total", "Times a free connection was found in the pool"),
		misses:     desc("misses_total", "Times no free connection was found in the pool"),
		timeouts:   desc("timeouts_total", "Times a wait for a connection timed out"),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalConns
	ch <- c.idleConns
	ch <- c.hits
	ch <- c.misses
	ch <- c.timeouts
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.PoolStats()
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(s.TotalConns))
	ch <- prometheus.MustNewConstMetric(c.idleConns, prometheus.GaugeValue, float64(s.IdleConns))
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.timeouts, prometheus.CounterValue, float64(s.Timeouts))
}

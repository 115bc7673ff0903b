package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolSnapshot is a point-in-time view of connection pool counters.
type PoolSnapshot struct {
	Acquired        int32
	Idle            int32
	Total           int32
	Max             int32
	AcquireCount    int64
	AcquireSeconds  float64
	EmptyAcquires   int64
	CanceledAcquire int64
}

// SnapshotPool reads the current statistics of a pgx pool.
func SnapshotPool(pool *pgxpool.Pool) PoolSnapshot {
	s := pool.Stat()
	return PoolSnapshot{
		Acquired:        s.AcquiredConns(),
		Idle:            s.IdleConns(),
		Total:           s.TotalConns(),
		Max:             s.MaxConns(),
		AcquireCount:    s.AcquireCount(),
		AcquireSeconds:  s.AcquireDuration().Seconds(),
		EmptyAcquires:   s.EmptyAcquireCount(),
		CanceledAcquire: s.CanceledAcquireCount(),
	}
}

type poolMetric struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(PoolSnapshot) float64
}

// PoolCollector exports pool statistics as Prometheus metrics labelled by
// service.
type PoolCollector struct {
	service  string
	snapshot func() PoolSnapshot
	metrics  []poolMetric
}

// NewPoolCollector builds a collector that calls snapshot on every scrape.
func NewPoolCollector(service string, snapshot func() PoolSnapshot) *PoolCollector {
	gauge := func(name, help string, fn func(PoolSnapshot) float64) poolMetric {
		return poolMetric{prometheus.NewDesc(name, help, []string{"service"}, nil), prometheus.GaugeValue, fn}
	}
	counter := func(name, help string, fn func(PoolSnapshot) float64) poolMetric {
		return poolMetric{prometheus.NewDesc(name, help, []string{"service"}, nil), prometheus.CounterValue, fn}
	}

	return &PoolCollector{
		service:  service,
		snapshot: snapshot,
		metrics: []poolMetric{
			gauge("db_pool_acquired_connections", "Connections currently checked out.",
				func(s PoolSnapshot) float64 { return float64(s.Acquired) }),
			gauge("db_pool_idle_connections", "Connections currently idle.",
				func(s PoolSnapshot) float64 { return float64(s.Idle) }),
			gauge("db_pool_total_connections", "Connections currently open.",
				func(s PoolSnapshot) float64 { return float64(s.Total) }),
			gauge("db_pool_max_connections", "Configured connection limit.",
				func(s PoolSnapshot) float64 { return float64(s.Max) }),
			counter("db_pool_acquire_count_total", "Successful connection acquires.",
				func(s PoolSnapshot) float64 { return float64(s.AcquireCount) }),
			counter("db_pool_acquire_duration_seconds_total", "Time spent waiting to acquire connections.",
				func(s PoolSnapshot) float64 { return s.AcquireSeconds }),
			counter("db_pool_empty_acquire_count_total", "Acquires that waited for a free connection.",
				func(s PoolSnapshot) float64 { return float64(s.EmptyAcquires) }),
			counter("db_pool_canceled_acquire_count_total", "Acquires canceled by their context.",
				func(s PoolSnapshot) float64 { return float64(s.CanceledAcquire) }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.snapshot()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(snap), c.service)
	}
}

// RegisterPoolMetrics registers a collector for pool on reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool, service string) error {
	return reg.Register(NewPoolCollector(service, func() PoolSnapshot { return SnapshotPool(pool) }))
}

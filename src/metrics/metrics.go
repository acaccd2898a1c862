package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tick results
const (
	TickLive         = "live"
	TickClosed       = "closed"
	TickDisconnected = "disconnected"
	TickFailed       = "failed"
)

// Push kinds
const (
	PushLive    = "live"
	PushClosed  = "closed"
	PushInitial = "initial"
)

var (
	ActivePollers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "candle_feed_active_pollers",
		Help: "Instrument pollers currently running",
	})
	ActiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "candle_feed_active_subscribers",
		Help: "Subscribers currently registered",
	})

	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "candle_feed_ticks_total",
		Help: "Poller ticks, partitioned by outcome",
	}, []string{"result"})

	PushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "candle_feed_pushes_total",
		Help: "Candle events written to push channels",
	}, []string{"kind"})
	PushFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "candle_feed_push_failures_total",
		Help: "Push channel writes that failed",
	})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "candle_feed_upstream_latency_seconds",
		Help:    "Latency of upstream quote calls",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 11), // 5ms -> ~5s
	}, []string{"provider"})
)

func OnTick(result string) {
	TicksTotal.WithLabelValues(result).Inc()
}

func OnPush(kind string, err error) {
	if err != nil {
		PushFailuresTotal.Inc()
		return
	}
	PushesTotal.WithLabelValues(kind).Inc()
}

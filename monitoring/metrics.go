package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	probeResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_probe_results_total",
			Help: "Playlist probe outcomes",
		},
		[]string{"result"},
	)

	probeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playlist_probe_duration_seconds",
			Help:    "Duration of playlist probes",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)

	checkRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_checks_total",
			Help: "Availability check requests by resulting state",
		},
		[]string{"state", "available"},
	)

	streamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_requests_total",
			Help: "Stream access requests by outcome",
		},
		[]string{"outcome"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Payment webhook deliveries by result",
		},
		[]string{"result"},
	)

	activeViewers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "active_viewers_total",
			Help: "Current polling viewers per concert",
		},
		[]string{"concert_id"},
	)
)

// TrackProbe records one playlist probe.
func TrackProbe(live bool, duration time.Duration) {
	result := "unavailable"
	if live {
		result = "live"
	}
	probeResults.WithLabelValues(result).Inc()
	probeDuration.Observe(duration.Seconds())
}

// TrackCheck records an availability check.
func TrackCheck(state string, available bool) {
	a := "false"
	if available {
		a = "true"
	}
	checkRequests.WithLabelValues(state, a).Inc()
}

// TrackStreamRequest records a stream access request outcome
// (allowed, purchase_required, authentication_required, not_found,
// window_closed, unconfigured).
func TrackStreamRequest(outcome string) {
	streamRequests.WithLabelValues(outcome).Inc()
}

// TrackWebhook records a webhook delivery result.
func TrackWebhook(result string) {
	webhookEvents.WithLabelValues(result).Inc()
}

// Monitor periodically exports viewer presence from redis.
type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.collectViewerMetrics(context.Background())
	}
}

func (m *Monitor) collectViewerMetrics(ctx context.Context) {
	if m.redis == nil {
		return
	}

	keys, _ := m.redis.Keys(ctx, "viewers:*").Result()
	for _, key := range keys {
		concertID := key[len("viewers:"):]
		count, _ := m.redis.ZCard(ctx, key).Result()
		activeViewers.WithLabelValues(concertID).Set(float64(count))
	}
}

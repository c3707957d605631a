package monitoring

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"event-management/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	eventOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_operations_total",
			Help: "Total event write operations",
		},
		[]string{"operation", "outcome"},
	)

	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total login attempts by result",
		},
		[]string{"result"},
	)

	uploadBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_bytes_total",
			Help: "Total bytes accepted by the upload endpoint",
		},
		[]string{"mime_type"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	eventsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "events_total",
			Help: "Current number of events per status and visibility",
		},
		[]string{"status", "published"},
	)

	registrationsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_registrations_total",
			Help: "Current number of event registrations",
		},
	)

	redisUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "redis_up",
			Help: "Whether the last Redis ping succeeded",
		},
	)
)

// Outcome labels an operation result for the counters.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	return "error"
}

// TrackEventOperation counts an event create, update or delete.
func TrackEventOperation(operation string, err error) {
	eventOperations.WithLabelValues(operation, Outcome(err)).Inc()
}

func TrackLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

func TrackUpload(mimeType string, size int64) {
	uploadBytes.WithLabelValues(mimeType).Add(float64(size))
}

// RequestMetrics is a router middleware observing request duration per matched route.
func RequestMetrics(e *core.RequestEvent) error {
	start := time.Now()

	err := e.Next()

	code := e.Status()
	var apiErr *router.ApiError
	if errors.As(err, &apiErr) {
		code = apiErr.Status
	} else if err != nil && code == 0 {
		code = 500
	}
	if code == 0 {
		code = 200
	}

	route := e.Request.Pattern
	if route == "" {
		route = "unmatched"
	}

	requestDuration.WithLabelValues(e.Request.Method, route, strconv.Itoa(code)).
		Observe(time.Since(start).Seconds())

	return err
}

// Monitor periodically refreshes the gauges from the database and Redis.
type Monitor struct {
	app      core.App
	redis    *redis.Client
	interval time.Duration
}

func NewMonitor(app core.App, redisClient *redis.Client) *Monitor {
	return &Monitor{app: app, redis: redisClient, interval: 30 * time.Second}
}

// Start collects once and then on every tick until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.Collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

type eventCount struct {
	Status    string `db:"status"`
	Published bool   `db:"published"`
	Total     int64  `db:"total"`
}

func (m *Monitor) Collect(ctx context.Context) {
	var counts []eventCount
	err := m.app.DB().
		Select("status", "published", "COUNT(*) AS total").
		From(models.EventsCollection).
		GroupBy("status", "published").
		WithContext(ctx).
		All(&counts)
	if err != nil {
		slog.Error("Failed to collect event metrics", "error", err)
	} else {
		eventsGauge.Reset()
		for _, c := range counts {
			eventsGauge.WithLabelValues(c.Status, strconv.FormatBool(c.Published)).Set(float64(c.Total))
		}
	}

	var registrations int64
	err = m.app.DB().
		Select("COUNT(*)").
		From(models.RegistrationsCollection).
		WithContext(ctx).
		Row(&registrations)
	if err != nil {
		slog.Error("Failed to collect registration metrics", "error", err)
	} else {
		registrationsGauge.Set(float64(registrations))
	}

	if m.redis != nil {
		if err := m.redis.Ping(ctx).Err(); err != nil {
			redisUp.Set(0)
		} else {
			redisUp.Set(1)
		}
	}
}

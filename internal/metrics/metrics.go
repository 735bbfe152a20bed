package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	// DBQueriesTotal tracks the total number of database queries
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries executed",
		},
		[]string{"query_type", "table", "status"},
	)

	// DBQueryDuration tracks the duration of database queries
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query_type", "table"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of established connections both in use and idle",
		},
	)

	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_in_use",
			Help: "Number of connections currently in use",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle connections",
		},
	)
)

// Check cycle metrics
var (
	CheckCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snowwatch_check_cycles_total",
			Help: "Check cycles by result (completed, skipped)",
		},
		[]string{"result"},
	)

	CheckCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snowwatch_check_cycle_duration_seconds",
			Help:    "Duration of completed check cycles in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ForecastFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snowwatch_forecast_fetch_total",
			Help: "Forecast fetches per location by status",
		},
		[]string{"status"},
	)

	// NotificationsTotal counts alert candidates by outcome (delivered, failed, suppressed)
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snowwatch_notifications_total",
			Help: "Snow alert notifications by outcome",
		},
		[]string{"status"},
	)

	LocationSnowProbability = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snowwatch_location_snow_probability",
			Help: "Max effective snow probability over days 5-10 per location",
		},
		[]string{"location"},
	)

	// AppStartTime records when the application started
	AppStartTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snowwatch_app_start_time_seconds",
			Help: "Unix timestamp of when the application started",
		},
	)
)

func init() {
	AppStartTime.SetToCurrentTime()
}

// RecordDBQuery records a database query execution
func RecordDBQuery(queryType, table string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DBQueriesTotal.WithLabelValues(queryType, table, status).Inc()
	DBQueryDuration.WithLabelValues(queryType, table).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(open, inUse, idle int) {
	DBConnectionsOpen.Set(float64(open))
	DBConnectionsInUse.Set(float64(inUse))
	DBConnectionsIdle.Set(float64(idle))
}

func RecordFetch(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ForecastFetchTotal.WithLabelValues(status).Inc()
}

func RecordNotification(status string) {
	NotificationsTotal.WithLabelValues(status).Inc()
}

func RecordCycle(result string, duration time.Duration) {
	CheckCyclesTotal.WithLabelValues(result).Inc()
	if result == "completed" {
		CheckCycleDuration.Observe(duration.Seconds())
	}
}

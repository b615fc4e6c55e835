package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphummel/ict_assets/internal/models"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ict_assets_http_requests_total",
			Help: "Total number of HTTP requests by method, route, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ict_assets_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ict_assets_http_requests_in_flight",
		Help: "Current number of HTTP requests being processed.",
	})
)

// scrapeTimeout bounds the database queries run on each scrape.
const scrapeTimeout = 5 * time.Second

// InventoryDB is the subset of db.DB needed to collect inventory metrics.
type InventoryDB interface {
	CountAssetsByStatus(ctx context.Context) (map[models.AssetStatus]int, error)
	CountAssetsByType(ctx context.Context) (map[models.AssetType]int, error)
	CountPairs(ctx context.Context) (total, deployed int, err error)
	CountOpenTickets(ctx context.Context) (int, error)
}

// inventoryCollector is a custom Prometheus collector that queries the
// database on each scrape to report asset, pair and ticket counts.
type inventoryCollector struct {
	db          InventoryDB
	statusDesc  *prometheus.Desc
	typeDesc    *prometheus.Desc
	pairsDesc   *prometheus.Desc
	ticketsDesc *prometheus.Desc
}

// NewInventoryCollector returns a collector backed by db.
func NewInventoryCollector(db InventoryDB) prometheus.Collector {
	return &inventoryCollector{
		db: db,
		statusDesc: prometheus.NewDesc(
			"ict_assets_assets_by_status",
			"Number of assets, partitioned by status.",
			[]string{"status"},
			nil,
		),
		typeDesc: prometheus.NewDesc(
			"ict_assets_assets_by_type",
			"Number of assets, partitioned by asset type.",
			[]string{"type"},
			nil,
		),
		pairsDesc: prometheus.NewDesc(
			"ict_assets_pairs",
			"Number of asset pairs, partitioned by deployment.",
			[]string{"deployed"},
			nil,
		),
		ticketsDesc: prometheus.NewDesc(
			"ict_assets_open_tickets",
			"Number of maintenance tickets not yet resolved.",
			nil,
			nil,
		),
	}
}

func (c *inventoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.statusDesc
	ch <- c.typeDesc
	ch <- c.pairsDesc
	ch <- c.ticketsDesc
}

func (c *inventoryCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	if byStatus, err := c.db.CountAssetsByStatus(ctx); err != nil {
		ch <- prometheus.NewInvalidMetric(c.statusDesc, err)
	} else {
		for status, n := range byStatus {
			ch <- prometheus.MustNewConstMetric(c.statusDesc, prometheus.GaugeValue, float64(n), string(status))
		}
	}

	if byType, err := c.db.CountAssetsByType(ctx); err != nil {
		ch <- prometheus.NewInvalidMetric(c.typeDesc, err)
	} else {
		for typ, n := range byType {
			ch <- prometheus.MustNewConstMetric(c.typeDesc, prometheus.GaugeValue, float64(n), string(typ))
		}
	}

	if total, deployed, err := c.db.CountPairs(ctx); err != nil {
		ch <- prometheus.NewInvalidMetric(c.pairsDesc, err)
	} else {
		ch <- prometheus.MustNewConstMetric(c.pairsDesc, prometheus.GaugeValue, float64(deployed), "true")
		ch <- prometheus.MustNewConstMetric(c.pairsDesc, prometheus.GaugeValue, float64(total-deployed), "false")
	}

	if open, err := c.db.CountOpenTickets(ctx); err != nil {
		ch <- prometheus.NewInvalidMetric(c.ticketsDesc, err)
	} else {
		ch <- prometheus.MustNewConstMetric(c.ticketsDesc, prometheus.GaugeValue, float64(open))
	}
}

// Register registers all metrics with reg. Call once at startup after the
// database is initialised.
func Register(reg prometheus.Registerer, db InventoryDB) {
	reg.MustRegister(
		// Standard Go runtime and process metrics
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		// HTTP service metrics
		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,

		// Application metrics
		NewInventoryCollector(db),
	)
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// responseWriter wraps http.ResponseWriter to capture the response status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// routePath drops the method from a ServeMux pattern such as
// "GET /api/v1/assets/{id}"; the method has its own label.
func routePath(pattern string) string {
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return strings.TrimSpace(path)
	}
	return pattern
}

// Middleware wraps an http.Handler to record HTTP metrics.
// pattern is the ServeMux route pattern (e.g. "GET /api/v1/assets/{id}") so
// the path label has bounded cardinality.
func Middleware(pattern string, next http.Handler) http.Handler {
	path := routePath(pattern)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			httpRequestsInFlight.Dec()
			status := strconv.Itoa(rw.status)
			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(rw, r)
	})
}

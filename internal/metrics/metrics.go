package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keithlinneman/sitegate/internal/version"
)

type ServerMetrics struct {
	reg                    *prometheus.Registry
	handler                http.Handler
	inflight               prometheus.Gauge
	reqTotal               *prometheus.CounterVec
	reqDur                 *prometheus.HistogramVec
	respBytes              *prometheus.HistogramVec
	httpPanicTotal         prometheus.Counter
	buildInfo              *prometheus.GaugeVec
	ratelimitDeniedTotal   prometheus.Counter
	ratelimitCapacityTotal prometheus.Counter

	errorsTotal *prometheus.CounterVec

	profilingActive prometheus.Gauge

	// gateway metrics
	loginTotal          *prometheus.CounterVec
	sessionsIssuedTotal prometheus.Counter
	sessionsExpired     prometheus.Counter

	// admin metrics
	sitesPublishedTotal    prometheus.Counter
	sitesUpdatedTotal      prometheus.Counter
	sitesDeletedTotal      prometheus.Counter
	passwordsRotatedTotal  prometheus.Counter
	adminAuthFailuresTotal prometheus.Counter
	siteFilesStored        prometheus.Histogram
}

// New returns a fresh registry + standard collectors + HTTP metrics
// safe labels only (method, route, code) to avoid path/cardinality explosions
func New() *ServerMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &ServerMetrics{
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests",
		}),
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		}, []string{"method", "route", "status"}),
		reqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency by method and route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		respBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Response size by method and route",
			Buckets: []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216, 52428800},
		}, []string{"method", "route"}),
		httpPanicTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_panic_total",
			Help: "Total number of recovered httpserver panics",
		}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build metadata (value is always 1)",
		}, []string{"app", "component", "version", "commit", "commit_date", "build_id", "build_date", "vcs_dirty", "go_version"}),
		ratelimitDeniedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_requests_rate_limited_total",
			Help: "Total requests rejected by rate limiter",
		}),
		ratelimitCapacityTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_requests_rate_limited_capacity_total",
			Help: "Total number of times rate limiter capacity reached",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total 5xx HTTP server errors by method and route (SLI)",
		}, []string{"method", "route"}),
		profilingActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "profiling_active",
			Help: "Whether continuous profiling is active (1) or disabled/failed (0)",
		}),
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_login_attempts_total",
			Help: "Password form submissions by result (success or failure)",
		}, []string{"result"}),
		sessionsIssuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gate_sessions_issued_total",
			Help: "Total session cookies minted after successful logins",
		}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gate_sessions_expired_total",
			Help: "Total requests carrying an expired or invalid session cookie",
		}),
		sitesPublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "admin_sites_published_total",
			Help: "Total sites created through the admin API",
		}),
		sitesUpdatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "admin_sites_updated_total",
			Help: "Total site content updates through the admin API",
		}),
		sitesDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "admin_sites_deleted_total",
			Help: "Total sites deleted through the admin API",
		}),
		passwordsRotatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "admin_passwords_rotated_total",
			Help: "Total site password rotations through the admin API",
		}),
		adminAuthFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "admin_auth_failures_total",
			Help: "Total admin API requests rejected for missing or bad bearer tokens",
		}),
		siteFilesStored: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "admin_site_files_stored",
			Help:    "Number of files stored per publish or update",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}
	reg.MustRegister(
		m.inflight,
		m.reqTotal,
		m.reqDur,
		m.respBytes,
		m.httpPanicTotal,
		m.buildInfo,
		m.ratelimitDeniedTotal,
		m.ratelimitCapacityTotal,
		m.errorsTotal,
		m.profilingActive,
		m.loginTotal,
		m.sessionsIssuedTotal,
		m.sessionsExpired,
		m.sitesPublishedTotal,
		m.sitesUpdatedTotal,
		m.sitesDeletedTotal,
		m.passwordsRotatedTotal,
		m.adminAuthFailuresTotal,
		m.siteFilesStored,
	)

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	m.reg = reg
	return m
}

func (m *ServerMetrics) IncHttpPanic() {
	m.httpPanicTotal.Inc()
}

func (m *ServerMetrics) Handler() http.Handler {
	return m.handler
}

// set once at startup.
func (m *ServerMetrics) SetBuildInfoFromVersion(app, component string, vi *version.Info) {
	dirty := "unknown"
	if vi.VCSDirty != nil {
		dirty = strconv.FormatBool(*vi.VCSDirty)
	}
	m.buildInfo.With(prometheus.Labels{
		"app":         app,
		"component":   component,
		"version":     vi.Version,
		"commit":      vi.Commit,
		"commit_date": vi.CommitDate,
		"build_id":    vi.BuildId,
		"build_date":  vi.BuildDate,
		"go_version":  vi.GoVersion,
		"vcs_dirty":   dirty,
	}).Set(1)
}

func (m *ServerMetrics) IncRateLimitDenied() {
	m.ratelimitDeniedTotal.Inc()
}

func (m *ServerMetrics) IncRateLimitCapacity() {
	m.ratelimitCapacityTotal.Inc()
}

func (m *ServerMetrics) SetProfilingActive(active bool) {
	if active {
		m.profilingActive.Set(1)
	} else {
		m.profilingActive.Set(0)
	}
}

func (m *ServerMetrics) IncLoginSuccess() {
	m.loginTotal.WithLabelValues("success").Inc()
}

func (m *ServerMetrics) IncLoginFailure() {
	m.loginTotal.WithLabelValues("failure").Inc()
}

func (m *ServerMetrics) IncSessionIssued() {
	m.sessionsIssuedTotal.Inc()
}

func (m *ServerMetrics) IncSessionExpired() {
	m.sessionsExpired.Inc()
}

func (m *ServerMetrics) IncSitePublished() {
	m.sitesPublishedTotal.Inc()
}

func (m *ServerMetrics) IncSiteUpdated() {
	m.sitesUpdatedTotal.Inc()
}

func (m *ServerMetrics) IncSiteDeleted() {
	m.sitesDeletedTotal.Inc()
}

func (m *ServerMetrics) IncPasswordRotated() {
	m.passwordsRotatedTotal.Inc()
}

func (m *ServerMetrics) IncAdminAuthFailure() {
	m.adminAuthFailuresTotal.Inc()
}

func (m *ServerMetrics) ObserveSiteFilesStored(n int) {
	m.siteFilesStored.Observe(float64(n))
}

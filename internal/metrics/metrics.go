package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of one process. A nil *Metrics is valid
// and records nothing, so tests can skip it.
type Metrics struct {
	registry *prometheus.Registry

	articleViews    prometheus.Counter
	viewFailures    prometheus.Counter
	snapshotsPushed *prometheus.CounterVec
	toastsPosted    *prometheus.CounterVec
	signIns         *prometheus.CounterVec
	backups         *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		articleViews: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gazeta_article_views_total",
			Help: "Total number of article view increments committed.",
		}),
		viewFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gazeta_view_increment_failures_total",
			Help: "Total number of article view increments that failed.",
		}),
		snapshotsPushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gazeta_snapshots_pushed_total",
			Help: "Collection snapshots delivered to subscribers.",
		}, []string{"collection"}),
		toastsPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gazeta_toasts_posted_total",
			Help: "Admin notifications posted, by variant.",
		}, []string{"variant"}),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gazeta_signin_total",
			Help: "Admin sign-in attempts, by result.",
		}, []string{"result"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gazeta_backups_total",
			Help: "Store backups attempted, by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.articleViews,
		m.viewFailures,
		m.snapshotsPushed,
		m.toastsPosted,
		m.signIns,
		m.backups,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ArticleViewed() {
	if m == nil {
		return
	}
	m.articleViews.Inc()
}

func (m *Metrics) ViewIncrementFailed() {
	if m == nil {
		return
	}
	m.viewFailures.Inc()
}

func (m *Metrics) SnapshotPushed(collection string) {
	if m == nil {
		return
	}
	m.snapshotsPushed.WithLabelValues(collection).Inc()
}

func (m *Metrics) ToastPosted(variant string) {
	if m == nil {
		return
	}
	m.toastsPosted.WithLabelValues(variant).Inc()
}

func (m *Metrics) SignIn(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.signIns.WithLabelValues(result).Inc()
}

func (m *Metrics) Backup(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.backups.WithLabelValues(result).Inc()
}

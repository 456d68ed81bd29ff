package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Import row outcomes.
const (
	RowCreated = "created"
	RowUpdated = "updated"
	RowSkipped = "skipped"
)

// Metrics collects the counters of the contacts service. A nil *Metrics, or one built without
// a registerer, ignores every observation.
type Metrics struct {
	importRows          *prometheus.CounterVec
	inviteCollisions    prometheus.Counter
	documentsRendered   prometheus.Counter
	backgroundFallbacks prometheus.Counter
	requestDuration     *prometheus.HistogramVec
}

// New registers the service metrics on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surf_import_rows_total",
			Help: "Imported CSV rows by outcome.",
		}, []string{"result"}),
		inviteCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "surf_invite_code_collisions_total",
			Help: "Generated invite codes that were already taken.",
		}),
		documentsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "surf_welcome_documents_total",
			Help: "Rendered welcome documents.",
		}),
		backgroundFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "surf_welcome_background_fallbacks_total",
			Help: "Welcome documents rendered without their background image.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "surf_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.importRows, m.inviteCollisions, m.documentsRendered, m.backgroundFallbacks, m.requestDuration)
	return m
}

// IncImportRow counts one import row with the given outcome.
func (m *Metrics) IncImportRow(result string) {
	if m == nil || m.importRows == nil {
		return
	}
	m.importRows.WithLabelValues(result).Inc()
}

// IncInviteCollision counts one invite code candidate that was already taken.
func (m *Metrics) IncInviteCollision() {
	if m == nil || m.inviteCollisions == nil {
		return
	}
	m.inviteCollisions.Inc()
}

// IncDocumentRendered counts one welcome document.
func (m *Metrics) IncDocumentRendered() {
	if m == nil || m.documentsRendered == nil {
		return
	}
	m.documentsRendered.Inc()
}

// IncBackgroundFallback counts one welcome document that lost its background image.
func (m *Metrics) IncBackgroundFallback() {
	if m == nil || m.backgroundFallbacks == nil {
		return
	}
	m.backgroundFallbacks.Inc()
}

// ObserveRequest records the duration of an HTTP request. An empty route means no route matched.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

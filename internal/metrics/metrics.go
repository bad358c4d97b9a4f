package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RecordsSaved   *prometheus.CounterVec
	APIErrors      prometheus.Counter
	RequestSeconds *prometheus.HistogramVec
	HTTPRequests   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RecordsSaved: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geobiz_records_saved_total",
			Help: "Total number of save attempts by outcome.",
		}, []string{"status"}),
		APIErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "geobiz_reverse_geocoding_errors_total",
			Help: "Total number of errors received from the reverse geocoding provider.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geobiz_reverse_geocoding_duration_seconds",
			Help:    "Duration of requests to the reverse geocoding provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geobiz_http_requests_total",
			Help: "Total number of HTTP requests served by the intake form.",
		}, []string{"method", "route", "status"}),
	}
}

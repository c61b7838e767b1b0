package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_classifications_total",
			Help: "Total number of classification requests by outcome",
		},
		[]string{"status"},
	)

	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_predictions_total",
			Help: "Total number of successful predictions per class",
		},
		[]string{"class"},
	)

	ClassificationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "weather_classification_duration_seconds",
			Help:    "Time from preprocessing to normalized scores",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	ClassificationConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "weather_classification_confidence",
			Help:    "Confidence of the predicted class",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	HistoryRecordsPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weather_history_records_purged_total",
			Help: "Total history records removed by retention",
		},
	)
)

// Outcome labels for ClassificationsTotal.
const (
	StatusSuccess       = "success"
	StatusLowConfidence = "low_confidence"
	StatusBadInput      = "bad_input"
	StatusModelError    = "model_error"
	StatusStoreError    = "store_error"
)

var once sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(ClassificationsTotal)
		prometheus.MustRegister(PredictionsTotal)
		prometheus.MustRegister(ClassificationDuration)
		prometheus.MustRegister(ClassificationConfidence)
		prometheus.MustRegister(HistoryRecordsPurged)
	})
}

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alejandrodnm/resetpoint/internal/application/analysis"
	"github.com/alejandrodnm/resetpoint/internal/domain"
)

// Metrics agrupa las métricas Prometheus del API en un registry propio.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	analyses        *prometheus.CounterVec
	analysisTime    prometheus.Histogram
	tradesAnalysed  prometheus.Counter
	biasesDetected  *prometheus.CounterVec
	adviceSource    *prometheus.CounterVec
	speechFailures  prometheus.Counter
}

// NewMetrics crea y registra todas las métricas.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resetpoint_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "resetpoint_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resetpoint_analyses_total",
			Help: "Analyses by result status",
		}, []string{"status"}),
		analysisTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "resetpoint_analysis_duration_seconds",
			Help:    "End-to-end analysis duration including advice",
			Buckets: prometheus.DefBuckets,
		}),
		tradesAnalysed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resetpoint_trades_analysed_total",
			Help: "Normalized trades across all successful analyses",
		}),
		biasesDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resetpoint_biases_detected_total",
			Help: "Detected biases by kind",
		}, []string{"bias"}),
		adviceSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resetpoint_advice_total",
			Help: "Advice responses by source (cache, advisor, disabled, failed)",
		}, []string{"source"}),
		speechFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resetpoint_speech_failures_total",
			Help: "Speech collaborator failures",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.requestDuration, m.analyses, m.analysisTime,
		m.tradesAnalysed, m.biasesDetected, m.adviceSource, m.speechFailures,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler expone el registry en formato de exposición Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry devuelve el registry (tests).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observeRequest(route, method string, code int, d time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) observeAnalysis(resp analysis.Response, d time.Duration) {
	m.analyses.WithLabelValues(resp.Status).Inc()
	m.analysisTime.Observe(d.Seconds())
	m.adviceSource.WithLabelValues(resp.AdviceSource).Inc()
	if resp.Status != domain.StatusSuccess {
		return
	}
	m.tradesAnalysed.Add(float64(resp.Metadata.TotalTrades))
	for _, k := range resp.Biases.Detected() {
		m.biasesDetected.WithLabelValues(string(k)).Inc()
	}
}

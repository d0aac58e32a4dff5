package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/devkit-ai/devkit-ai/pkg/metrics"
)

type Metrics struct {
	apiResponseTime  *prometheus.HistogramVec
	apiErrorCounter  *prometheus.CounterVec
	chatResponseTime *prometheus.HistogramVec
	chatErrorCounter *prometheus.CounterVec
	toolCallCounter  *prometheus.CounterVec
}

func NewMetrics(ns, system string) *Metrics {
	// setup metric
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	m := &Metrics{
		apiResponseTime:  metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:  metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		chatResponseTime: metrics.NewHistogramVec("chat_response_time", []string{"endpoint"}),
		chatErrorCounter: metrics.NewCounterVec("chat_error", []string{"type"}),
		toolCallCounter:  metrics.NewCounterVec("tool_call", []string{"tool"}),
	}

	return m
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ChatResponseTimer(endpoint string) *prometheus.Timer {
	return prometheus.NewTimer(m.chatResponseTime.WithLabelValues(endpoint))
}

func (m *Metrics) ChatErrorInc(types string) {
	m.chatErrorCounter.WithLabelValues(types).Inc()
}

func (m *Metrics) ToolCallInc(tool string) {
	m.toolCallCounter.WithLabelValues(tool).Inc()
}

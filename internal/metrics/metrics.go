package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Duration of outbound API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Number of outbound API requests",
	}, []string{"component", "operation", "status"})

	GenerateRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generate_requests_total",
		Help: "Number of content generation requests",
	})

	ImageGenerationAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "image_generation_attempts_total",
		Help: "Number of image generation attempts including retries",
	})

	PlatformPostTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "platform_post_total",
		Help: "Number of social media post attempts by outcome",
	}, []string{"platform", "status"})
)

// MustRegister registers all collectors with the given registerer.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		NetworkRequestDuration,
		NetworkRequestTotal,
		GenerateRequestsTotal,
		ImageGenerationAttempts,
		PlatformPostTotal,
	)
}

// ObserveNetworkRequest records the duration and status of an outbound request.
func ObserveNetworkRequest(component, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, status).Inc()
}

// ObservePlatformPost records the outcome of a single platform post attempt.
func ObservePlatformPost(platform string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	PlatformPostTotal.WithLabelValues(platform, status).Inc()
}

package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// CourseEvents 课程生命周期事件：created/updated/approved/published/unpublished/deleted
	CourseEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_market_course_events_total",
			Help: "Course lifecycle events",
		},
		[]string{"event"},
	)

	// EnrollmentEvents 报名事件：enrolled/completed
	EnrollmentEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_market_enrollment_events_total",
			Help: "Enrollment events",
		},
		[]string{"event"},
	)

	MediaUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_market_media_uploads_total",
			Help: "Uploaded course media files",
		},
		[]string{"kind", "provider"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDuration, CourseEvents, EnrollmentEvents, MediaUploads)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

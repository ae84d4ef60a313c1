package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "halokm_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	AICalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "halokm_ai_calls_total",
		Help: "LLM calls by operation and outcome.",
	}, []string{"op", "status"})

	AIDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "halokm_ai_call_duration_seconds",
		Help:    "LLM call latency by operation.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(HTTPRequests, AICalls, AIDuration)
}

// ObserveAI records one LLM call; use as `defer metrics.ObserveAI("op", time.Now(), &err)`.
func ObserveAI(op string, start time.Time, err *error) {
	status := "ok"
	if err != nil && *err != nil {
		status = "error"
	}
	AICalls.WithLabelValues(op, status).Inc()
	AIDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Middleware counts requests by route pattern, not raw path.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			HTTPRequests.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).Inc()
			return err
		}
	}
}

func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

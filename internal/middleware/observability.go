package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/loopwar-api/internal/observability"
)

// Observability records request metrics and one structured log line for every
// /api request. Other paths such as /metrics pass through untouched.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Path(), "/api/") {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		// the error handler has not run yet, so read the status it will write
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		route := routeTemplate(c)
		method := c.Method()
		code := strconv.Itoa(status)

		observability.APIRequests().WithLabelValues(method, route, code).Inc()
		observability.APILatency().WithLabelValues(method, route).Observe(elapsed.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.APIErrors().WithLabelValues(method, route, code).Inc()
		}

		event := logger.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = logger.Error()
		case status >= fiber.StatusBadRequest:
			event = logger.Warn()
		}
		event = event.
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", method).
			Str("route", route).
			Int("status", status).
			Float64("latency_ms", float64(elapsed)/float64(time.Millisecond)).
			Str("latency_bucket", latencyBucket(elapsed))
		if userID, ok := c.Locals(LocalUserID).(uint); ok {
			event = event.Uint("user_id", userID)
		}
		event.Msg("request completed")

		return err
	}
}

// routeTemplate keeps metric cardinality bounded by labelling with the route
// pattern rather than the concrete path.
func routeTemplate(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return "unmatched"
}

var latencyBuckets = []struct {
	limit time.Duration
	label string
}{
	{25 * time.Millisecond, "<=25ms"},
	{100 * time.Millisecond, "<=100ms"},
	{500 * time.Millisecond, "<=500ms"},
	{2 * time.Second, "<=2s"},
}

func latencyBucket(elapsed time.Duration) string {
	for _, b := range latencyBuckets {
		if elapsed <= b.limit {
			return b.label
		}
	}
	// judge runs and AI calls land here
	return ">2s"
}

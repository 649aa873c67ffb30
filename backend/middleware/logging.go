package middleware

import (
	"log"
	"strconv"
	"time"

	"capdigital/backend/metrics"

	"github.com/gofiber/fiber/v2"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

func statusColor(status int) string {
	switch {
	case status >= 500:
		return colorRed
	case status >= 400:
		return colorYellow
	default:
		return colorGreen
	}
}

// LoggingMiddleware logs every request and records its latency histogram.
func LoggingMiddleware(logger *log.Logger, colors bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Передаем управление следующему обработчику
		err := c.Next()
		if err != nil {
			// fiber отдаст ошибку через ErrorHandler, статус берём из неё
			if fe, ok := err.(*fiber.Error); ok {
				c.Status(fe.Code)
			}
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Method(), route, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		if logger != nil {
			statusText := strconv.Itoa(status)
			if colors {
				statusText = statusColor(status) + statusText + colorReset
			}
			logger.Printf("%s %s %s %s %v", c.IP(), c.Method(), c.Path(), statusText, elapsed)
		}
		return err
	}
}

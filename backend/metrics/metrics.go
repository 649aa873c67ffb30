// Package metrics holds the Prometheus collectors shared by the API and services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks handler latency by method, route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "capdigital_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// LessonCompletions counts completion attempts; result is "new" or "duplicate".
	LessonCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capdigital_lesson_completions_total",
		Help: "Lesson completion attempts by result",
	}, []string{"result"})

	AchievementsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capdigital_achievements_granted_total",
		Help: "Achievements granted by achievement id",
	}, []string{"achievement_id"})

	// Logins counts login attempts; result is "ok", "migrated" or "rejected".
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capdigital_logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capdigital_registrations_total",
		Help: "Successful registrations",
	})
)

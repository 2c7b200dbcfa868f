package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	started   metric.Int64Counter
	completed metric.Int64Counter
}

func newMetrics() metrics {
	meter := otel.Meter("github.com/Alijeyrad/surveybot/engine")
	started, _ := meter.Int64Counter("survey_attempts_started_total",
		metric.WithDescription("Test attempts started"))
	completed, _ := meter.Int64Counter("survey_attempts_completed_total",
		metric.WithDescription("Test attempts completed"))
	return metrics{started: started, completed: completed}
}

func (m metrics) attemptStarted(ctx context.Context, categoryID int64) {
	m.started.Add(ctx, 1, metric.WithAttributes(attribute.Int64("category_id", categoryID)))
}

func (m metrics) attemptCompleted(ctx context.Context, categoryID int64) {
	m.completed.Add(ctx, 1, metric.WithAttributes(attribute.Int64("category_id", categoryID)))
}

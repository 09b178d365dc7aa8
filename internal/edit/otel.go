package edit

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/OCAP2/boatsync/internal/edit"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

func submissionCounter() metric.Int64Counter {
	c, err := meter().Int64Counter("edit.submissions",
		metric.WithDescription("Edit sessions submitted, by outcome"))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

func outcomeAttr(outcome string) metric.AddOption {
	return metric.WithAttributes(attribute.String("outcome", outcome))
}

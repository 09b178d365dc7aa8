package bus

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/boatsync/internal/bus"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

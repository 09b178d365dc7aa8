package query

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/OCAP2/boatsync/internal/query"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// counters falls back to no-op instruments so a misconfigured meter never blocks
// query construction.
func counters() (issued, stale metric.Int64Counter) {
	m := meter()
	var err error
	issued, err = m.Int64Counter("query.fetches.issued",
		metric.WithDescription("Remote fetches issued per query"))
	if err != nil {
		issued = noop.Int64Counter{}
	}
	stale, err = m.Int64Counter("query.results.stale",
		metric.WithDescription("Fetch results discarded because a newer fetch superseded them"))
	if err != nil {
		stale = noop.Int64Counter{}
	}
	return issued, stale
}

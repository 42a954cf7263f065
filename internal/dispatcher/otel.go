package dispatcher

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/TechnoJays/robot2014/internal/dispatcher"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

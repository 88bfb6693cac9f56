package eatap

import (
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/eatap")

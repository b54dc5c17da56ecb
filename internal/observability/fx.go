package observability

import (
	"github.com/smallbiznis/oilfield/internal/observability/metrics"
	"github.com/smallbiznis/oilfield/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		tracing.NewProvider,
		metrics.Provide,
		metrics.NewHTTPMetrics,
	),
	fx.Invoke(ensureTracingProvider),
)

func ensureTracingProvider(_ *sdktrace.TracerProvider) {}

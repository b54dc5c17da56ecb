package tracing

import (
	"context"
	"testing"

	"github.com/smallbiznis/oilfield/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestNewProviderDisabled(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{AppName: "oilfield", Environment: "test", OtelSamplingRatio: 1}

	tp, err := NewProvider(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, tp)

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	lc.RequireStart()
	lc.RequireStop()
}

func TestNewExporterRejectsUnknownProtocol(t *testing.T) {
	_, err := newExporter(config.Config{OtelExporterProtocol: "carrier-pigeon"})
	assert.Error(t, err)
}

package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNewResource_CarriesServiceAndEnvironment(t *testing.T) {
	res, err := newResource(Config{ServiceName: "field-service", Version: "1.2.3", Environment: "staging"})
	require.NoError(t, err)

	set := res.Set()
	name, ok := set.Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "field-service", name.AsString())

	version, ok := set.Value(semconv.ServiceVersionKey)
	require.True(t, ok)
	assert.Equal(t, "1.2.3", version.AsString())

	env, ok := set.Value(semconv.DeploymentEnvironmentKey)
	require.True(t, ok)
	assert.Equal(t, "staging", env.AsString())
}

func TestNewSampler(t *testing.T) {
	assert.Contains(t, newSampler(0).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(0.25).Description(), "TraceIDRatioBased{0.25}")
	assert.Contains(t, newSampler(0.25).Description(), "ParentBased")
}

func TestInitTracerAndShutdown(t *testing.T) {
	tp, err := InitTracer(Config{ServiceName: "field-service", Version: "test", Environment: "test"})
	require.NoError(t, err)
	require.NoError(t, Shutdown(context.Background(), tp))

	assert.NoError(t, Shutdown(context.Background(), noop.NewTracerProvider()))
}

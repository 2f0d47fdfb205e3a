package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reda-store/internal/config"
)

func TestInitDisabledIsNoop(t *testing.T) {
	p, err := Init(context.Background(), config.TelemetryConfig{Enabled: false}, "test")
	require.NoError(t, err)
	assert.Nil(t, p.TracerProvider)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestShutdownNilProvider(t *testing.T) {
	var p *Provider
	assert.NoError(t, p.Shutdown(context.Background()))
}

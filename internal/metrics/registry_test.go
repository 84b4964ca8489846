package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()
	config := &Config{Type: "prometheus", Enabled: true, Namespace: "bookbff"}

	_, err := registry.CreateSharedCollector("", config)
	assert.ErrorIs(t, err, ErrEmptyCollectorName)

	_, err = registry.CreateSharedCollector("global", nil)
	assert.ErrorIs(t, err, ErrNilConfig)

	collector, err := registry.CreateSharedCollector("global", config)
	require.NoError(t, err)
	assert.Same(t, registry.GetRegistry(), collector.GetRegistry())
	assert.Equal(t, 1, registry.CollectorCount())

	_, err = registry.CreateSharedCollector("global", config)
	assert.ErrorIs(t, err, ErrCollectorAlreadyRegistered)

	found, ok := registry.GetCollector("global")
	assert.True(t, ok)
	assert.Same(t, collector, found)

	require.NoError(t, registry.UnregisterCollector("global"))
	assert.ErrorIs(t, registry.UnregisterCollector("global"), ErrCollectorNotFound)
	assert.Equal(t, 0, registry.CollectorCount())
}

func TestGlobalRegistry(t *testing.T) {
	first := GetGlobalRegistry()
	assert.Same(t, first, GetGlobalRegistry())

	families, err := first.GetRegistry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

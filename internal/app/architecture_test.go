package app_test

import (
	"testing"

	"github.com/mstrYoda/go-arctest/pkg/arctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mod = `github\.com/Nazarious-ucu/nmc-weather-station`

func TestLayeredArchitecture(t *testing.T) {
	arch, err := arctest.New("../../")
	require.NoError(t, err)

	err = arch.ParsePackages()
	require.NoError(t, err, "failed to parse packages")

	domainLayer, err := arctest.NewLayer("domain", `^`+mod+`/internal/models$`)
	require.NoError(t, err)

	pipelineLayer, err := arctest.NewLayer("pipeline",
		`^`+mod+`/internal/(scheduler|services/(station|nmc|condition|metrics))$`)
	require.NoError(t, err)

	handlerLayer, err := arctest.NewLayer("handlers", `^`+mod+`/internal/handlers/`)
	require.NoError(t, err)

	infraLayer, err := arctest.NewLayer("infrastructure",
		`^`+mod+`/(internal/(producers|services/cache|services/logger)|pkg/)`)
	require.NoError(t, err)

	layered := arch.NewLayeredArchitecture(domainLayer, pipelineLayer, handlerLayer, infraLayer)

	assert.NoError(t, pipelineLayer.DependsOnLayer(domainLayer))
	assert.NoError(t, handlerLayer.DependsOnLayer(domainLayer))
	assert.NoError(t, handlerLayer.DependsOnLayer(pipelineLayer))
	assert.NoError(t, infraLayer.DependsOnLayer(domainLayer))
	assert.NoError(t, infraLayer.DependsOnLayer(pipelineLayer))

	violations, err := layered.Check()
	require.NoError(t, err)

	assert.Len(t, violations, 0)
	for _, v := range violations {
		assert.Failf(t, "", "violation: %s", v)
	}
}

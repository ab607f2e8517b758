package operations_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ansanalytics/internal/operations"
	"ansanalytics/internal/operations/testutil"
)

func TestRegistry_Register(t *testing.T) {
	registry := operations.NewRegistry()

	require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("b", "B")))
	require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("a", "A")))

	assert.Equal(t, 2, registry.Count())
	assert.True(t, registry.Has("a"))
	assert.Equal(t, []string{"b", "a"}, registry.ListIDs())

	steps := registry.List()
	require.Len(t, steps, 2)
	assert.Equal(t, "b", steps[0].ID())

	step, err := registry.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "A", step.Name())
}

func TestRegistry_RegisterErrors(t *testing.T) {
	registry := operations.NewRegistry()

	assert.Error(t, registry.Register(nil))
	assert.Error(t, registry.Register(testutil.CreateSuccessfulStage("", "empty")))

	require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("a", "A")))
	assert.Error(t, registry.Register(testutil.CreateSuccessfulStage("a", "again")))

	_, err := registry.Get("missing")
	assert.Error(t, err)
}

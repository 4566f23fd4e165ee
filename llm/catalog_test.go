package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetModelInfo(t *testing.T) {
	info := GetModelInfo("claude-sonnet-4-20250514")
	require.NotNil(t, info)
	assert.Equal(t, "anthropic", info.Provider)
	assert.True(t, info.SupportsTools)

	alias := GetModelInfo("sonnet")
	require.NotNil(t, alias)
	assert.Equal(t, info.ID, alias.ID)

	assert.Nil(t, GetModelInfo("no-such-model"))
}

func TestListModels(t *testing.T) {
	all := ListModels("")
	assert.Len(t, all, len(Models))

	for _, m := range ListModels("openai") {
		assert.Equal(t, "openai", m.Provider)
	}
	assert.Empty(t, ListModels("nobody"))
}

func TestGetLatestModel(t *testing.T) {
	latest := GetLatestModel("anthropic")
	require.NotNil(t, latest)
	assert.Equal(t, "claude-opus-4-1-20250805", latest.ID)
	assert.Nil(t, GetLatestModel("nobody"))
}

package instrdocs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvDocsPath, filepath.Join("testdata", "ppc.json"))
	assert.Equal(t, 7, loadFromEnv().Len())

	t.Setenv(EnvDocsPath, filepath.Join("testdata", "missing.json"))
	assert.Equal(t, 0, loadFromEnv().Len())

	t.Setenv(EnvDocsPath, "")
	assert.Equal(t, 0, loadFromEnv().Len())
}

func TestSetDefault(t *testing.T) {
	idx, err := Load(filepath.Join("testdata", "ppc.json"))
	require.NoError(t, err)

	SetDefault(idx)
	assert.Same(t, idx, Default())

	SetDefault(nil)
	assert.Nil(t, Default())
}

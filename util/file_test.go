package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "config.txt")
	require.NoError(t, WriteToFile(path, "episodes: 3", "horizon: 10"))
	require.NoError(t, WriteToFile(path, "episodes: 4"))

	bs, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "episodes: 4\n", string(bs))
}

func TestAppendToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	require.NoError(t, AppendToFile(path, `{"episode":0}`))
	require.NoError(t, AppendToFile(path, `{"episode":1}`, `{"episode":2}`))

	bs, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"episode\":0}\n{\"episode\":1}\n{\"episode\":2}\n", string(bs))
}

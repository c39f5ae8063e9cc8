package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0.05, c.Contamination)
	assert.Equal(t, "table", c.Format)
	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, 10, c.TopN)
	assert.Equal(t, rune(0), c.DelimiterRune())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Set("contamination", "0.1"))
	require.NoError(t, c.Set("format", "md"))
	require.NoError(t, c.Set("delimiter", "tab"))
	require.NoError(t, c.Set("seed", "7"))
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.1, got.Contamination)
	assert.Equal(t, "markdown", got.Format)
	assert.Equal(t, '\t', got.DelimiterRune())
	assert.Equal(t, int64(7), got.Seed)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_n: 5\n"), 0o644))
	t.Setenv("SENTINEL_TOP_N", "25")
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, c.TopN)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("contamination: 0.9\n"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "contamination")
}

func TestSetValidates(t *testing.T) {
	c := &Global{Contamination: 0.05, Format: "table", Seed: 42, TopN: 10}
	cases := []struct {
		key, val string
	}{
		{"contamination", "0"},
		{"contamination", "0.51"},
		{"contamination", "abc"},
		{"format", "html"},
		{"top_n", "-1"},
		{"delimiter", ";;"},
		{"verbose", "maybe"},
		{"nope", "1"},
	}
	for _, tc := range cases {
		if err := c.Set(tc.key, tc.val); err == nil {
			t.Fatalf("Set(%q, %q) should fail", tc.key, tc.val)
		}
	}
	assert.Equal(t, 0.05, c.Contamination, "failed sets leave the config unchanged")
	assert.NoError(t, c.Set("contamination", "0.5"))
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigInitThenTest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episodic", "config.toml")
	var out bytes.Buffer
	configInitCmd.SetOut(&out)
	configTestCmd.SetOut(&out)
	defer configInitCmd.SetOut(nil)
	defer configTestCmd.SetOut(nil)

	require.NoError(t, runConfigInit(configInitCmd, []string{path}))
	assert.FileExists(t, path)

	err := runConfigInit(configInitCmd, []string{path})
	require.Error(t, err, "refuses to overwrite")

	out.Reset()
	require.NoError(t, runConfigTest(configTestCmd, []string{path}))
	assert.Contains(t, out.String(), "Configuration valid!")
	assert.Contains(t, out.String(), "https://api.imdbapi.dev")
}

func TestConfigTest_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[upstream]\npage_size = -1\nbase_url = \"${EPISODIC_TEST_UNSET_URL}\"\n"), 0644))

	var out bytes.Buffer
	configTestCmd.SetOut(&out)
	defer configTestCmd.SetOut(nil)

	err := runConfigTest(configTestCmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, out.String(), "EPISODIC_TEST_UNSET_URL")
}

package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port    int    `json:"port"`
	BaseUrl string `json:"base_url"`
	Nested  struct {
		CookiesPath string `json:"cookies_path"`
	} `json:"nested"`
}

func writeConfig(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "config.json5")
	writeConfig(t, name, `{port: 8000, base_url: "https://atap.seda.gov.my"}`)

	config, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, 8000, config.Port)
	require.Equal(t, "https://atap.seda.gov.my", config.BaseUrl)
}

func TestReadConfigMergesLocalOverlay(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "config.json5")
	writeConfig(t, name, `{
		port: 8000,
		base_url: "https://atap.seda.gov.my",
		nested: {cookies_path: "cookies.json"},
	}`)
	writeConfig(t, filepath.Join(dir, "config.local.json5"), `{port: 9000}`)

	config, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, 9000, config.Port)
	require.Equal(t, "https://atap.seda.gov.my", config.BaseUrl)
	require.Equal(t, "cookies.json", config.Nested.CookiesPath)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, "config.local.json5"), `{port: 9000}`)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 9000, config.Port)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadRecursively(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, filepath.Join(dir, "config.json5"), `{port: 8000}`)

	child := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(child, 0755))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(child))
	t.Cleanup(func() { os.Chdir(wd) })

	config, err := ReadRecursively[testConfig]("config.json5")
	require.NoError(t, err)
	require.Equal(t, 8000, config.Port)

	_, err = ReadRecursively[testConfig]("no-such-config.json5")
	require.True(t, os.IsNotExist(err))
}

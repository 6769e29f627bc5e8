package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func writeConfigFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultRetryTimes, cfg.RetryTimes)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.Database)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := writeConfigFile(t, dir, "custom.yaml", `
host: db.example.com
port: 6543
database: geo
schema: analytics
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "db.example.com", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "geo", cfg.Database)
	assert.Equal(t, "analytics", cfg.Schema)
	// Values absent from the file keep their defaults.
	assert.Equal(t, DefaultRetryTimes, cfg.RetryTimes)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := Load("nope.yaml", nil)
	assert.Error(t, err)
}

func TestLoadFindsFileInParentDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, ConfigFileName, "database: parent_db\n")

	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	chdir(t, nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "parent_db", cfg.Database)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeConfigFile(t, dir, ConfigFileName, "database: filedb\nhost: filehost\n")

	t.Setenv("MAPFRAME_DATABASE", "envdb")
	t.Setenv("MAPFRAME_RETRY_TIMES", "7")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "envdb", cfg.Database)
	assert.Equal(t, 7, cfg.RetryTimes)
	assert.Equal(t, "filehost", cfg.Host)
}

func TestLoadFlagsOverrideEverything(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MAPFRAME_HOST", "envhost")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("host", DefaultHost, "")
	flags.String("database", "", "")
	flags.Int("retry-times", DefaultRetryTimes, "")
	require.NoError(t, flags.Set("host", "flaghost"))
	require.NoError(t, flags.Set("database", "flagdb"))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "flaghost", cfg.Host)
	assert.Equal(t, "flagdb", cfg.Database)
	// Unchanged flags never clobber lower layers.
	assert.Equal(t, DefaultRetryTimes, cfg.RetryTimes)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Host: DefaultHost, Port: DefaultPort, Database: "geo"}
	assert.NoError(t, cfg.Validate())

	cfg.Database = ""
	assert.Error(t, cfg.Validate())

	cfg.Database = "geo"
	cfg.Port = 0
	assert.Error(t, cfg.Validate())

	cfg.Port = 70000
	assert.Error(t, cfg.Validate())
}

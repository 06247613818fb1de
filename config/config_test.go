package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadConfig_YAML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yaml", `
server:
  port: "9090"
database:
  host: db.internal
  dbname: wiki
  admin:
    user: admin
    password: secret
dumps:
  base_url: "http://mirror.local/simplewiki/latest"
  tables: ["page", "category"]
refresh:
  scratch_dir: /tmp/wl-scratch/
http:
  listing_timeout: 5s
log_level: DEBUG
`)

	cfg, err := LoadConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "3306", cfg.Database.Port, "unset fields keep defaults")
	assert.Equal(t, "admin", cfg.Database.Admin.User)
	assert.Equal(t, "http://mirror.local/simplewiki/latest/", cfg.Dumps.BaseURL)
	assert.Equal(t, "simplewiki", cfg.Dumps.Dataset)
	assert.Equal(t, []string{"page", "category"}, cfg.Dumps.Tables)
	assert.Equal(t, "/tmp/wl-scratch", cfg.Refresh.ScratchDir)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ListingTimeout)
	assert.Equal(t, DefaultDownloadTimeout, cfg.HTTP.DownloadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "debug", cfg.LogLevel)

	catalog, err := cfg.Catalog()
	require.NoError(t, err)
	assert.Equal(t, []string{"page", "category"}, catalog.Names())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yaml", `
database:
  admin:
    user: admin
    password: from-file
`)
	t.Setenv("WIKILYNX_DB_ADMIN_PASSWORD", "from-env")
	t.Setenv("WIKILYNX_QUERY_API_URL", "http://localhost:8080/api/query")

	cfg, err := LoadConfig(p)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Admin.Password)
	assert.Equal(t, "http://localhost:8080/api/query", cfg.Registry.QueryAPIURL)
}

func TestLoadConfig_ReadsDotEnv(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(cwd) }()

	d := t.TempDir()
	writeFile(t, d, ".env", "WIKILYNX_DB_READER_USER=user0\nWIKILYNX_LOG_LEVEL=warn\n")
	require.NoError(t, os.Chdir(d))

	// godotenv never overrides variables that are already set, and it sets
	// them process-wide, so restore them afterwards.
	for _, k := range []string{"WIKILYNX_DB_READER_USER", "WIKILYNX_LOG_LEVEL"} {
		k := k // per-iteration copy (Go 1.21 loop semantics)
		old, had := os.LookupEnv(k)
		require.NoError(t, os.Unsetenv(k))
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(k, old)
			} else {
				_ = os.Unsetenv(k)
			}
		})
	}

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "user0", cfg.Database.Reader.User)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, DefaultDumpsBaseURL, cfg.Dumps.BaseURL)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	p := writeFile(t, t.TempDir(), "config.yaml", "http:\n  download_timeout: soon\n")
	_, err = LoadConfig(p)
	assert.ErrorContains(t, err, "download_timeout")

	p = writeFile(t, t.TempDir(), "config.yaml", "server: [not, a, map]\n")
	_, err = LoadConfig(p)
	assert.ErrorContains(t, err, "unmarshal")
}

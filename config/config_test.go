package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/pxv/config"
)

func TestFromString(t *testing.T) {
	t.Parallel()

	t.Run("full", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.FromString(`
creds_dir: /var/lib/pxv
download_dir: /srv/pixiv
request_timeout: 45s
download_concurrency: 8
download_retries: 5
keyring: false
`)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/pxv", cfg.CredsDir)
		assert.Equal(t, "/srv/pixiv", cfg.DownloadDir)
		assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 8, cfg.DownloadConcurrency)
		assert.Equal(t, uint64(5), cfg.DownloadRetries)
		assert.False(t, cfg.Keyring)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.FromString(`download_dir: out`)
		require.NoError(t, err)
		def := config.Default()
		assert.Equal(t, "out", cfg.DownloadDir)
		assert.Equal(t, def.CredsDir, cfg.CredsDir)
		assert.Equal(t, config.DefaultRequestTimeout, cfg.RequestTimeout)
		assert.Equal(t, config.DefaultDownloadConcurrency, cfg.DownloadConcurrency)
		assert.True(t, cfg.Keyring)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		cases := map[string]string{
			"empty_creds_dir":   `creds_dir: ""`,
			"zero_concurrency":  `download_concurrency: 0`,
			"negative_timeout":  `request_timeout: -1s`,
			"malformed_yaml":    `download_dir: [`,
			"malformed_timeout": `request_timeout: soon`,
		}
		for name, data := range cases {
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				_, err := config.FromString(data)
				require.Error(t, err)
			})
		}
	})
}

func TestFromFile(t *testing.T) {
	t.Parallel()

	t.Run("exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("download_concurrency: 2\n"), 0o600))

		cfg, err := config.FromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.DownloadConcurrency)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		_, err := config.FromFile(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}

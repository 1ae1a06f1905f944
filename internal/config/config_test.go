package config

import (
	"os"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svgupload/internal/svg"
	"svgupload/internal/upload"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("TZ", "Asia/Jakarta")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "Asia/Jakarta", cfg.Location.String())
}

func TestLoad_SVGDefaults(t *testing.T) {
	t.Setenv("SVG_MODE", "")
	t.Setenv("SVG_MAX_BYTES", "")
	t.Setenv("SVG_ALLOW_SVGZ", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, upload.DefaultMaxBytes, cfg.SVG.MaxBytes)
	assert.Equal(t, svg.ModeStrict, cfg.SVG.Mode)
	assert.True(t, cfg.SVG.AllowSVGZ)
}

func TestLoad_SVGOverrides(t *testing.T) {
	t.Setenv("SVG_MODE", "legacy")
	t.Setenv("SVG_MAX_BYTES", "1024")
	t.Setenv("SVG_ALLOW_SVGZ", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(1024), cfg.SVG.MaxBytes)
	assert.Equal(t, svg.ModeLegacy, cfg.SVG.Mode)
	assert.False(t, cfg.SVG.AllowSVGZ)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown svg mode", func(t *testing.T) {
		t.Setenv("SVG_MODE", "lenient")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown time zone", func(t *testing.T) {
		t.Setenv("TZ", "Mars/Olympus")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt64(t *testing.T) {
	key := "TEST_INT64_VAR"

	t.Setenv(key, "8388608")
	assert.Equal(t, int64(8<<20), getEnvInt64(key, 1))

	t.Setenv(key, "-5")
	assert.Equal(t, int64(7), getEnvInt64(key, 7))

	t.Setenv(key, "abc")
	assert.Equal(t, int64(7), getEnvInt64(key, 7))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/a11y-lens/internal/platform"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 3, c.Navigation.MaxRetries)
	assert.Equal(t, 30*time.Second, c.Navigation.Timeout)
	assert.Equal(t, "1920x1080", c.Navigation.Viewport)
	assert.True(t, c.AI.Enabled)

	o := c.SessionOptions(nil)
	assert.Equal(t, platform.DefaultViewport, o.Viewport)
	assert.Equal(t, platform.DefaultUserAgent, o.UserAgent)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
browser:
  remoteUrl: ws://chrome:9222
navigation:
  maxRetries: 5
  timeout: 45s
  viewport: 1280x720
ai:
  model: gemini-2.5-pro
server:
  cacheTTL: 1m
`), 0o644))

	c := Default()
	require.NoError(t, c.loadFile(path))
	assert.Equal(t, "ws://chrome:9222", c.Browser.RemoteURL)
	assert.Equal(t, 5, c.Navigation.MaxRetries)
	assert.Equal(t, 45*time.Second, c.Navigation.Timeout)
	assert.Equal(t, "gemini-2.5-pro", c.AI.Model)
	assert.Equal(t, time.Minute, c.Server.CacheTTL)
	assert.Equal(t, platform.DefaultUserAgent, c.Navigation.UserAgent, "unset keys keep defaults")
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	err := c.applyEnv(env(map[string]string{
		"A11Y_MAX_RETRIES": "2",
		"A11Y_TIMEOUT":     "10s",
		"A11Y_STEALTH":     "false",
		"GEMINI_API_KEY":   "k",
		"A11Y_S3_ENDPOINT": "minio:9000",
		"A11Y_LOG_JSON":    "true",
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Navigation.MaxRetries)
	assert.Equal(t, 10*time.Second, c.Navigation.Timeout)
	assert.False(t, c.Browser.Stealth)
	assert.Equal(t, "k", c.AI.APIKey)
	assert.Equal(t, "minio:9000", c.Artifact.Endpoint)
	assert.True(t, c.Log.JSON)
}

func TestApplyEnv_Invalid(t *testing.T) {
	c := Default()
	err := c.applyEnv(env(map[string]string{
		"A11Y_MAX_RETRIES": "many",
		"A11Y_TIMEOUT":     "soon",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A11Y_MAX_RETRIES")
	assert.Contains(t, err.Error(), "A11Y_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero retries", func(c *Config) { c.Navigation.MaxRetries = 0 }},
		{"zero timeout", func(c *Config) { c.Navigation.Timeout = 0 }},
		{"bad viewport", func(c *Config) { c.Navigation.Viewport = "wide" }},
		{"negative cache", func(c *Config) { c.Server.CacheSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultBind, cfg.Bind)
	assert.Equal(t, DefaultSocket, cfg.Socket)
	assert.Equal(t, DefaultHitTimeout, time.Duration(cfg.HitTimeout))
	assert.Equal(t, DefaultMissTimeout, time.Duration(cfg.MissTimeout))
	assert.Equal(t, DefaultDockerTimeout, time.Duration(cfg.DockerTimeout))
	assert.Empty(t, cfg.Suffix)
	assert.Equal(t, DefaultTTL, cfg.TTL)

	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dockerdns.yaml")
	content := `
bind: 127.0.0.1:5353
socket: /run/user/1000/docker.sock
hit_timeout: 2m
miss_timeout: 15s
docker_timeout: 3s
suffix: docker
ttl: 30
metrics_addr: 127.0.0.1:9153
log_level: debug
log_json: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:5353", cfg.Bind)
	assert.Equal(t, "/run/user/1000/docker.sock", cfg.Socket)
	assert.Equal(t, 2*time.Minute, time.Duration(cfg.HitTimeout))
	assert.Equal(t, 15*time.Second, time.Duration(cfg.MissTimeout))
	assert.Equal(t, 3*time.Second, time.Duration(cfg.DockerTimeout))
	assert.Equal(t, ".docker", cfg.Suffix, "suffix gains its leading dot")
	assert.Equal(t, 30, cfg.TTL)
	assert.Equal(t, "127.0.0.1:9153", cfg.MetricsAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogJSON)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dockerdns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("suffix: .docker\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ".docker", cfg.Suffix)
	assert.Equal(t, DefaultBind, cfg.Bind)
	assert.Equal(t, DefaultHitTimeout, time.Duration(cfg.HitTimeout))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBind, cfg.Bind)
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dockerdns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hit_timeout: sixty\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad bind address",
			mutate:  func(c *Config) { c.Bind = "not-an-address:port" },
			wantErr: true,
		},
		{
			name:    "empty socket",
			mutate:  func(c *Config) { c.Socket = "" },
			wantErr: true,
		},
		{
			name:    "zero hit timeout",
			mutate:  func(c *Config) { c.HitTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "miss timeout above hit timeout",
			mutate: func(c *Config) {
				c.HitTimeout = Duration(time.Second)
				c.MissTimeout = Duration(2 * time.Second)
			},
			wantErr: true,
		},
		{
			name:   "miss timeout equal to hit timeout",
			mutate: func(c *Config) { c.MissTimeout = c.HitTimeout },
		},
		{
			name:    "negative ttl",
			mutate:  func(c *Config) { c.TTL = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeSuffix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"docker", ".docker"},
		{".docker", ".docker"},
		{"Docker", ".docker"},
		{".local.Lan", ".local.lan"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSuffix(tt.input))
		})
	}
}

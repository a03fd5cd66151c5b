package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RiddheshMore/ros-component-explorer/errors"
	"github.com/RiddheshMore/ros-component-explorer/graph"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestLoader(env map[string]string) *Loader {
	l := NewLoader()
	l.getenv = func(key string) string { return env[key] }
	return l
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	format, err := cfg.GraphFormat()
	require.NoError(t, err)
	assert.Equal(t, graph.FormatTurtle, format)
	assert.False(t, cfg.NATS.Enabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "sqlite" }, "store.backend"},
		{"local without file", func(c *Config) { c.Store.DataFile = "" }, "store.data_file"},
		{"remote without url", func(c *Config) {
			c.Store.Backend = BackendRemote
			c.Store.QueryURL = ""
		}, "store.query_url"},
		{"watch on remote", func(c *Config) {
			c.Store.Backend = BackendRemote
			c.Store.Watch = true
		}, "store.watch"},
		{"bad format", func(c *Config) { c.Store.Format = "json-ld" }, "store.format"},
		{"http without addr", func(c *Config) { c.HTTP.Addr = "" }, "http.addr"},
		{"negative burst", func(c *Config) { c.HTTP.Burst = -1 }, "http.rate_limit"},
		{"bad subject prefix", func(c *Config) { c.NATS.SubjectPrefix = "explorer.*" }, "nats.subject_prefix"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, errors.IsInvalid(err))
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}

func TestValidate_NormalizesCase(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = " Remote "
	cfg.Log.Level = "DEBUG"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendRemote, cfg.Store.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestString_MasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.NATS.Password = "hunter2"
	cfg.NATS.Token = "s3cret"

	out := cfg.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "s3cret")
	assert.Equal(t, "hunter2", cfg.NATS.Password, "String must not mutate the config")
}

func TestLoader_JSONLayer(t *testing.T) {
	path := writeConfig(t, "explorer.json", `{
		"store": {"backend": "remote", "query_url": "http://graphdb:7200/repositories/ros", "timeout": "5s"},
		"http": {"addr": ":9090", "cors_origins": ["http://localhost:3000"]},
		"nats": {"urls": ["nats://localhost:4222"], "reconnect_wait": 1000000000}
	}`)

	cfg, err := newTestLoader(nil).LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, BackendRemote, cfg.Store.Backend)
	assert.Equal(t, "http://graphdb:7200/repositories/ros", cfg.Store.QueryURL)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.Equal(t, "data/components.ttl", cfg.Store.DataFile, "defaults survive partial layers")
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, float64(50), cfg.HTTP.RateLimit)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, time.Second, cfg.NATS.ReconnectWait)
	assert.True(t, cfg.NATS.Enabled())
}

func TestLoader_YAMLLayer(t *testing.T) {
	path := writeConfig(t, "explorer.yaml", `
store:
  data_file: /srv/components.nt
  watch: true
  debounce: 250ms
log:
  level: debug
  format: text
`)

	cfg, err := newTestLoader(nil).LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/components.nt", cfg.Store.DataFile)
	assert.True(t, cfg.Store.Watch)
	assert.Equal(t, 250*time.Millisecond, cfg.Store.Debounce)
	assert.Equal(t, "debug", cfg.Log.Level)

	format, err := cfg.GraphFormat()
	require.NoError(t, err)
	assert.Equal(t, graph.FormatNTriples, format)
}

func TestLoader_LayersOverride(t *testing.T) {
	base := writeConfig(t, "base.json", `{"http": {"addr": ":8081", "burst": 10}}`)
	override := writeConfig(t, "override.yml", "http:\n  addr: \":8082\"\n")

	l := newTestLoader(nil)
	l.AddLayer(base)
	l.AddLayer(override)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8082", cfg.HTTP.Addr)
	assert.Equal(t, 10, cfg.HTTP.Burst)
}

func TestLoader_SchemaRejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown section", "c.json", `{"graph": {}}`},
		{"unknown key", "c.json", `{"store": {"backnd": "local"}}`},
		{"bad enum", "c.json", `{"store": {"backend": "sparql"}}`},
		{"bad duration", "c.yaml", "store:\n  timeout: soon\n"},
		{"wrong type", "c.json", `{"http": {"burst": "many"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestLoader(nil).LoadFile(writeConfig(t, tt.file, tt.content))
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestLoader_FileErrors(t *testing.T) {
	_, err := newTestLoader(nil).LoadFile(writeConfig(t, "explorer.toml", "x = 1"))
	assert.Error(t, err)

	_, err = newTestLoader(nil).LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = newTestLoader(nil).LoadFile(writeConfig(t, "broken.json", `{"store": `))
	assert.Error(t, err)
}

func TestLoader_EnvOverrides(t *testing.T) {
	env := map[string]string{
		"EXPLORER_STORE_BACKEND":   "remote",
		"EXPLORER_STORE_QUERY_URL": "http://fuseki:3030/components/query",
		"EXPLORER_HTTP_ADDR":       ":7070",
		"EXPLORER_NATS_URLS":       "nats://a:4222, nats://b:4222",
		"EXPLORER_LOG_LEVEL":       "warn",
	}

	cfg, err := newTestLoader(env).Load()
	require.NoError(t, err)

	assert.Equal(t, BackendRemote, cfg.Store.Backend)
	assert.Equal(t, "http://fuseki:3030/components/query", cfg.Store.QueryURL)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, []string{"nats://a:4222", "nats://b:4222"}, cfg.NATS.URLs)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_EnvInvalid(t *testing.T) {
	_, err := newTestLoader(map[string]string{"EXPLORER_STORE_WATCH": "maybe"}).Load()
	assert.Error(t, err)

	_, err = newTestLoader(map[string]string{"EXPLORER_STORE_BACKEND": "oracle"}).Load()
	assert.Error(t, err)
}

func TestValidateJSONDepth(t *testing.T) {
	assert.NoError(t, validateJSONDepth([]byte(`{"a": ["{", "}"]}`)))
	assert.Error(t, validateJSONDepth([]byte(`{"a": [`)))
	assert.Error(t, validateJSONDepth([]byte(`}{`)))

	deep := make([]byte, 0, 2*(maxJSONDepth+1))
	for i := 0; i <= maxJSONDepth; i++ {
		deep = append(deep, '[')
	}
	for i := 0; i <= maxJSONDepth; i++ {
		deep = append(deep, ']')
	}
	assert.Error(t, validateJSONDepth(deep))
}

func TestSchema_ReturnsCopy(t *testing.T) {
	s := Schema()
	require.NotEmpty(t, s)
	s[0] = 'x'
	assert.NotEqual(t, byte('x'), Schema()[0])
}

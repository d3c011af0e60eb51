package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/refcount/pkg/refcount/config"
	"github.com/randalmurphal/refcount/pkg/refcount/diagnostics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAccessors verifies typed extraction with defaults.
func TestAccessors(t *testing.T) {
	cfg := config.New(map[string]any{
		"name":    "buffers",
		"enabled": true,
		"count":   42,
		"whole":   50.0,
		"frac":    50.5,
		"big":     int64(7),
		"env":     "false",
		"env_int": "12",
	})

	assert.Equal(t, "buffers", cfg.String("name", "x"))
	assert.Equal(t, "x", cfg.String("missing", "x"))
	assert.Equal(t, "42", cfg.String("count", "x"))
	assert.Equal(t, "true", cfg.String("enabled", "x"))

	assert.True(t, cfg.Bool("enabled", false))
	assert.True(t, cfg.Bool("missing", true))
	assert.False(t, cfg.Bool("name", false))
	assert.False(t, cfg.Bool("env", true))

	assert.Equal(t, 42, cfg.Int("count", 0))
	assert.Equal(t, 50, cfg.Int("whole", 0))
	assert.Equal(t, 99, cfg.Int("frac", 99))
	assert.Equal(t, 7, cfg.Int("big", 0))
	assert.Equal(t, 12, cfg.Int("env_int", 0))
	assert.Equal(t, 5, cfg.Int("name", 5))

	assert.True(t, cfg.Has("name"))
	assert.False(t, cfg.Has("missing"))
	assert.Len(t, cfg.Raw(), 8)
}

func TestNilMap(t *testing.T) {
	cfg := config.New(nil)
	assert.NotNil(t, cfg.Raw())
	assert.Equal(t, "d", cfg.String("name", "d"))
}

func TestDottedPaths(t *testing.T) {
	cfg := config.New(map[string]any{
		"report_store": map[string]any{
			"driver": "pebble",
			"opts":   map[any]any{"sync": true},
		},
		"name": "scalar",
	})

	assert.Equal(t, "pebble", cfg.String("report_store.driver", ""))
	assert.True(t, cfg.Bool("report_store.opts.sync", false))
	assert.True(t, cfg.Has("report_store.opts"))
	assert.False(t, cfg.Has("report_store.path"))
	assert.False(t, cfg.Has("name.child"), "scalars have no children")
	assert.Equal(t, "d", cfg.String("report_store", "d"), "sections are not strings")
}

func TestSub(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"string keys", map[string]any{"s": map[string]any{"k": "v"}}, "v"},
		{"any keys", map[string]any{"s": map[any]any{"k": "v", 1: "skip"}}, "v"},
		{"missing", map[string]any{}, "default"},
		{"wrong type", map[string]any{"s": "scalar"}, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := config.New(tt.data).Sub("s")
			assert.Equal(t, tt.want, sub.String("k", "default"))
		})
	}
}

func TestMerge(t *testing.T) {
	base := config.New(map[string]any{
		"name":   "base",
		"tracing": true,
		"report_store": map[string]any{
			"driver": "sqlite",
			"path":   "/tmp/base.db",
		},
	})
	over := config.New(map[string]any{
		"name": "over",
		"report_store": map[string]any{
			"path": "/tmp/over.db",
		},
	})

	merged := base.Merge(over)
	assert.Equal(t, "over", merged.String("name", ""))
	assert.True(t, merged.Bool("tracing", false))
	assert.Equal(t, "sqlite", merged.String("report_store.driver", ""))
	assert.Equal(t, "/tmp/over.db", merged.String("report_store.path", ""))

	// Inputs untouched.
	assert.Equal(t, "base", base.String("name", ""))
	assert.Equal(t, "/tmp/base.db", base.String("report_store.path", ""))
}

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte("name: buffers\nreport_store:\n  driver: sqlite\n"))
	require.NoError(t, err)
	assert.Equal(t, "buffers", cfg.String("name", ""))
	assert.Equal(t, "sqlite", cfg.Sub("report_store").String("driver", ""))

	cfg, err = config.FromYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Raw())

	_, err = config.FromYAML([]byte("name: [unclosed"))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"strict_mode": true, "name": "tensors", "slots": 9007199254740993}`))
	require.NoError(t, err)
	assert.True(t, cfg.Bool("strict_mode", false))
	assert.Equal(t, "9007199254740993", cfg.String("slots", ""))
	assert.Equal(t, 9007199254740993, cfg.Int("slots", 0))

	_, err = config.FromJSON([]byte(`{`))
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	cfg := config.FromEnv("REFCOUNT", []string{
		"REFCOUNT_STRICT_MODE=true",
		"REFCOUNT_REPORT_STORE__DRIVER=pebble",
		"REFCOUNT_REPORT_STORE__PATH=/data/reports",
		"REFCOUNTER_NAME=ignored",
		"HOME=/root",
		"MALFORMED",
	})

	assert.True(t, cfg.Bool("strict_mode", false))
	assert.Equal(t, "pebble", cfg.String("report_store.driver", ""))
	assert.Equal(t, "/data/reports", cfg.String("report_store.path", ""))
	assert.False(t, cfg.Has("name"))
	assert.Len(t, cfg.Raw(), 2)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "refcount.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("name: from-yaml\n"), 0o600))
	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.String("name", ""))

	jsonPath := filepath.Join(dir, "refcount.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name":"from-json"}`), 0o600))
	cfg, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "from-json", cfg.String("name", ""))

	_, err = config.FromFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	txtPath := filepath.Join(dir, "refcount.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o600))
	_, err = config.FromFile(txtPath)
	assert.ErrorIs(t, err, config.ErrUnsupportedFormat)
}

func TestParse(t *testing.T) {
	cfg, err := config.Parse([]byte(`{"name":"x"}`), config.FormatYAML)
	require.NoError(t, err, "JSON is valid YAML")
	assert.Equal(t, "x", cfg.String("name", ""))

	_, err = config.Parse([]byte("name = x"), config.Format("toml"))
	assert.ErrorIs(t, err, config.ErrUnsupportedFormat)
}

func TestSettingsFrom(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s, err := config.SettingsFrom(config.New(nil))
		require.NoError(t, err)
		assert.Equal(t, config.DefaultSettings(), s)
		assert.Equal(t, "default", s.Name)
		assert.Equal(t, slog.LevelInfo, s.LogLevel)
	})

	t.Run("all keys", func(t *testing.T) {
		s, err := config.SettingsFrom(config.New(map[string]any{
			"name":            "tensors",
			"diagnostic_mode": true,
			"strict_mode":     true,
			"metrics":         true,
			"tracing":         true,
			"log_level":       "debug",
			"report_store": map[string]any{
				"driver": "Pebble",
				"path":   "/tmp/reports",
			},
		}))
		require.NoError(t, err)
		assert.Equal(t, "tensors", s.Name)
		assert.True(t, s.DiagnosticMode)
		assert.True(t, s.StrictMode)
		assert.True(t, s.Metrics)
		assert.True(t, s.Tracing)
		assert.Equal(t, slog.LevelDebug, s.LogLevel)
		assert.Equal(t, config.DriverPebble, s.ReportStore.Driver)
		assert.Equal(t, "/tmp/reports", s.ReportStore.Path)
	})

	t.Run("bad log level", func(t *testing.T) {
		_, err := config.SettingsFrom(config.New(map[string]any{"log_level": "loud"}))
		assert.ErrorContains(t, err, "log_level")
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := config.SettingsFrom(config.New(map[string]any{
			"report_store": map[string]any{"driver": "redis"},
		}))
		assert.ErrorIs(t, err, config.ErrUnknownDriver)
	})

	t.Run("path required", func(t *testing.T) {
		_, err := config.SettingsFrom(config.New(map[string]any{
			"report_store": map[string]any{"driver": "sqlite"},
		}))
		assert.ErrorContains(t, err, "report_store.path")
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refcount.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: buffers
diagnostic_mode: true
log_level: warn
report_store:
  driver: memory
`), 0o600))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "buffers", s.Name)
	assert.True(t, s.DiagnosticMode)
	assert.Equal(t, slog.LevelWarn, s.LogLevel)
	assert.Equal(t, config.DriverMemory, s.ReportStore.Driver)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refcount.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: buffers\nstrict_mode: false\n"), 0o600))

	t.Setenv("REFCOUNT_STRICT_MODE", "true")
	t.Setenv("REFCOUNT_REPORT_STORE__DRIVER", "memory")

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "buffers", s.Name)
	assert.True(t, s.StrictMode)
	assert.Equal(t, config.DriverMemory, s.ReportStore.Driver)

	t.Setenv("REFCOUNT_NAME", "env-only")
	s, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-only", s.Name)
	assert.True(t, s.StrictMode)
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		store   config.StoreSettings
		wantNil bool
	}{
		{"none", config.StoreSettings{}, true},
		{"memory", config.StoreSettings{Driver: config.DriverMemory}, false},
		{"sqlite", config.StoreSettings{Driver: config.DriverSQLite, Path: filepath.Join(dir, "r.db")}, false},
		{"pebble", config.StoreSettings{Driver: config.DriverPebble, Path: filepath.Join(dir, "pebble")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.DefaultSettings()
			s.ReportStore = tt.store

			store, err := s.OpenStore()
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, store)
				return
			}
			require.NotNil(t, store)
			defer store.Close()

			require.NoError(t, store.Save(diagnostics.Report{ID: "r-1", Registry: "default"}))
			_, err = store.Load("r-1")
			assert.NoError(t, err)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		s := config.DefaultSettings()
		s.ReportStore.Driver = "redis"
		_, err := s.OpenStore()
		assert.ErrorIs(t, err, config.ErrUnknownDriver)
	})
}

func TestNewLogger(t *testing.T) {
	s := config.DefaultSettings()
	s.LogLevel = slog.LevelWarn

	var buf bytes.Buffer
	logger := s.NewLogger(&buf)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

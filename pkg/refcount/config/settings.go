package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/randalmurphal/refcount/pkg/refcount/diagnostics"
)

// Store drivers accepted under report_store.driver.
const (
	DriverNone   = ""
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverPebble = "pebble"
)

// ErrUnknownDriver indicates an unsupported report store driver.
var ErrUnknownDriver = errors.New("unknown report store driver")

// Settings is the registry configuration read from a file.
type Settings struct {
	Name           string
	DiagnosticMode bool
	StrictMode     bool
	Metrics        bool
	Tracing        bool
	LogLevel       slog.Level
	ReportStore    StoreSettings
}

// StoreSettings selects where teardown reports are persisted.
type StoreSettings struct {
	Driver string
	Path   string
}

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() Settings {
	return Settings{
		Name:     "default",
		LogLevel: slog.LevelInfo,
	}
}

// SettingsFrom extracts Settings from a Config.
//
// Recognized keys:
//
//	name: buffers
//	diagnostic_mode: true
//	strict_mode: false
//	metrics: true
//	tracing: false
//	log_level: debug        # debug | info | warn | error
//	report_store:
//	  driver: sqlite        # memory | sqlite | pebble
//	  path: ./reports.db
func SettingsFrom(c Config) (Settings, error) {
	s := DefaultSettings()
	s.Name = c.String("name", s.Name)
	s.DiagnosticMode = c.Bool("diagnostic_mode", s.DiagnosticMode)
	s.StrictMode = c.Bool("strict_mode", s.StrictMode)
	s.Metrics = c.Bool("metrics", s.Metrics)
	s.Tracing = c.Bool("tracing", s.Tracing)

	if c.Has("log_level") {
		if err := s.LogLevel.UnmarshalText([]byte(c.String("log_level", ""))); err != nil {
			return Settings{}, fmt.Errorf("log_level: %w", err)
		}
	}

	s.ReportStore.Driver = strings.ToLower(c.String("report_store.driver", DriverNone))
	s.ReportStore.Path = c.String("report_store.path", "")

	switch s.ReportStore.Driver {
	case DriverNone, DriverMemory:
	case DriverSQLite, DriverPebble:
		if s.ReportStore.Path == "" {
			return Settings{}, fmt.Errorf("report_store.path required for driver %s", s.ReportStore.Driver)
		}
	default:
		return Settings{}, fmt.Errorf("%w: %s", ErrUnknownDriver, s.ReportStore.Driver)
	}

	return s, nil
}

// Load reads Settings from a YAML or JSON file, then applies REFCOUNT_*
// environment overrides. An empty path reads the environment only.
func Load(path string) (Settings, error) {
	c := New(nil)
	if path != "" {
		var err error
		if c, err = FromFile(path); err != nil {
			return Settings{}, err
		}
	}
	return SettingsFrom(c.Merge(FromEnv(EnvPrefix, os.Environ())))
}

// NewLogger builds a JSON slog logger at the configured level.
func (s Settings) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: s.LogLevel}))
}

// OpenStore opens the configured report store.
// Returns (nil, nil) when no store is configured.
func (s Settings) OpenStore() (diagnostics.Store, error) {
	switch s.ReportStore.Driver {
	case DriverNone:
		return nil, nil
	case DriverMemory:
		return diagnostics.NewMemoryStore(), nil
	case DriverSQLite:
		return diagnostics.NewSQLiteStore(s.ReportStore.Path)
	case DriverPebble:
		return diagnostics.NewPebbleStore(s.ReportStore.Path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, s.ReportStore.Driver)
	}
}

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "REFCOUNT"

// Format is a settings file encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat indicates a file extension or format with no decoder.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// FormatOf maps a file extension to its Format.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) (Config, error) {
	switch format {
	case FormatYAML:
		return FromYAML(data)
	case FormatJSON:
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// FromFile reads and decodes a settings file, picking the format by extension.
func FromFile(path string) (Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data, format)
}

// FromYAML decodes a single YAML document. An empty document is an empty Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON decodes a JSON object. Numbers keep their exact text.
func FromJSON(data []byte) (Config, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}

// FromEnv builds a Config from environ entries ("KEY=value") that start
// with prefix and an underscore. The rest of the name is lower-cased and a
// double underscore descends into a section:
//
//	REFCOUNT_STRICT_MODE=true            -> strict_mode: "true"
//	REFCOUNT_REPORT_STORE__DRIVER=pebble -> report_store.driver: "pebble"
func FromEnv(prefix string, environ []string) Config {
	root := make(map[string]any)
	lead := prefix + "_"

	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, lead) {
			continue
		}
		path := strings.Split(strings.ToLower(strings.TrimPrefix(name, lead)), "__")

		node := root
		for _, key := range path[:len(path)-1] {
			child, ok := node[key].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[key] = child
			}
			node = child
		}
		node[path[len(path)-1]] = value
	}
	return New(root)
}

package config

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Config is a tree of settings values addressed by dotted paths such as
// "report_store.driver". Accessors return the given default when a path is
// missing or its value cannot be read as the requested type.
//
// Values coming from the environment are strings, so the typed accessors
// also parse string values.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map.
// If data is nil, an empty Config is returned.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the value at path as a string. Numbers and booleans are
// formatted; nested sections yield defaultVal.
func (c Config) String(path, defaultVal string) string {
	switch val := c.lookup(path).(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case json.Number:
		return val.String()
	}
	return defaultVal
}

// Bool returns the value at path as a bool.
// Strings are parsed with strconv.ParseBool.
func (c Config) Bool(path string, defaultVal bool) bool {
	switch val := c.lookup(path).(type) {
	case bool:
		return val
	case string:
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// Int returns the value at path as an int. Floats are accepted only
// without a fractional part.
func (c Config) Int(path string, defaultVal int) int {
	switch val := c.lookup(path).(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

// Sub returns the section at path. Missing or scalar values yield an
// empty Config.
func (c Config) Sub(path string) Config {
	if m, ok := asMap(c.lookup(path)); ok {
		return New(m)
	}
	return New(nil)
}

// Has reports whether path resolves to a value.
func (c Config) Has(path string) bool {
	return c.lookup(path) != nil
}

// Raw returns the underlying map. It must not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}

// Merge returns a new Config with the values of other laid over c.
// Sections present in both are merged key by key; neither input is modified.
func (c Config) Merge(other Config) Config {
	return New(merge(c.data, other.data))
}

func (c Config) lookup(path string) any {
	var cur any = c.data
	for _, key := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil
		}
		if cur, ok = m[key]; !ok {
			return nil
		}
	}
	return cur
}

// asMap normalizes the map shapes produced by the YAML and JSON decoders.
func asMap(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			if s, ok := k.(string); ok {
				m[s] = v
			}
		}
		return m, true
	}
	return nil, false
}

func merge(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		if bm, ok := asMap(out[k]); ok {
			if om, ok := asMap(v); ok {
				out[k] = merge(bm, om)
				continue
			}
		}
		out[k] = v
	}
	return out
}

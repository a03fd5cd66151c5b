package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RiddheshMore/ros-component-explorer/errors"
)

// DefaultEnvPrefix prefixes every environment override.
const DefaultEnvPrefix = "EXPLORER"

// durationKeys lists the duration fields per section. Files may give them as
// Go duration strings ("30s") or as integer nanoseconds.
var durationKeys = map[string][]string{
	"store": {"debounce", "timeout", "probe_interval"},
	"http":  {"read_timeout", "write_timeout"},
	"nats":  {"reconnect_wait", "request_timeout"},
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
	getenv     func(string) string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		validation: true,
		envPrefix:  DefaultEnvPrefix,
		getenv:     os.Getenv,
	}
}

// AddLayer adds a configuration file layer. Later layers override earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables Config.Validate after loading. Schema
// validation of each file always runs.
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load merges defaults, every layer and the environment, then validates the result.
func (l *Loader) Load() (*Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return nil, errors.WrapFatal(err, "Loader", "Load", "encode defaults")
	}

	for _, path := range l.layers {
		raw, err := l.loadRaw(path)
		if err != nil {
			return nil, errors.Wrap(err, "Loader", "Load", "load "+path)
		}
		merged = deepMergeMaps(merged, raw)
	}

	cfg, err := fromMap(merged)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "Load", "decode merged configuration")
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadRaw reads one layer as a generic map, checks it against the schema and
// normalizes duration strings to nanoseconds.
func (l *Loader) loadRaw(path string) (map[string]any, error) {
	kind, err := fileKind(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "loadRaw", "detect file type")
	}

	data, err := safeReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "loadRaw", "read file")
	}

	var raw map[string]any
	switch kind {
	case "json":
		if err := validateJSONDepth(data); err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "loadRaw", "check JSON structure")
		}
		err = json.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), "Loader", "loadRaw", "decode "+kind)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	// YAML and JSON layers share value types from here on.
	if raw, err = normalize(raw); err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "loadRaw", "normalize "+kind)
	}

	if err := validateSchema(path, raw); err != nil {
		return nil, err
	}
	if err := parseDurations(raw); err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err), "Loader", "loadRaw", "parse durations")
	}
	return raw, nil
}

func normalize(raw map[string]any) (map[string]any, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// parseDurations converts duration strings to nanoseconds for json unmarshaling
func parseDurations(raw map[string]any) error {
	for section, keys := range durationKeys {
		values, ok := raw[section].(map[string]any)
		if !ok {
			continue
		}
		for _, key := range keys {
			s, ok := values[key].(string)
			if !ok {
				continue
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", section, key, err)
			}
			values[key] = d.Nanoseconds()
		}
	}
	return nil
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}
		if baseMap, ok := base[k].(map[string]any); ok {
			if overrideMap, ok := v.(map[string]any); ok {
				result[k] = deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}

func toMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromMap(m map[string]any) (*Config, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"STORE_BACKEND":        &cfg.Store.Backend,
		"DATA_FILE":            &cfg.Store.DataFile,
		"STORE_FORMAT":         &cfg.Store.Format,
		"STORE_QUERY_URL":      &cfg.Store.QueryURL,
		"STORE_STATEMENTS_URL": &cfg.Store.StatementsURL,
		"HTTP_ADDR":            &cfg.HTTP.Addr,
		"NATS_SUBJECT_PREFIX":  &cfg.NATS.SubjectPrefix,
		"NATS_USERNAME":        &cfg.NATS.Username,
		"NATS_PASSWORD":        &cfg.NATS.Password,
		"NATS_TOKEN":           &cfg.NATS.Token,
		"LOG_LEVEL":            &cfg.Log.Level,
		"LOG_FORMAT":           &cfg.Log.Format,
		"LOG_FILE":             &cfg.Log.File,
	}

	for suffix, field := range strs {
		key := l.envPrefix + "_" + suffix
		val := l.getenv(key)
		if val == "" {
			continue
		}
		if err := validateEnvVar(key, val); err != nil {
			return errors.WrapInvalid(err, "Loader", "applyEnvOverrides", "read "+key)
		}
		*field = val
	}

	if val := l.getenv(l.envPrefix + "_NATS_URLS"); val != "" {
		cfg.NATS.URLs = splitList(val)
	}
	if val := l.getenv(l.envPrefix + "_STORE_WATCH"); val != "" {
		watch, err := strconv.ParseBool(val)
		if err != nil {
			return errors.WrapInvalid(err, "Loader", "applyEnvOverrides", "parse "+l.envPrefix+"_STORE_WATCH")
		}
		cfg.Store.Watch = watch
	}
	return nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

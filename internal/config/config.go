package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/adp-labs/adpkg/internal/blobstore"
	"github.com/adp-labs/adpkg/internal/branding"
	"github.com/adp-labs/adpkg/internal/layer"
	"github.com/adp-labs/adpkg/internal/logging"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Setting keys.
const (
	KeyDigestAlgorithm  = "digest_algorithm"
	KeyLayerCompression = "layer_compression"
	KeyVerifyDigests    = "verify_digests"
	KeySchemaCheck      = "schema_check"
	KeyLogLevel         = "log_level"
	KeyIgnore           = "ignore"
)

// Settings is the typed view of the loaded configuration.
type Settings struct {
	DigestAlgorithm  string
	LayerCompression string
	VerifyDigests    bool
	SchemaCheck      bool
	LogLevel         string
	Ignore           []string
}

// keys maps each known setting to its default and a parser for values given
// on the command line.
var keys = map[string]struct {
	def   interface{}
	parse func(string) (interface{}, error)
}{
	KeyDigestAlgorithm: {"sha256", func(v string) (interface{}, error) {
		alg, err := blobstore.ParseAlgorithm(v)
		return string(alg), err
	}},
	KeyLayerCompression: {"none", func(v string) (interface{}, error) {
		c, err := layer.ParseCompression(v)
		return string(c), err
	}},
	KeyVerifyDigests: {true, parseBool},
	KeySchemaCheck:   {true, parseBool},
	KeyLogLevel: {logging.DefaultLevel, func(v string) (interface{}, error) {
		if _, err := logging.ParseLevel(v); err != nil {
			return nil, err
		}
		return strings.ToLower(strings.TrimSpace(v)), nil
	}},
	KeyIgnore: {[]string{}, func(v string) (interface{}, error) {
		return splitList(v), nil
	}},
}

// Keys returns every known setting name, sorted.
func Keys() []string {
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Dir returns the path to the config directory (~/.adpkg/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.adpkg/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment
// (ADPKG_DIGEST_ALGORITHM and so on), with defaults for every key.
func Load() {
	for k, spec := range keys {
		viper.SetDefault(k, spec.def)
	}
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Current returns the loaded settings.
func Current() Settings {
	return Settings{
		DigestAlgorithm:  viper.GetString(KeyDigestAlgorithm),
		LayerCompression: viper.GetString(KeyLayerCompression),
		VerifyDigests:    viper.GetBool(KeyVerifyDigests),
		SchemaCheck:      viper.GetBool(KeySchemaCheck),
		LogLevel:         viper.GetString(KeyLogLevel),
		Ignore:           ignoreList(),
	}
}

// ignoreList reads the ignore setting, which is a YAML list in the config
// file but a comma-separated string when it comes from the environment.
func ignoreList() []string {
	switch v := viper.Get(KeyIgnore).(type) {
	case string:
		return splitList(v)
	default:
		return viper.GetStringSlice(KeyIgnore)
	}
}

// Get returns a config value by key, formatted for display. Returns empty
// string if not set.
func Get(key string) string {
	if key == KeyIgnore {
		return strings.Join(ignoreList(), ",")
	}
	return viper.GetString(key)
}

// Set validates a value for a known key and saves it to the config file.
func Set(key, value string) error {
	spec, ok := keys[key]
	if !ok {
		return fmt.Errorf("unknown key %q (known keys: %s)", key, strings.Join(Keys(), ", "))
	}
	parsed, err := spec.parse(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, parsed)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

func parseBool(v string) (interface{}, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return nil, fmt.Errorf("%q is not a boolean", v)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Check reports problems with the loaded configuration: a config file that
// exists but cannot be read, and values that would be rejected by Set.
func Check() []error {
	var problems []error
	if _, err := os.Stat(FilePath()); err == nil {
		if err := viper.ReadInConfig(); err != nil {
			problems = append(problems, fmt.Errorf("reading %s: %w", FilePath(), err))
		}
	}
	for _, k := range Keys() {
		if k == KeyIgnore {
			continue
		}
		if _, err := keys[k].parse(Get(k)); err != nil {
			problems = append(problems, fmt.Errorf("%s (%s): %w", k, branding.EnvVar(k), err))
		}
	}
	return problems
}

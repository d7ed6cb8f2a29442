package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix, e.g. NODULE_REDIS_ADDR.
const envPrefix = "NODULE"

// envKeys lists every key that may be set from the environment alone.  viper
// only consults the environment during Unmarshal for keys it already knows.
var envKeys = []string{
	"server.host", "server.port", "server.mode",
	"server.read_timeout", "server.write_timeout", "server.shutdown_timeout",
	"log.level", "log.format", "log.output_paths",
	"classifier.max_text_length", "classifier.max_batch_size", "classifier.batch_concurrency",
	"redis.enabled", "redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"redis.dial_timeout", "redis.key_prefix", "redis.ttl",
	"database.enabled", "database.host", "database.port", "database.user", "database.password",
	"database.db_name", "database.ssl_mode", "database.max_conns", "database.min_conns",
	"database.max_conn_lifetime", "database.migrations_path", "database.auto_migrate",
	"kafka.enabled", "kafka.brokers", "kafka.group_id", "kafka.input_topic", "kafka.issued_topic",
	"kafka.rejected_topic", "kafka.dead_letter_topic", "kafka.max_retries", "kafka.retry_backoff",
	"kafka.ensure_topics", "kafka.sasl_mechanism", "kafka.sasl_username", "kafka.sasl_password",
	"kafka.tls_enabled", "kafka.tls_ca_path",
	"metrics.enabled", "metrics.namespace", "metrics.path",
}

// newViper returns a viper instance reading YAML with NODULE_* overrides;
// "database.host" maps to NODULE_DATABASE_HOST.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges environment overrides,
// applies defaults and validates.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from NODULE_* variables and defaults only.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// LoadOrDefault loads configPath when it is non-empty and otherwise searches
// the standard locations, falling back to environment and defaults.
func LoadOrDefault(configPath string, searchPaths ...string) (*Config, error) {
	if configPath != "" {
		return Load(configPath)
	}
	for _, p := range searchPaths {
		if fileExists(p) {
			return Load(p)
		}
	}
	return LoadFromEnv()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Watch re-reads configPath on every write and passes the new Config to
// onChange.  Invalid files are reported through onError and otherwise ignored.
// Only hot-reloadable settings (log level) should be applied by callers.
func Watch(configPath string, onChange func(*Config), onError func(error)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad panics when Load fails.  For use in main only.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending

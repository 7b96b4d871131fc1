package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/medetech-go/assets"
	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/pkg/filesystem"
	"github.com/doeshing/medetech-go/internal/ports"
)

// EnvPrefix prefixes environment overrides, e.g. MEDETECH_MODEL_NAME.
const EnvPrefix = "MEDETECH"

// FileLoader loads YAML configuration from ~/.medetech/config.yaml (overridable via MEDETECH_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider. A missing file is created from the
// embedded defaults. Every key can be overridden by MEDETECH_<SECTION>_<KEY>.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := writeDefault(path, DefaultConfig()); err != nil {
			return domain.Config{}, fmt.Errorf("write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := registerDefaults(v); err != nil {
		return domain.Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		return domain.Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return hydrateDefaults(cfg), nil
}

// Path returns the resolved config file path.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom := os.Getenv("MEDETECH_CONFIG"); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(filesystem.AppDir(), "config.yaml")
}

// Reset backs up the current file, if any, and rewrites the defaults.
func (l *FileLoader) Reset() (string, error) {
	path := l.Path()
	backup := ""
	if data, err := os.ReadFile(path); err == nil {
		backup = fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102T150405"))
		if err := os.WriteFile(backup, data, domain.SecureFilePermissions); err != nil {
			return "", err
		}
	}
	if err := ensureConfigDir(path); err != nil {
		return "", err
	}
	return backup, writeDefault(path, DefaultConfig())
}

// DefaultConfig returns the embedded default configuration.
func DefaultConfig() domain.Config {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		cfg = domain.Config{ConfigFormatVersion: "1"}
	}
	return hydrateDefaults(cfg)
}

// ResolveAPIKey returns the model credential: the inline key, then the
// configured environment variable, then GEMINI_API_KEY, then the legacy
// EXPO_PUBLIC_GEMINI_API_KEY. An empty result selects mock mode.
func ResolveAPIKey(model domain.ModelDefinition) string {
	if key := strings.TrimSpace(model.APIKey); key != "" {
		return key
	}
	for _, name := range []string{model.AuthEnvVar, domain.DefaultAuthEnvVar, domain.LegacyAuthEnvVar} {
		if name == "" {
			continue
		}
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value
		}
	}
	return ""
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
}

func writeDefault(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// registerDefaults declares every key of the embedded config so that
// environment overrides reach Unmarshal even when the file omits the key.
func registerDefaults(v *viper.Viper) error {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &raw); err != nil {
		return fmt.Errorf("parse embedded config: %w", err)
	}
	setDefaults(v, "", raw)
	v.SetDefault("model.api_key", "")
	v.SetDefault("identification.catalog_file", "")
	return nil
}

func setDefaults(v *viper.Viper, prefix string, values map[string]interface{}) {
	for key, value := range values {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			setDefaults(v, full, nested)
			continue
		}
		v.SetDefault(full, value)
	}
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Model.Name == "" {
		cfg.Model.Name = domain.DefaultModelName
	}
	if cfg.Model.Endpoint == "" {
		cfg.Model.Endpoint = domain.DefaultModelEndpoint
	}
	if cfg.Model.AuthEnvVar == "" {
		cfg.Model.AuthEnvVar = domain.DefaultAuthEnvVar
	}
	if cfg.Network.ProbeURL == "" {
		cfg.Network.ProbeURL = domain.DefaultProbeURL
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = domain.StorageBackendSQLite
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	return cfg
}

var _ ports.ConfigProvider = (*FileLoader)(nil)

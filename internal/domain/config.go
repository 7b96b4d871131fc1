package domain

import "time"

// Config mirrors ~/.medetech/config.yaml.
type Config struct {
	ConfigFormatVersion string                 `yaml:"config_format_version" mapstructure:"config_format_version"`
	Model               ModelDefinition        `yaml:"model" mapstructure:"model"`
	Identification      IdentificationSettings `yaml:"identification" mapstructure:"identification"`
	Network             NetworkSettings        `yaml:"network" mapstructure:"network"`
	Storage             StorageSettings        `yaml:"storage" mapstructure:"storage"`
	Server              ServerSettings         `yaml:"server" mapstructure:"server"`
	Log                 LogSettings            `yaml:"log" mapstructure:"log"`
}

// IdentificationSettings tunes the identification pipeline.
type IdentificationSettings struct {
	MockImageDelayMS int    `yaml:"mock_image_delay_ms" mapstructure:"mock_image_delay_ms"`
	MockTextDelayMS  int    `yaml:"mock_text_delay_ms" mapstructure:"mock_text_delay_ms"`
	CatalogFile      string `yaml:"catalog_file,omitempty" mapstructure:"catalog_file"`
}

// NetworkSettings configures the connectivity gate.
type NetworkSettings struct {
	ProbeURL            string `yaml:"probe_url" mapstructure:"probe_url"`
	ProbeTimeoutSeconds int    `yaml:"probe_timeout_seconds" mapstructure:"probe_timeout_seconds"`
	ProbeRetries        int    `yaml:"probe_retries" mapstructure:"probe_retries"`
	AssumeOnline        bool   `yaml:"assume_online" mapstructure:"assume_online"`
}

// StorageSettings selects the local key-value backend.
type StorageSettings struct {
	Backend       string `yaml:"backend" mapstructure:"backend"`
	Path          string `yaml:"path" mapstructure:"path"`
	SecureKeyEnv  string `yaml:"secure_key_env" mapstructure:"secure_key_env"`
	SecureKeyFile string `yaml:"secure_key_file" mapstructure:"secure_key_file"`
}

// ServerSettings configures `medetech serve`.
type ServerSettings struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogSettings configures the logger.
type LogSettings struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// Storage backends.
const (
	StorageBackendSQLite = "sqlite"
	StorageBackendFile   = "file"
)

// MockImageDelay returns the simulated image latency with default fallback.
func (s IdentificationSettings) MockImageDelay() time.Duration {
	if s.MockImageDelayMS <= 0 {
		return DefaultMockImageDelay
	}
	return time.Duration(s.MockImageDelayMS) * time.Millisecond
}

// MockTextDelay returns the simulated text latency with default fallback.
func (s IdentificationSettings) MockTextDelay() time.Duration {
	if s.MockTextDelayMS <= 0 {
		return DefaultMockTextDelay
	}
	return time.Duration(s.MockTextDelayMS) * time.Millisecond
}

// ProbeTimeout returns the per-attempt probe timeout with default fallback.
func (n NetworkSettings) ProbeTimeout() time.Duration {
	if n.ProbeTimeoutSeconds <= 0 {
		return DefaultProbeTimeout
	}
	return time.Duration(n.ProbeTimeoutSeconds) * time.Second
}

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/doeshing/medetech-go/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := validateModel(cfg.Model); err != nil {
		return err
	}
	if err := validateIdentification(cfg.Identification); err != nil {
		return err
	}
	if err := validateNetwork(cfg.Network); err != nil {
		return err
	}
	if err := validateStorage(cfg.Storage); err != nil {
		return err
	}
	return validateLog(cfg.Log)
}

func validateModel(model domain.ModelDefinition) error {
	if strings.TrimSpace(model.Name) == "" {
		return fmt.Errorf("model.name must be set")
	}
	if err := validateURL("model.endpoint", model.Endpoint); err != nil {
		return err
	}
	if model.TimeoutSeconds < 0 {
		return fmt.Errorf("model.timeout_seconds must be >= 0")
	}
	return nil
}

func validateIdentification(id domain.IdentificationSettings) error {
	if id.MockImageDelayMS < 0 || id.MockTextDelayMS < 0 {
		return fmt.Errorf("identification mock delays must be >= 0")
	}
	return nil
}

func validateNetwork(network domain.NetworkSettings) error {
	if err := validateURL("network.probe_url", network.ProbeURL); err != nil {
		return err
	}
	if network.ProbeRetries < 0 {
		return fmt.Errorf("network.probe_retries must be >= 0")
	}
	if network.ProbeTimeoutSeconds < 0 {
		return fmt.Errorf("network.probe_timeout_seconds must be >= 0")
	}
	return nil
}

func validateStorage(storage domain.StorageSettings) error {
	switch strings.ToLower(storage.Backend) {
	case "", domain.StorageBackendSQLite, domain.StorageBackendFile:
		return nil
	default:
		return fmt.Errorf("storage.backend must be sqlite|file, got %s", storage.Backend)
	}
}

func validateLog(log domain.LogSettings) error {
	switch strings.ToLower(log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("log.level must be debug|info|warn|error, got %s", log.Level)
	}
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s must be set", field)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s invalid: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %s", field, raw)
	}
	return nil
}

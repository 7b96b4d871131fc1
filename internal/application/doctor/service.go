package doctor

import (
	"context"
	"fmt"

	configapp "github.com/doeshing/medetech-go/internal/application/config"
	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/ports"
)

const probeKey = "doctor_probe"

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Connectivity   ports.ConnectivityChecker
	Store          ports.KeyValueStore
	Secure         ports.SecureStore
	History        ports.HistoryRepository
	MockMode       bool
	StorageInfo    string
}

// Run executes checks and returns a report. The error is set only when the
// configuration cannot be loaded, since no other check is meaningful then.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := configapp.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("loaded format %s", cfg.ConfigFormatVersion)))
	}

	checks = append(checks, s.modeCheck(cfg))
	checks = append(checks, s.connectivityCheck(ctx, cfg))
	checks = append(checks, s.storageCheck(ctx))
	checks = append(checks, s.secureCheck(ctx))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) modeCheck(cfg domain.Config) domain.HealthCheck {
	if s.MockMode {
		return warn("Identification", fmt.Sprintf("mock mode: set %s or %s for live results", cfg.Model.AuthEnvVar, domain.LegacyAuthEnvVar))
	}
	grounding := "off"
	if cfg.Model.Grounding {
		grounding = "on"
	}
	return ok("Identification", fmt.Sprintf("live: %s (grounding %s)", cfg.Model.GetName(), grounding))
}

func (s *Service) connectivityCheck(ctx context.Context, cfg domain.Config) domain.HealthCheck {
	if s.Connectivity == nil {
		return warn("Connectivity", "checker not initialized")
	}
	if cfg.Network.AssumeOnline {
		return warn("Connectivity", "probe disabled (network.assume_online)")
	}
	if !s.Connectivity.Connected(ctx) {
		return fail("Connectivity", fmt.Sprintf("offline: %s unreachable", cfg.Network.ProbeURL))
	}
	return ok("Connectivity", "online")
}

func (s *Service) storageCheck(ctx context.Context) domain.HealthCheck {
	if s.Store == nil {
		return warn("History storage", "store not initialized")
	}
	if _, _, err := s.Store.Get(ctx, domain.KeyScanHistory); err != nil {
		return fail("History storage", fmt.Sprintf("unreadable: %v", err))
	}
	details := s.StorageInfo
	if s.History != nil {
		details = fmt.Sprintf("%s, %d/%d entries", details, len(s.History.List(ctx)), domain.HistoryCapacity)
	}
	return ok("History storage", details)
}

func (s *Service) secureCheck(ctx context.Context) domain.HealthCheck {
	if s.Secure == nil {
		return warn("Secure storage", "store not initialized")
	}
	if err := s.Secure.Set(ctx, probeKey, "ok"); err != nil {
		return fail("Secure storage", fmt.Sprintf("write failed: %v", err))
	}
	defer func() { _ = s.Secure.Delete(ctx, probeKey) }()
	value, found, err := s.Secure.Get(ctx, probeKey)
	if err != nil || !found || value != "ok" {
		return fail("Secure storage", fmt.Sprintf("round trip failed: %v", err))
	}
	if _, _, err := s.Secure.Get(ctx, domain.KeyUserPassword); err != nil {
		return fail("Secure storage", fmt.Sprintf("stored credentials unreadable (master key changed?): %v", err))
	}
	return ok("Secure storage", "encryption key valid")
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}

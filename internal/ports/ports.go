// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The identification pipeline, history log and account
// services depend only on these interfaces, so the generative backend, network
// probe and on-device storage can be swapped or stubbed in tests.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., Generator, KeyValueStore)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"io"

	"github.com/doeshing/medetech-go/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.medetech/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ConnectivityChecker reports whether the network is reachable.
type ConnectivityChecker interface {
	Connected(ctx context.Context) bool
}

// Generator invokes a hosted generative model and returns its raw text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

// GenerateRequest is a single-turn prompt with an optional inline image.
type GenerateRequest struct {
	Model       string
	Instruction string
	Image       *InlineData
	Grounding   bool
}

// InlineData carries a base64 payload embedded in the request.
type InlineData struct {
	MimeType string
	Data     string
}

// GenerateResponse holds the concatenated model text and any grounding citations.
type GenerateResponse struct {
	Text    string
	Sources []string
}

// KeyValueStore is the general on-device store for non-sensitive data.
// Get reports found=false for absent keys without an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// SecureStore keeps sensitive values (password hash, session token) encrypted at rest.
type SecureStore interface {
	KeyValueStore
}

// HistoryRecorder accepts identification results into the scan history.
type HistoryRecorder interface {
	Append(ctx context.Context, record domain.MedicineRecord) domain.HistoryEntry
}

// HistoryRepository is the full history log surface used by the CLI and HTTP API.
type HistoryRepository interface {
	HistoryRecorder
	List(ctx context.Context) []domain.HistoryEntry
	Get(ctx context.Context, id string) (domain.HistoryEntry, bool)
	Delete(ctx context.Context, id string)
	Clear(ctx context.Context)
	Export(ctx context.Context, w io.Writer) error
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}

package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Confidence gate thresholds, on the model's 0-100 scale.
const (
	// ConfidenceAcceptThreshold is the minimum score for showing an image result.
	ConfidenceAcceptThreshold = 85
	// ConfidenceHighThreshold is the minimum score labelled high.
	ConfidenceHighThreshold = 95
)

// History constants
const (
	// HistoryCapacity is the number of most recent entries kept in the log
	HistoryCapacity = 50
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
)

// Timeout and duration constants
const (
	// DefaultMockImageDelay simulates the image analysis latency in mock mode
	DefaultMockImageDelay = 2 * time.Second
	// DefaultMockTextDelay simulates the text lookup latency in mock mode
	DefaultMockTextDelay = 1500 * time.Millisecond
	// DefaultProbeTimeout bounds a single connectivity probe attempt
	DefaultProbeTimeout = 5 * time.Second
	// DefaultProbeRetries is the retry budget of the connectivity probe
	DefaultProbeRetries = 1
)

// Model defaults
const (
	DefaultModelName     = "gemini-2.0-flash-exp"
	DefaultModelEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultAuthEnvVar    = "GEMINI_API_KEY"
	// LegacyAuthEnvVar is the variable the mobile build used.
	LegacyAuthEnvVar = "EXPO_PUBLIC_GEMINI_API_KEY"
	DefaultProbeURL  = "https://clients3.google.com/generate_204"
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)

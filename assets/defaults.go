package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// MedicineCatalogYAML contains the embedded target medicine list and visual
// reference guide used to build the image identification prompt.
//
//go:embed defaults/medicines.yaml
var MedicineCatalogYAML []byte

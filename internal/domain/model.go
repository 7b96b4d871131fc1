package domain

import "time"

// ModelDefinition describes the generative backend declared in the config file.
type ModelDefinition struct {
	Name           string `yaml:"name" mapstructure:"name"`
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey         string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	AuthEnvVar     string `yaml:"auth_env_var" mapstructure:"auth_env_var"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	Grounding      bool   `yaml:"grounding" mapstructure:"grounding"`

	// ResponseTextPath is a gjson path selecting the text parts of a reply.
	// Default: "candidates.0.content.parts.#.text"
	ResponseTextPath string `yaml:"response_text_path,omitempty" mapstructure:"response_text_path"`

	// SourcesPath is a gjson path selecting grounding citation URIs.
	// Default: "candidates.0.groundingMetadata.groundingChunks.#.web.uri"
	SourcesPath string `yaml:"sources_path,omitempty" mapstructure:"sources_path"`

	// ExtraHeaders contains additional HTTP headers to send with each request.
	ExtraHeaders map[string]string `yaml:"extra_headers,omitempty" mapstructure:"extra_headers"`
}

const (
	DefaultResponseTextPath = "candidates.0.content.parts.#.text"
	DefaultSourcesPath      = "candidates.0.groundingMetadata.groundingChunks.#.web.uri"
)

// GetName returns the model identifier with default fallback.
func (m ModelDefinition) GetName() string {
	if m.Name == "" {
		return DefaultModelName
	}
	return m.Name
}

// GetEndpoint returns the API base URL with default fallback.
func (m ModelDefinition) GetEndpoint() string {
	if m.Endpoint == "" {
		return DefaultModelEndpoint
	}
	return m.Endpoint
}

// GetResponseTextPath returns the text extraction path with default fallback.
func (m ModelDefinition) GetResponseTextPath() string {
	if m.ResponseTextPath == "" {
		return DefaultResponseTextPath
	}
	return m.ResponseTextPath
}

// GetSourcesPath returns the citation extraction path with default fallback.
func (m ModelDefinition) GetSourcesPath() string {
	if m.SourcesPath == "" {
		return DefaultSourcesPath
	}
	return m.SourcesPath
}

// Timeout returns the HTTP timeout for model calls. Zero means none.
func (m ModelDefinition) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// Package ai adapts hosted generative models to ports.Generator.
package ai

import (
	"net/http"

	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/ports"
)

// Factory builds generators that share one HTTP client.
type Factory struct {
	httpClient *http.Client
}

// NewFactory returns a Factory. A nil client gets one without a timeout so a
// request is bounded only by its context.
func NewFactory(client *http.Client) *Factory {
	if client == nil {
		client = &http.Client{}
	}
	return &Factory{httpClient: client}
}

// ForModel returns a generator for model authenticated with apiKey.
func (f *Factory) ForModel(model domain.ModelDefinition, apiKey string) (ports.Generator, error) {
	client := f.httpClient
	if timeout := model.Timeout(); timeout > 0 {
		clone := *client
		clone.Timeout = timeout
		client = &clone
	}
	gen, err := NewGemini(model, apiKey, client)
	if err != nil {
		return nil, err
	}
	return gen, nil
}

// Package network implements the connectivity gate checked before every
// identification request.
package network

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/ports"
)

// Probe reports connectivity by sending a HEAD request to a well-known URL.
// Any HTTP response counts as connected; only transport failures retry.
type Probe struct {
	url    string
	client *retryablehttp.Client
	log    ports.Logger
}

// NewProbe builds a Probe from the network settings.
func NewProbe(settings domain.NetworkSettings, log ports.Logger) *Probe {
	url := settings.ProbeURL
	if url == "" {
		url = domain.DefaultProbeURL
	}
	retries := settings.ProbeRetries
	if retries < 0 {
		retries = 0
	}

	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 500 * time.Millisecond
	client.HTTPClient.Timeout = settings.ProbeTimeout()
	client.CheckRetry = retryTransportErrors
	client.Logger = leveledLogger{log: log}

	return &Probe{url: url, client: client, log: log}
}

// Connected implements ports.ConnectivityChecker.
func (p *Probe) Connected(ctx context.Context) bool {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		p.log.Warn("connectivity probe request invalid", map[string]interface{}{"url": p.url, "error": err.Error()})
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug("connectivity probe failed", map[string]interface{}{"url": p.url, "error": err.Error()})
		return false
	}
	resp.Body.Close()
	return true
}

func retryTransportErrors(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return err != nil, nil
}

// Static is a fixed connectivity answer.
type Static bool

// Connected implements ports.ConnectivityChecker.
func (s Static) Connected(context.Context) bool {
	return bool(s)
}

// leveledLogger routes retryablehttp's logging into ports.Logger at debug level.
type leveledLogger struct {
	log ports.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, fields(keysAndValues))
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, fields(keysAndValues))
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, fields(keysAndValues))
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, fields(keysAndValues))
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return out
}

var (
	_ ports.ConnectivityChecker   = (*Probe)(nil)
	_ ports.ConnectivityChecker   = Static(false)
	_ retryablehttp.LeveledLogger = leveledLogger{}
)

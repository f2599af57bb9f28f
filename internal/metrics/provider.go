// internal/metrics/provider.go
package metrics

import (
	"context"
	"time"

	"github.com/mwiater/physbench/internal/providers"
)

// Provider is a decorator that wraps a ChatProvider to record request metrics.
type Provider struct {
	wrapped  providers.ChatProvider
	recorder *Recorder
}

// NewProvider creates a new metrics-enabled provider that wraps an existing ChatProvider.
func NewProvider(wrapped providers.ChatProvider, recorder *Recorder) *Provider {
	return &Provider{wrapped: wrapped, recorder: recorder}
}

// Complete times the wrapped call and records its outcome.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	start := time.Now()
	completion, err := p.wrapped.Complete(ctx, req)
	p.recorder.ObserveRequest(req.Host.Model, time.Since(start), err)
	return completion, err
}

// Close passes the call through to the wrapped provider.
func (p *Provider) Close() error {
	return p.wrapped.Close()
}

// internal/providerfactory/factory.go
package providerfactory

import (
	"fmt"

	"github.com/mwiater/physbench/internal/appconfig"
	"github.com/mwiater/physbench/internal/logging"
	"github.com/mwiater/physbench/internal/metrics"
	"github.com/mwiater/physbench/internal/providers"
	"github.com/mwiater/physbench/internal/providers/openai"
)

// NewChatProvider builds the OpenAI-compatible provider used by both pipelines and wraps it
// with request metrics when a recorder is supplied.
func NewChatProvider(cfg *appconfig.Config, recorder *metrics.Recorder) (providers.ChatProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	var provider providers.ChatProvider = openai.New(cfg)
	if recorder != nil {
		logging.Debugf("[METRICS] wrapping provider with metrics provider")
		provider = metrics.NewProvider(provider, recorder)
	}
	return provider, nil
}

// internal/providers/openai/provider.go
// Package openai provides a ChatProvider backed by an OpenAI-compatible HTTP API
// (OpenAI, vLLM, llama.cpp server and similar).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/physbench/internal/appconfig"
	"github.com/mwiater/physbench/internal/logging"
	"github.com/mwiater/physbench/internal/providers"
	"github.com/mwiater/physbench/internal/util"
)

// Provider implements providers.ChatProvider against /chat/completions.
type Provider struct {
	client  *http.Client
	timeout time.Duration
}

// New constructs a Provider configured with the application's request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false, MaxIdleConnsPerHost: 64},
		},
		timeout: timeout,
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage providers.Usage `json:"usage"`
}

// Complete issues exactly one chat completion request bounded by the configured timeout.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	payload := map[string]any{
		"model":    req.Host.Model,
		"messages": toOpenAIMessages(req.Messages),
	}
	applyParameters(payload, req.Parameters)
	if req.JSONMode {
		payload["response_format"] = map[string]any{"type": "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return providers.Completion{}, err
	}
	host := req.Host.Identifier()
	logging.LogRequest("PHYSBENCH->LLM", host, req.Host.Model, body)

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := strings.TrimRight(req.Host.URL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return providers.Completion{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if key := strings.TrimSpace(req.Host.APIKey); key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+key)
	}

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.Completion{}, fmt.Errorf("%w: %s: %w", providers.ErrTransport, host, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.Completion{}, fmt.Errorf("%w: read response from %s: %w", providers.ErrTransport, host, err)
	}
	logging.LogRequest("LLM->PHYSBENCH", host, req.Host.Model, raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return providers.Completion{}, fmt.Errorf("%w: /chat/completions returned %s: %s",
			providers.ErrTransport, resp.Status, util.TruncateRunes(util.SingleLine(string(raw)), 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return providers.Completion{}, fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return providers.Completion{}, fmt.Errorf("%w: response contained no choices", providers.ErrEmptyCompletion)
	}

	choice := parsed.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		return providers.Completion{}, fmt.Errorf("%w: finish_reason=%q", providers.ErrEmptyCompletion, choice.FinishReason)
	}
	model := parsed.Model
	if model == "" {
		model = req.Host.Model
	}
	return providers.Completion{
		Model:        model,
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage:        parsed.Usage,
		Duration:     time.Since(start),
	}, nil
}

// Close releases idle connections held by the provider.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func applyParameters(payload map[string]any, params appconfig.Parameters) {
	if params.Temperature != nil {
		payload["temperature"] = *params.Temperature
	}
	if params.TopP != nil {
		payload["top_p"] = *params.TopP
	}
	if params.MaxTokens != nil {
		payload["max_tokens"] = *params.MaxTokens
	}
	if params.Seed != nil {
		payload["seed"] = *params.Seed
	}
}

func toOpenAIMessages(messages []providers.ChatMessage) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		role := strings.TrimSpace(msg.Role)
		if role == "" {
			role = "user"
		}
		out = append(out, openAIMessage{Role: role, Content: msg.Content})
	}
	return out
}

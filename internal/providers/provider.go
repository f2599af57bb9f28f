// internal/providers/provider.go

// Package providers defines the interface for sending one prompt to a chat completion endpoint.
// Both the solution generator and the judge are reached through it, so pipelines never construct
// HTTP clients themselves.
package providers

import (
	"context"
	"errors"
	"time"

	"github.com/mwiater/physbench/internal/appconfig"
)

var (
	// ErrTransport marks network failures, timeouts and non-success HTTP statuses.
	ErrTransport = errors.New("transport failure")
	// ErrEmptyCompletion marks replies that carry no usable content.
	ErrEmptyCompletion = errors.New("empty completion")
)

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// CompletionRequest is a single non-streaming chat completion call.
type CompletionRequest struct {
	Host       appconfig.Host
	Messages   []ChatMessage
	Parameters appconfig.Parameters
	// JSONMode asks the endpoint for a JSON object reply.
	JSONMode bool
}

// Usage reports token accounting when the endpoint provides it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the first choice of a chat completion reply.
type Completion struct {
	Model        string
	Content      string
	FinishReason string
	Usage        Usage
	Duration     time.Duration
}

// ChatProvider is implemented by every model endpoint client.
type ChatProvider interface {
	// Complete sends the request once and returns the reply text or an error.
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
	// Close cleans up any resources used by the provider.
	Close() error
}

// UserPrompt builds the single-message conversation both pipelines send.
func UserPrompt(content string) []ChatMessage {
	return []ChatMessage{{Role: "user", Content: content}}
}

// IsDeadlineExceeded reports whether err came from a request timeout.
func IsDeadlineExceeded(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}

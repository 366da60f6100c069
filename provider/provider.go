package provider

import (
	"context"
	"errors"
	"time"

	openai_provider "github.com/studyforge/studyforge/provider/openai"
)

// Client represents different generation gateways
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
	Gemini    Client = "gemini"
)

// Provider is the interface all generation collaborators must satisfy. The
// response is free-form text; callers are responsible for extracting any
// structured payload out of it.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Options configures a provider client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewProvider creates a generation client for the given gateway type.
func NewProvider(client Client, opts Options) (Provider, error) {
	switch client {
	case OpenAI:
		if opts.APIKey == "" {
			return nil, errors.New("api key not set")
		}
		return openai_provider.NewClient(opts.APIKey, opts.BaseURL, opts.Model, opts.Temperature, opts.MaxTokens, opts.Timeout), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported generation provider")
	}
}

package ai

import (
	"context"
)

// Completer turns a prompt into raw provider text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is one completion call. Nil optional fields take the gateway
// defaults.
type Request struct {
	// BatchSize is the number of movies the prompt asks for.
	BatchSize     int
	SystemMessage string
	Prompt        string
	Model         string
	Temperature   *float64
	MaxTokens     *int
}

// Config holds the gateway defaults.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

func NewConfig() Config {
	return Config{
		Model:       "gpt-4-turbo-preview",
		Temperature: 0.7,
		MaxTokens:   4000,
	}
}

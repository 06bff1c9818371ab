package ai

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/aaronds650/MovieMeV2/internal/logging"
	"github.com/aaronds650/MovieMeV2/internal/metrics"
)

const seedRange = 1_000_000

// Gateway validates completion requests, fills defaults, sends them through
// a ChatClient and classifies failures.
type Gateway struct {
	client ChatClient
	config Config
	seed   func() int64
}

func NewGateway(client ChatClient, config Config) *Gateway {
	defaults := NewConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaults.MaxTokens
	}
	return &Gateway{
		client: client,
		config: config,
		seed:   func() int64 { return rand.Int64N(seedRange) },
	}
}

// WithSeed replaces the per-call seed source.
func (g *Gateway) WithSeed(seed func() int64) *Gateway {
	g.seed = seed
	return g
}

func (g *Gateway) Complete(ctx context.Context, req Request) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}

	chat := ChatRequest{
		Model:       g.config.Model,
		System:      req.SystemMessage,
		User:        req.Prompt,
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
		Seed:        g.seed(),
		JSONMode:    true,
	}
	if req.Model != "" {
		chat.Model = req.Model
	}
	if req.Temperature != nil {
		chat.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		chat.MaxTokens = *req.MaxTokens
	}

	start := time.Now()
	content, err := g.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		classified := classify(err)
		metrics.RecordCompletion(chat.Model, string(classified.Kind), time.Since(start))
		logging.Ctx(ctx).Error().
			Err(err).
			Str("kind", string(classified.Kind)).
			Str("model", chat.Model).
			Int("batch_size", req.BatchSize).
			Msg("completion failed")
		return "", classified
	}

	if strings.TrimSpace(content) == "" {
		metrics.RecordCompletion(chat.Model, string(KindEmptyResponse), time.Since(start))
		return "", newError(KindEmptyResponse, errors.New("no content received from provider"))
	}

	metrics.RecordCompletion(chat.Model, "", time.Since(start))
	logging.Ctx(ctx).Debug().
		Str("model", chat.Model).
		Int64("seed", chat.Seed).
		Dur("duration", time.Since(start)).
		Msg("completion received")

	return content, nil
}

func validateRequest(req Request) error {
	if req.BatchSize <= 0 {
		return ValidationError("remainingCount", "remainingCount must be a positive number")
	}
	if strings.TrimSpace(req.SystemMessage) == "" {
		return ValidationError("systemMessage", "systemMessage is required and must be a string")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return ValidationError("prompt", "prompt is required and must be a string")
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return ValidationError("temperature", "temperature must be between 0 and 2")
	}
	if req.MaxTokens != nil && *req.MaxTokens <= 0 {
		return ValidationError("max_tokens", "max_tokens must be a positive number")
	}
	return nil
}

// classify maps a client error to a Kind using the provider's status and
// error code.
func classify(err error) *Error {
	var already *Error
	if errors.As(err, &already) {
		return already
	}

	if errors.Is(err, ErrMissingCredential) {
		return newError(KindConfiguration, err)
	}

	var perr *ProviderError
	if !errors.As(err, &perr) {
		return newError(KindInternal, err)
	}

	switch {
	case perr.StatusCode == http.StatusUnauthorized, perr.Code == "invalid_api_key":
		return newError(KindConfiguration, err)
	case perr.StatusCode == http.StatusTooManyRequests &&
		(perr.Code == "insufficient_quota" || perr.Type == "insufficient_quota"):
		return newError(KindProviderQuotaExceeded, err)
	case perr.StatusCode == http.StatusTooManyRequests:
		return newError(KindProviderRateLimited, err)
	default:
		return newError(KindInternal, err)
	}
}

package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// ChatClient sends a single chat completion and returns the first choice's
// content.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (string, error)
}

type ChatRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	Seed        int64
	JSONMode    bool
}

type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIClient(apiKey, baseURL string, timeout time.Duration) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// HasCredential reports whether an API key was configured.
func (c *OpenAIClient) HasCredential() bool {
	return c.apiKey != ""
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
	Temperature    float64               `json:"temperature"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Seed           *int64                `json:"seed,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *openAIError `json:"error"`
}

func (c *OpenAIClient) CreateChatCompletion(ctx context.Context, chat ChatRequest) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingCredential
	}

	reqBody := openAIRequest{
		Model: chat.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: chat.System},
			{Role: "user", Content: chat.User},
		},
		Temperature: chat.Temperature,
		MaxTokens:   chat.MaxTokens,
		Seed:        &chat.Seed,
	}
	if chat.JSONMode {
		reqBody.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", &ProviderError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if openAIResp.Error != nil || resp.StatusCode != http.StatusOK {
		perr := &ProviderError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if openAIResp.Error != nil {
			perr.Type = openAIResp.Error.Type
			perr.Code = openAIResp.Error.Code
			perr.Message = openAIResp.Error.Message
		}
		return "", perr
	}

	if len(openAIResp.Choices) == 0 {
		return "", nil
	}

	return openAIResp.Choices[0].Message.Content, nil
}

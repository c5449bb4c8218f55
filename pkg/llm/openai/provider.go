package openai

import (
	"ai-merchbot-be/pkg/llm"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Model defaults. Vision analysis reuses the chat model.
const (
	DefaultChatModel  = "gpt-4o"
	DefaultImageModel = "dall-e-3"
)

type OpenAIProvider struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	ImageModel string
	Client     *http.Client
}

// Ensure OpenAIProvider implements both capability contracts
var (
	_ llm.LLMProvider    = &OpenAIProvider{}
	_ llm.VisionProvider = &OpenAIProvider{}
)

func NewOpenAIProvider(apiKey, chatModel, imageModel string) *OpenAIProvider {
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	if imageModel == "" {
		imageModel = DefaultImageModel
	}
	return &OpenAIProvider{
		APIKey:     apiKey,
		BaseURL:    defaultBaseURL,
		ChatModel:  chatModel,
		ImageModel: imageModel,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type chatMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// --- Interface Implementation ---

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{}
	for _, opt := range opts {
		opt(options)
	}

	messages := make([]chatMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = "assistant"
		}
		content, _ := json.Marshal(msg.Content)
		messages[i] = chatMessage{Role: role, Content: content}
	}

	model := p.ChatModel
	if options.Model != "" {
		model = options.Model
	}

	reqPayload := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}
	if options.JSONOutput {
		reqPayload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var parsed chatResponse
	if err := p.post(ctx, "/chat/completions", reqPayload, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai chat: empty choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

// GenerateImage creates one 1024x1024 image and returns its URL.
func (p *OpenAIProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	reqPayload := imageRequest{
		Model:   p.ImageModel,
		Prompt:  prompt,
		N:       1,
		Size:    "1024x1024",
		Quality: "standard",
	}

	var parsed imageResponse
	if err := p.post(ctx, "/images/generations", reqPayload, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return "", fmt.Errorf("openai image: no image URL returned")
	}
	return parsed.Data[0].URL, nil
}

// AnalyzeImage asks the vision model for print-readiness feedback on the
// generated design.
func (p *OpenAIProvider) AnalyzeImage(ctx context.Context, imageURL string) (string, error) {
	content, _ := json.Marshal([]map[string]interface{}{
		{"type": "text", "text": "Analyze this image and suggest any needed improvements for product printing:"},
		{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
	})

	reqPayload := chatRequest{
		Model:    p.ChatModel,
		Messages: []chatMessage{{Role: "user", Content: content}},
	}

	var parsed chatResponse
	if err := p.post(ctx, "/chat/completions", reqPayload, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai vision: empty choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+path, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

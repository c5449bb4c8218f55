package factory

import (
	"ai-merchbot-be/pkg/llm"
	"ai-merchbot-be/pkg/llm/ollama"
	"ai-merchbot-be/pkg/llm/openai"
	"fmt"
)

// NewLLMProvider selects the chat backend used for intent classification.
// OpenAI is the default; ollama is a local fallback with no vision support.
func NewLLMProvider(providerType, modelName, baseURL, openAIKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "openai":
		return openai.NewOpenAIProvider(openAIKey, modelName, ""), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

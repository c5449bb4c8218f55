package dto

import (
	"github.com/google/uuid"
)

type CreateConversationResponse struct {
	Id       uuid.UUID `json:"id"`
	Greeting string    `json:"greeting"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
	Role    string `json:"role" validate:"required,oneof=user"`
}

// ChatMessageResponse is the assistant envelope: Content carries one
// serialized OrchestratorResponse as a JSON string.
type ChatMessageResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateDesignRequest struct {
	Prompt         string    `json:"prompt" validate:"required"`
	ConversationId uuid.UUID `json:"conversation_id" validate:"required"`
}

type GenerateDesignResponse struct {
	ImageUrl       string `json:"image_url"`
	Analysis       string `json:"analysis,omitempty"`
	OriginalPrompt string `json:"original_prompt"`
	CurrentPrompt  string `json:"current_prompt"`
	Status         string `json:"status"`
}

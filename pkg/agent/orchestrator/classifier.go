package orchestrator

import (
	"ai-merchbot-be/internal/constant"
	"ai-merchbot-be/internal/pkg/logger"
	"ai-merchbot-be/pkg/llm"
	"ai-merchbot-be/pkg/store"
	"context"
	"encoding/json"
	"fmt"
)

// Selection actions produced by the product-selection classifier.
const (
	SelectionActionSelect  = "select"
	SelectionActionMore    = "more"
	SelectionActionUnclear = "unclear"
)

type parsedIntent struct {
	Type           string               `json:"type"`
	ProductDetails store.ProductDetails `json:"productDetails"`
	DesignContent  string               `json:"designContent"`
}

type designFeedback struct {
	Type       string `json:"type"`
	IsApproved bool   `json:"is_approved"`
	Changes    string `json:"changes"`
}

type productSelection struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Index  int    `json:"index"`
}

// Classifier is the single schema-validated boundary around the chat
// capability. Every method returns ok=false on any parse or transport
// failure; callers treat that uniformly as "classification unknown" and
// never crash on it.
type Classifier struct {
	llm llm.LLMProvider
	log logger.ILogger
}

func NewClassifier(provider llm.LLMProvider, log logger.ILogger) *Classifier {
	return &Classifier{
		llm: provider,
		log: log,
	}
}

// ParseIntent extracts product details and design content from the user's
// opening message.
func (c *Classifier) ParseIntent(ctx context.Context, message store.Message) (store.ProductDetails, string, bool) {
	var parsed parsedIntent
	if !c.classify(ctx, constant.IntentParsePrompt, message, "parse", &parsed) {
		return store.ProductDetails{}, "", false
	}

	c.log.Info("orchestrator", "Parsed user intent", map[string]interface{}{
		"product_type":       parsed.ProductDetails.Type,
		"has_design_content": parsed.DesignContent != "",
	})
	return parsed.ProductDetails, parsed.DesignContent, true
}

// ClassifyFeedback decides approval vs change request for the current design.
func (c *Classifier) ClassifyFeedback(ctx context.Context, message store.Message) (bool, string, bool) {
	var parsed designFeedback
	if !c.classify(ctx, constant.DesignFeedbackPrompt, message, "design_feedback", &parsed) {
		return false, "", false
	}
	return parsed.IsApproved, parsed.Changes, true
}

// ClassifySelection maps the message onto select-index / want-more /
// unclear, given how many options the user was shown.
func (c *Classifier) ClassifySelection(ctx context.Context, message store.Message, shownCount int) (string, int, bool) {
	prompt := fmt.Sprintf(constant.ProductSelectionPrompt, shownCount)

	var parsed productSelection
	if !c.classify(ctx, prompt, message, "product_selection", &parsed) {
		return SelectionActionUnclear, 0, false
	}

	switch parsed.Action {
	case SelectionActionSelect, SelectionActionMore:
		return parsed.Action, parsed.Index, true
	default:
		return SelectionActionUnclear, 0, true
	}
}

// classify runs one JSON-mode chat call and validates the tagged reply.
func (c *Classifier) classify(ctx context.Context, prompt string, message store.Message, wantType string, out interface{}) bool {
	reply, err := c.llm.Chat(ctx, []llm.Message{
		{Role: constant.ChatMessageRoleUser, Content: prompt},
		{Role: message.Role, Content: message.Content},
	}, llm.WithJSONOutput())
	if err != nil {
		c.log.Warn("orchestrator", "Classification call failed", map[string]interface{}{
			"want_type": wantType,
			"error":     err.Error(),
		})
		return false
	}

	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(reply), &tag); err != nil || tag.Type != wantType {
		c.log.Warn("orchestrator", "Classification reply not usable", map[string]interface{}{
			"want_type": wantType,
			"got_type":  tag.Type,
		})
		return false
	}

	if err := json.Unmarshal([]byte(reply), out); err != nil {
		c.log.Warn("orchestrator", "Classification reply malformed", map[string]interface{}{
			"want_type": wantType,
			"error":     err.Error(),
		})
		return false
	}
	return true
}

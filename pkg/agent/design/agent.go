package design

import (
	"ai-merchbot-be/internal/pkg/logger"
	"ai-merchbot-be/pkg/llm"
	"ai-merchbot-be/pkg/store"
	"context"
	"fmt"
)

// GenerationError is fatal to the current turn. It carries the failed
// prompt's length rather than its content to keep large payloads out of
// logs and error chains.
type GenerationError struct {
	Operation    string // "generation" | "revision"
	PromptLength int
	Err          error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("design %s failed (prompt length %d): %v", e.Operation, e.PromptLength, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Agent generates and revises designs, maintaining prompt lineage. Each
// revision produces a new record; the previous one is superseded, never
// mutated.
type Agent struct {
	vision llm.VisionProvider
	log    logger.ILogger
}

func NewAgent(vision llm.VisionProvider, log logger.ILogger) *Agent {
	return &Agent{
		vision: vision,
		log:    log,
	}
}

// Generate creates the first design in a lineage from the user's prompt.
func (a *Agent) Generate(ctx context.Context, prompt string) (*store.DesignRecord, error) {
	a.log.Info("design", "Initiating design generation", map[string]interface{}{
		"prompt_length": len(prompt),
	})

	imageURL, err := a.vision.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{Operation: "generation", PromptLength: len(prompt), Err: err}
	}

	record := &store.DesignRecord{
		ImageURL:       imageURL,
		OriginalPrompt: prompt,
		CurrentPrompt:  prompt,
		Status:         store.DesignStatusRefining,
	}
	record.Analysis = a.analyze(ctx, imageURL)

	a.log.Info("design", "Design generation completed", nil)
	return record, nil
}

// Revise builds a new prompt from the previous record and the feedback,
// generates a fresh image, and returns a new record. OriginalPrompt is
// carried forward unchanged so the lineage always terminates at the first
// Generate call's prompt.
func (a *Agent) Revise(ctx context.Context, previous *store.DesignRecord, feedback string) (*store.DesignRecord, error) {
	a.log.Info("design", "Starting design revision", map[string]interface{}{
		"feedback_length": len(feedback),
	})

	prompt := RevisionPrompt(previous.CurrentPrompt, feedback)

	imageURL, err := a.vision.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{Operation: "revision", PromptLength: len(prompt), Err: err}
	}

	record := &store.DesignRecord{
		ImageURL:       imageURL,
		OriginalPrompt: previous.OriginalPrompt,
		CurrentPrompt:  prompt,
		Status:         store.DesignStatusRefining,
	}
	record.Analysis = a.analyze(ctx, imageURL)

	a.log.Info("design", "Design revision completed", nil)
	return record, nil
}

// analyze is best-effort: a failure yields an empty analysis and a logged
// warning, never an error.
func (a *Agent) analyze(ctx context.Context, imageURL string) string {
	analysis, err := a.vision.AnalyzeImage(ctx, imageURL)
	if err != nil {
		a.log.Warn("design", "Image analysis failed, proceeding without", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}
	return analysis
}

// RevisionPrompt is the deterministic template combining the previous
// prompt with the requested modifications.
func RevisionPrompt(currentPrompt, feedback string) string {
	return fmt.Sprintf(
		"Original design was: %s. Modifications requested: %s. Keep the core elements of the original design while applying the requested changes.",
		currentPrompt, feedback,
	)
}

package orchestrator

import (
	"ai-merchbot-be/internal/constant"
	"ai-merchbot-be/internal/dto"
	"ai-merchbot-be/internal/pkg/logger"
	"ai-merchbot-be/pkg/agent/configure"
	"ai-merchbot-be/pkg/agent/design"
	"ai-merchbot-be/pkg/agent/product"
	"ai-merchbot-be/pkg/store"
	"context"
	"encoding/json"
	"fmt"
)

// SelectionError: the user picked an index outside the delivered page.
// Recovered locally as a chat response, never escapes a turn.
type SelectionError struct {
	Index    int
	PageSize int
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("selected index %d out of range, %d options were shown", e.Index, e.PageSize)
}

// structuredSelection is the fast path: a presentation layer may send the
// selection as JSON instead of free text, bypassing the AI classifier.
type structuredSelection struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// Orchestrator owns the phase state machine. It is stateless itself; all
// mutable state lives on the conversation passed into each turn, so one
// instance serves every conversation.
type Orchestrator struct {
	classifier   *Classifier
	designer     *design.Agent
	ranker       *product.Ranker
	configurator *configure.Agent
	log          logger.ILogger
}

func NewOrchestrator(
	classifier *Classifier,
	designer *design.Agent,
	ranker *product.Ranker,
	configurator *configure.Agent,
	log logger.ILogger,
) *Orchestrator {
	return &Orchestrator{
		classifier:   classifier,
		designer:     designer,
		ranker:       ranker,
		configurator: configurator,
		log:          log,
	}
}

// ProcessMessage appends the message to history and dispatches on the
// conversation's phase. Exactly one response per turn. Delegate failures
// abort the turn with a phase-tagged error; the phase is not rolled back.
func (o *Orchestrator) ProcessMessage(ctx context.Context, conv *store.Conversation, msg store.Message) (*dto.OrchestratorResponse, error) {
	conv.AppendMessage(msg.Role, msg.Content)

	o.log.Info("orchestrator", "Processing message", map[string]interface{}{
		"conversation_id": conv.ID,
		"phase":           string(conv.Phase),
	})

	var (
		response *dto.OrchestratorResponse
		err      error
	)

	switch conv.Phase {
	case store.PhaseIntake:
		response, err = o.handleIntake(ctx, conv, msg)
	case store.PhaseDesignRefinement:
		response, err = o.handleDesignFeedback(ctx, conv, msg)
	case store.PhaseProductSelection:
		response, err = o.handleProductChoice(ctx, conv, msg)
	case store.PhaseConfigured:
		response = chatResponse("Your product is already configured and published. Start a new conversation to create another one.")
	default:
		err = fmt.Errorf("unknown phase %q", conv.Phase)
	}

	if err != nil {
		o.log.Error("orchestrator", "Turn failed", map[string]interface{}{
			"conversation_id": conv.ID,
			"phase":           string(conv.Phase),
			"error":           err.Error(),
		})
		return nil, err
	}

	return response, nil
}

// handleIntake extracts product details and design content. Ambiguous or
// unparseable messages leave the phase unchanged so the user can retry.
func (o *Orchestrator) handleIntake(ctx context.Context, conv *store.Conversation, msg store.Message) (*dto.OrchestratorResponse, error) {
	details, designContent, ok := o.classifier.ParseIntent(ctx, msg)
	if !ok || designContent == "" {
		return chatResponse(constant.IntakeFallbackMessage), nil
	}

	conv.ProductDetails = details
	conv.DesignContent = designContent

	record, err := o.designer.Generate(ctx, designContent)
	if err != nil {
		return nil, fmt.Errorf("intake: %w", err)
	}

	conv.CurrentDesign = record
	conv.Phase = store.PhaseDesignRefinement

	return &dto.OrchestratorResponse{
		Type:    dto.ResponseTypeDesign,
		Message: constant.InitialDesignMessage,
		Design:  dto.NewDesignPayload(record),
	}, nil
}

// handleDesignFeedback either approves the design and moves to product
// selection, or revises it and stays in refinement.
func (o *Orchestrator) handleDesignFeedback(ctx context.Context, conv *store.Conversation, msg store.Message) (*dto.OrchestratorResponse, error) {
	approved, changes, ok := o.classifier.ClassifyFeedback(ctx, msg)
	if !ok {
		return chatResponse("I wasn't sure whether you'd like changes to the design. Could you tell me if it looks good, or what you'd like adjusted?"), nil
	}

	if approved {
		// Supersede the refining record with an approved copy.
		approvedRecord := *conv.CurrentDesign
		approvedRecord.Status = store.DesignStatusApproved
		conv.CurrentDesign = &approvedRecord
		conv.DesignApproved = true

		page, err := o.ranker.Search(ctx, conv, conv.ProductDetails, true)
		if err != nil {
			return nil, fmt.Errorf("design refinement: %w", err)
		}
		conv.LastPage = page.Entries
		conv.Phase = store.PhaseProductSelection

		message := constant.ProductsFoundMessage
		if page.HasMore {
			message += "\n\n" + constant.MoreOptionsHint
		}

		return &dto.OrchestratorResponse{
			Type:     dto.ResponseTypeDesignAndProducts,
			Message:  message,
			Design:   dto.NewDesignPayload(conv.CurrentDesign),
			Products: page.Entries,
			HasMore:  dto.BoolPtr(page.HasMore),
		}, nil
	}

	record, err := o.designer.Revise(ctx, conv.CurrentDesign, changes)
	if err != nil {
		return nil, fmt.Errorf("design refinement: %w", err)
	}
	conv.CurrentDesign = record

	return &dto.OrchestratorResponse{
		Type:    dto.ResponseTypeDesign,
		Message: constant.RevisedDesignMessage,
		Design:  dto.NewDesignPayload(record),
	}, nil
}

// handleProductChoice resolves "show me more" vs "I'll take option N" vs
// anything else.
func (o *Orchestrator) handleProductChoice(ctx context.Context, conv *store.Conversation, msg store.Message) (*dto.OrchestratorResponse, error) {
	action, index := o.resolveSelection(ctx, conv, msg)

	switch action {
	case SelectionActionMore:
		page, err := o.ranker.Search(ctx, conv, conv.ProductDetails, false)
		if err != nil {
			return nil, fmt.Errorf("product selection: %w", err)
		}
		if len(page.Entries) == 0 {
			return chatResponse(constant.NoMoreResultsMessage), nil
		}
		conv.LastPage = page.Entries

		message := constant.ProductsFoundMessage
		if page.HasMore {
			message += "\n\n" + constant.MoreOptionsHint
		}
		return &dto.OrchestratorResponse{
			Type:     dto.ResponseTypeDesignAndProducts,
			Message:  message,
			Design:   dto.NewDesignPayload(conv.CurrentDesign),
			Products: page.Entries,
			HasMore:  dto.BoolPtr(page.HasMore),
		}, nil

	case SelectionActionSelect:
		if index < 0 || index >= len(conv.LastPage) {
			selErr := &SelectionError{Index: index, PageSize: len(conv.LastPage)}
			o.log.Warn("orchestrator", "Invalid product selection", map[string]interface{}{
				"conversation_id": conv.ID,
				"error":           selErr.Error(),
			})
			return chatResponse(fmt.Sprintf(
				"I only showed you %d options. Please pick a number between 1 and %d, or ask for more.",
				len(conv.LastPage), len(conv.LastPage),
			)), nil
		}

		entry := conv.LastPage[index]
		conv.SelectedEntry = &entry
		conv.Phase = store.PhaseConfigured

		config, err := o.configurator.Configure(ctx, entry, conv.CurrentDesign.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("product selection: %w", err)
		}
		conv.ProductConfig = config

		return &dto.OrchestratorResponse{
			Type:            dto.ResponseTypeProductSelection,
			Message:         fmt.Sprintf("Great choice! I've created and published the %s with your design.", entry.Title),
			Status:          dto.SelectionStatusConfirmed,
			SelectedEntryId: dto.IntPtr(entry.ID),
		}, nil

	default:
		return chatResponse(constant.SelectionUnclearMessage), nil
	}
}

// resolveSelection tries the structured JSON fast path first, then the AI
// classifier.
func (o *Orchestrator) resolveSelection(ctx context.Context, conv *store.Conversation, msg store.Message) (string, int) {
	var structured structuredSelection
	if err := json.Unmarshal([]byte(msg.Content), &structured); err == nil && structured.Type == "product_selection" {
		o.log.Info("orchestrator", "Parsed structured product selection", map[string]interface{}{
			"index": structured.Index,
		})
		return SelectionActionSelect, structured.Index
	}

	action, index, _ := o.classifier.ClassifySelection(ctx, msg, len(conv.LastPage))
	return action, index
}

func chatResponse(message string) *dto.OrchestratorResponse {
	return &dto.OrchestratorResponse{
		Type:    dto.ResponseTypeChat,
		Message: message,
	}
}

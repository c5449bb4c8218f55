package service

import (
	"ai-merchbot-be/internal/constant"
	"ai-merchbot-be/internal/dto"
	"ai-merchbot-be/internal/pkg/logger"
	"ai-merchbot-be/internal/repository/memory"
	"ai-merchbot-be/pkg/agent/design"
	"ai-merchbot-be/pkg/agent/orchestrator"
	"ai-merchbot-be/pkg/agent/product"
	"ai-merchbot-be/pkg/events"
	"ai-merchbot-be/pkg/store"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrConversationNotFound: unknown or expired conversation id.
var ErrConversationNotFound = errors.New("conversation not found")

// IConversationService defines the conversation service interface
type IConversationService interface {
	CreateConversation(ctx context.Context) (*dto.CreateConversationResponse, error)
	SendMessage(ctx context.Context, conversationId uuid.UUID, request *dto.SendMessageRequest) (*dto.ChatMessageResponse, error)
	GenerateDesign(ctx context.Context, request *dto.GenerateDesignRequest) (*dto.GenerateDesignResponse, error)
	SearchProducts(ctx context.Context, query string) (*dto.ProductSearchResponse, error)
}

type conversationService struct {
	repo         *memory.ConversationRepository
	orchestrator *orchestrator.Orchestrator
	designer     *design.Agent
	ranker       *product.Ranker
	publisher    *events.Publisher
	log          logger.ILogger
	turnTimeout  time.Duration
}

func NewConversationService(
	repo *memory.ConversationRepository,
	orch *orchestrator.Orchestrator,
	designer *design.Agent,
	ranker *product.Ranker,
	publisher *events.Publisher,
	log logger.ILogger,
	turnTimeout time.Duration,
) IConversationService {
	return &conversationService{
		repo:         repo,
		orchestrator: orch,
		designer:     designer,
		ranker:       ranker,
		publisher:    publisher,
		log:          log,
		turnTimeout:  turnTimeout,
	}
}

// CreateConversation starts a fresh context in the Intake phase.
func (cs *conversationService) CreateConversation(ctx context.Context) (*dto.CreateConversationResponse, error) {
	id := uuid.New()

	conv := store.NewConversation(id.String())
	conv.AppendMessage(constant.ChatMessageRoleAssistant, constant.GreetingMessage)
	cs.repo.Save(conv)

	cs.log.Info("conversation", "Conversation created", map[string]interface{}{
		"conversation_id": conv.ID,
	})

	return &dto.CreateConversationResponse{
		Id:       id,
		Greeting: constant.GreetingMessage,
	}, nil
}

// SendMessage runs one orchestrated turn. The conversation mutex is held
// for the whole turn so two messages for the same conversation are never
// processed concurrently; different conversations run fully in parallel.
func (cs *conversationService) SendMessage(ctx context.Context, conversationId uuid.UUID, request *dto.SendMessageRequest) (*dto.ChatMessageResponse, error) {
	conv, found := cs.repo.Get(conversationId.String())
	if !found {
		return nil, ErrConversationNotFound
	}

	conv.Mu.Lock()
	defer conv.Mu.Unlock()

	turnCtx, cancel := context.WithTimeout(ctx, cs.turnTimeout)
	defer cancel()

	phaseBefore := conv.Phase

	response, err := cs.orchestrator.ProcessMessage(turnCtx, conv, store.Message{
		Role:    request.Role,
		Content: request.Content,
	})
	if err != nil {
		// The phase is not rolled back; the user's retry is the recovery path.
		cs.repo.Save(conv)
		return nil, err
	}

	content, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}

	conv.AppendMessage(constant.ChatMessageRoleAssistant, string(content))
	cs.repo.Save(conv)

	cs.publishTransitions(conv, phaseBefore)

	return &dto.ChatMessageResponse{
		Role:    constant.ChatMessageRoleAssistant,
		Content: string(content),
	}, nil
}

// publishTransitions emits audit events for the two notable phase
// transitions. Publish failures are logged and swallowed.
func (cs *conversationService) publishTransitions(conv *store.Conversation, phaseBefore store.Phase) {
	var event *events.ConversationEvent

	switch {
	case phaseBefore == store.PhaseDesignRefinement && conv.Phase == store.PhaseProductSelection:
		event = &events.ConversationEvent{
			Kind:           events.KindDesignApproved,
			ConversationID: conv.ID,
		}
	case phaseBefore == store.PhaseProductSelection && conv.Phase == store.PhaseConfigured && conv.ProductConfig != nil:
		event = &events.ConversationEvent{
			Kind:           events.KindProductPublished,
			ConversationID: conv.ID,
			ProductID:      conv.ProductConfig.ProductID,
			BlueprintID:    conv.ProductConfig.BlueprintID,
		}
	}

	if event == nil {
		return
	}
	if err := cs.publisher.Publish(*event); err != nil {
		cs.log.Warn("conversation", "Failed to publish conversation event", map[string]interface{}{
			"kind":  event.Kind,
			"error": err.Error(),
		})
	}
}

// GenerateDesign starts a fresh design lineage for an existing
// conversation, outside the chat flow.
func (cs *conversationService) GenerateDesign(ctx context.Context, request *dto.GenerateDesignRequest) (*dto.GenerateDesignResponse, error) {
	conv, found := cs.repo.Get(request.ConversationId.String())
	if !found {
		return nil, ErrConversationNotFound
	}

	conv.Mu.Lock()
	defer conv.Mu.Unlock()

	turnCtx, cancel := context.WithTimeout(ctx, cs.turnTimeout)
	defer cancel()

	record, err := cs.designer.Generate(turnCtx, request.Prompt)
	if err != nil {
		return nil, err
	}

	conv.DesignContent = request.Prompt
	conv.CurrentDesign = record
	if conv.Phase == store.PhaseIntake {
		conv.Phase = store.PhaseDesignRefinement
	}
	cs.repo.Save(conv)

	return &dto.GenerateDesignResponse{
		ImageUrl:       record.ImageURL,
		Analysis:       record.Analysis,
		OriginalPrompt: record.OriginalPrompt,
		CurrentPrompt:  record.CurrentPrompt,
		Status:         record.Status,
	}, nil
}

// SearchProducts serves the standalone search endpoint: the free-text
// query stands in for the structured type attribute, against a throwaway
// context so no conversation's pagination state is touched.
func (cs *conversationService) SearchProducts(ctx context.Context, query string) (*dto.ProductSearchResponse, error) {
	turnCtx, cancel := context.WithTimeout(ctx, cs.turnTimeout)
	defer cancel()

	scratch := store.NewConversation(uuid.NewString())
	page, err := cs.ranker.Search(turnCtx, scratch, store.ProductDetails{Type: query}, true)
	if err != nil {
		return nil, err
	}

	return &dto.ProductSearchResponse{
		Products:       page.Entries,
		HasMore:        page.HasMore,
		TotalRemaining: page.TotalRemaining,
	}, nil
}

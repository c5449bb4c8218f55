package service

import (
	"ai-merchbot-be/internal/constant"
	"ai-merchbot-be/internal/dto"
	"ai-merchbot-be/internal/pkg/logger"
	"ai-merchbot-be/internal/repository/memory"
	"ai-merchbot-be/pkg/agent/configure"
	"ai-merchbot-be/pkg/agent/design"
	"ai-merchbot-be/pkg/agent/orchestrator"
	"ai-merchbot-be/pkg/agent/product"
	"ai-merchbot-be/pkg/events"
	"ai-merchbot-be/pkg/llm"
	"ai-merchbot-be/pkg/printify"
	"ai-merchbot-be/pkg/store"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	replies []string
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	if len(s.replies) == 0 {
		return "{}", nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, nil, opts...)
}

type stubVision struct{ generated int }

func (s *stubVision) GenerateImage(ctx context.Context, prompt string) (string, error) {
	s.generated++
	return fmt.Sprintf("https://img.example/%d.png", s.generated), nil
}

func (s *stubVision) AnalyzeImage(ctx context.Context, imageURL string) (string, error) {
	return "", nil
}

type stubCommerce struct{}

func (s *stubCommerce) GetBlueprints(ctx context.Context) ([]store.CatalogEntry, error) {
	return []store.CatalogEntry{
		{ID: 1, Title: "Classic T-Shirt"},
		{ID: 2, Title: "Ceramic Mug"},
		{ID: 3, Title: "Poster"},
		{ID: 4, Title: "Tote Bag"},
	}, nil
}

func (s *stubCommerce) GetPrintProviders(ctx context.Context, blueprintID int) ([]store.PrintProvider, error) {
	return []store.PrintProvider{{ID: 1, Title: "Stub Prints"}}, nil
}

func (s *stubCommerce) GetVariants(ctx context.Context, blueprintID, providerID int) ([]store.Variant, error) {
	return []store.Variant{{ID: 100, Price: 1999, Enabled: true}}, nil
}

func (s *stubCommerce) UploadImage(ctx context.Context, fileName, imageURL string) (store.UploadedImage, error) {
	return store.UploadedImage{ID: "upload-1", FileName: fileName}, nil
}

func (s *stubCommerce) CreateProduct(ctx context.Context, payload printify.CreateProductPayload) (store.CreatedProduct, error) {
	return store.CreatedProduct{ID: "product-1"}, nil
}

func (s *stubCommerce) PublishProduct(ctx context.Context, productID string) error {
	return nil
}

type serviceFixture struct {
	service IConversationService
	repo    *memory.ConversationRepository
	pubSub  *gochannel.GoChannel
}

func newServiceFixture(replies ...string) *serviceFixture {
	log := logger.Nop{}
	chat := &scriptedLLM{replies: replies}
	commerce := &stubCommerce{}

	designer := design.NewAgent(&stubVision{}, log)
	ranker := product.NewRanker(commerce, log)
	orch := orchestrator.NewOrchestrator(
		orchestrator.NewClassifier(chat, log),
		designer,
		ranker,
		configure.NewAgent(commerce, log, 0),
		log,
	)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	repo := memory.NewConversationRepository()

	return &serviceFixture{
		service: NewConversationService(repo, orch, designer, ranker, events.NewPublisher(pubSub), log, 5*time.Second),
		repo:    repo,
		pubSub:  pubSub,
	}
}

func TestCreateConversation(t *testing.T) {
	f := newServiceFixture()

	created, err := f.service.CreateConversation(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.Id)
	assert.Equal(t, constant.GreetingMessage, created.Greeting)

	conv, found := f.repo.Get(created.Id.String())
	require.True(t, found)
	assert.Equal(t, store.PhaseIntake, conv.Phase)
	require.Len(t, conv.History, 1)
	assert.Equal(t, constant.ChatMessageRoleAssistant, conv.History[0].Role)
}

func TestSendMessageUnknownConversation(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.SendMessage(context.Background(), uuid.New(), &dto.SendMessageRequest{
		Role:    "user",
		Content: "hello",
	})
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestSendMessagePersistsTurn(t *testing.T) {
	f := newServiceFixture(
		`{"type":"parse","productDetails":{"type":"t-shirt"},"designContent":"a cartoonish beagle"}`,
	)
	ctx := context.Background()

	created, err := f.service.CreateConversation(ctx)
	require.NoError(t, err)

	reply, err := f.service.SendMessage(ctx, created.Id, &dto.SendMessageRequest{
		Role:    "user",
		Content: "black tee with a cartoonish beagle",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.ChatMessageRoleAssistant, reply.Role)

	// The envelope content is one serialized orchestrator response.
	var response dto.OrchestratorResponse
	require.NoError(t, json.Unmarshal([]byte(reply.Content), &response))
	assert.Equal(t, dto.ResponseTypeDesign, response.Type)
	require.NotNil(t, response.Design)

	conv, found := f.repo.Get(created.Id.String())
	require.True(t, found)
	assert.Equal(t, store.PhaseDesignRefinement, conv.Phase)
	assert.Len(t, conv.History, 3) // greeting, user message, assistant reply
}

func TestSendMessagePublishesDesignApprovedEvent(t *testing.T) {
	f := newServiceFixture(
		`{"type":"parse","productDetails":{"type":"t-shirt"},"designContent":"a cartoonish beagle"}`,
		`{"type":"design_feedback","is_approved":true}`,
	)
	ctx := context.Background()

	messages, err := f.pubSub.Subscribe(ctx, events.ConversationTopic)
	require.NoError(t, err)

	created, err := f.service.CreateConversation(ctx)
	require.NoError(t, err)

	_, err = f.service.SendMessage(ctx, created.Id, &dto.SendMessageRequest{
		Role: "user", Content: "black tee with a cartoonish beagle",
	})
	require.NoError(t, err)

	_, err = f.service.SendMessage(ctx, created.Id, &dto.SendMessageRequest{
		Role: "user", Content: "looks great!",
	})
	require.NoError(t, err)

	select {
	case msg := <-messages:
		var event events.ConversationEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, events.KindDesignApproved, event.Kind)
		assert.Equal(t, created.Id.String(), event.ConversationID)
		assert.False(t, event.OccurredAt.IsZero())
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("expected a design_approved event")
	}
}

func TestGenerateDesignStartsFreshLineage(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	created, err := f.service.CreateConversation(ctx)
	require.NoError(t, err)

	response, err := f.service.GenerateDesign(ctx, &dto.GenerateDesignRequest{
		ConversationId: created.Id,
		Prompt:         "a mountain sunset",
	})
	require.NoError(t, err)

	assert.Equal(t, "a mountain sunset", response.OriginalPrompt)
	assert.Equal(t, store.DesignStatusRefining, response.Status)

	conv, _ := f.repo.Get(created.Id.String())
	assert.Equal(t, store.PhaseDesignRefinement, conv.Phase)
	assert.Equal(t, "a mountain sunset", conv.DesignContent)
}

func TestSearchProducts(t *testing.T) {
	f := newServiceFixture()

	response, err := f.service.SearchProducts(context.Background(), "t-shirt")
	require.NoError(t, err)

	require.Len(t, response.Products, 3)
	assert.True(t, response.HasMore)
	assert.Equal(t, 1, response.TotalRemaining)
	// Best match first.
	assert.Equal(t, "Classic T-Shirt", response.Products[0].Title)
}

package orchestrator

import (
	"ai-merchbot-be/internal/constant"
	"ai-merchbot-be/internal/dto"
	"ai-merchbot-be/internal/pkg/logger"
	"ai-merchbot-be/pkg/agent/configure"
	"ai-merchbot-be/pkg/agent/design"
	"ai-merchbot-be/pkg/agent/product"
	"ai-merchbot-be/pkg/llm"
	"ai-merchbot-be/pkg/printify"
	"ai-merchbot-be/pkg/store"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM replays canned classifier replies in order.
type scriptedLLM struct {
	replies []string
	err     error
	calls   int
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
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

type stubVision struct {
	generated   int
	generateErr error
}

func (s *stubVision) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if s.generateErr != nil {
		return "", s.generateErr
	}
	s.generated++
	return fmt.Sprintf("https://img.example/%d.png", s.generated), nil
}

func (s *stubVision) AnalyzeImage(ctx context.Context, imageURL string) (string, error) {
	return "looks printable", nil
}

// stubCommerce serves both the catalog read side and the configure write side.
type stubCommerce struct {
	entries      []store.CatalogEntry
	providersErr error
}

func (s *stubCommerce) GetBlueprints(ctx context.Context) ([]store.CatalogEntry, error) {
	return s.entries, nil
}

func (s *stubCommerce) GetPrintProviders(ctx context.Context, blueprintID int) ([]store.PrintProvider, error) {
	if s.providersErr != nil {
		return nil, s.providersErr
	}
	return []store.PrintProvider{{ID: 1, Title: "Stub Prints"}}, nil
}

func (s *stubCommerce) GetVariants(ctx context.Context, blueprintID, providerID int) ([]store.Variant, error) {
	return []store.Variant{{ID: blueprintID * 100, Price: 1999, Enabled: true}}, nil
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

func fiveEntries() []store.CatalogEntry {
	entries := make([]store.CatalogEntry, 0, 5)
	for i := 1; i <= 5; i++ {
		entries = append(entries, store.CatalogEntry{ID: i, Title: fmt.Sprintf("Item %d", i)})
	}
	return entries
}

type harness struct {
	chat     *scriptedLLM
	vision   *stubVision
	commerce *stubCommerce
	orch     *Orchestrator
}

func newHarness(replies ...string) *harness {
	h := &harness{
		chat:     &scriptedLLM{replies: replies},
		vision:   &stubVision{},
		commerce: &stubCommerce{entries: fiveEntries()},
	}
	log := logger.Nop{}
	h.orch = NewOrchestrator(
		NewClassifier(h.chat, log),
		design.NewAgent(h.vision, log),
		product.NewRanker(h.commerce, log),
		configure.NewAgent(h.commerce, log, 0),
		log,
	)
	return h
}

func userMsg(content string) store.Message {
	return store.Message{Role: constant.ChatMessageRoleUser, Content: content}
}

const parseReply = `{"type":"parse","productDetails":{"type":"t-shirt","color":"black"},"designContent":"a cartoonish beagle"}`

func TestIntakeStartsDesignRefinement(t *testing.T) {
	h := newHarness(parseReply)
	conv := store.NewConversation("c1")

	resp, err := h.orch.ProcessMessage(context.Background(), conv, userMsg("black tee with a cartoonish beagle"))
	require.NoError(t, err)

	assert.Equal(t, dto.ResponseTypeDesign, resp.Type)
	require.NotNil(t, resp.Design)
	assert.Equal(t, store.DesignStatusRefining, resp.Design.Status)
	assert.Equal(t, "a cartoonish beagle", resp.Design.OriginalPrompt)

	assert.Equal(t, store.PhaseDesignRefinement, conv.Phase)
	assert.Equal(t, "t-shirt", conv.ProductDetails.Type)
	assert.Equal(t, "black", conv.ProductDetails.Color)
	assert.Len(t, conv.History, 1) // the assistant reply is appended by the service layer
}

func TestIntakeUnparseableLeavesPhaseUnchanged(t *testing.T) {
	h := newHarness(`not even json`)
	conv := store.NewConversation("c1")

	resp, err := h.orch.ProcessMessage(context.Background(), conv, userMsg("hmm"))
	require.NoError(t, err)

	assert.Equal(t, dto.ResponseTypeChat, resp.Type)
	assert.Equal(t, constant.IntakeFallbackMessage, resp.Message)
	assert.Equal(t, store.PhaseIntake, conv.Phase)
	assert.Nil(t, conv.CurrentDesign)
}

func TestIntakeWithoutDesignContentFallsBack(t *testing.T) {
	h := newHarness(`{"type":"parse","productDetails":{"type":"t-shirt"},"designContent":""}`)
	conv := store.NewConversation("c1")

	resp, err := h.orch.ProcessMessage(context.Background(), conv, userMsg("a t-shirt please"))
	require.NoError(t, err)

	assert.Equal(t, dto.ResponseTypeChat, resp.Type)
	assert.Equal(t, store.PhaseIntake, conv.Phase)
}

func TestIntakeGenerationFailureAbortsTurn(t *testing.T) {
	h := newHarness(parseReply)
	h.vision.generateErr = errors.New("image backend down")
	conv := store.NewConversation("c1")

	_, err := h.orch.ProcessMessage(context.Background(), conv, userMsg("black tee with a beagle"))
	require.Error(t, err)

	var genErr *design.GenerationError
	assert.ErrorAs(t, err, &genErr)
	// Generation never succeeded, so the conversation has not advanced.
	assert.Equal(t, store.PhaseIntake, conv.Phase)
}

func TestRevisionStaysInRefinement(t *testing.T) {
	h := newHarness(
		parseReply,
		`{"type":"design_feedback","is_approved":false,"changes":"add sunglasses"}`,
	)
	conv := store.NewConversation("c1")
	ctx := context.Background()

	_, err := h.orch.ProcessMessage(ctx, conv, userMsg("black tee with a beagle"))
	require.NoError(t, err)
	firstDesign := conv.CurrentDesign

	resp, err := h.orch.ProcessMessage(ctx, conv, userMsg("can it wear sunglasses?"))
	require.NoError(t, err)

	assert.Equal(t, dto.ResponseTypeDesign, resp.Type)
	assert.Equal(t, store.PhaseDesignRefinement, conv.Phase)

	// New record supersedes the old one; the original prompt survives.
	assert.NotSame(t, firstDesign, conv.CurrentDesign)
	assert.Equal(t, "a cartoonish beagle", conv.CurrentDesign.OriginalPrompt)
	assert.Equal(t, store.DesignStatusRefining, firstDesign.Status)
}

func TestApprovalMovesToProductSelection(t *testing.T) {
	h := newHarness(
		parseReply,
		`{"type":"design_feedback","is_approved":true}`,
	)
	conv := store.NewConversation("c1")
	ctx := context.Background()

	_, err := h.orch.ProcessMessage(ctx, conv, userMsg("black tee with a beagle"))
	require.NoError(t, err)

	resp, err := h.orch.ProcessMessage(ctx, conv, userMsg("looks great!"))
	require.NoError(t, err)

	assert.Equal(t, dto.ResponseTypeDesignAndProducts, resp.Type)
	require.NotNil(t, resp.Design)
	assert.Equal(t, store.DesignStatusApproved, resp.Design.Status)
	assert.Len(t, resp.Products, product.PageSize)
	require.NotNil(t, resp.HasMore)
	assert.True(t, *resp.HasMore)
	assert.Contains(t, resp.Message, constant.MoreOptionsHint)

	assert.Equal(t, store.PhaseProductSelection, conv.Phase)
	assert.True(t, conv.DesignApproved)
	assert.Len(t, conv.LastPage, product.PageSize)
}

func TestAmbiguousFeedbackLeavesPhaseUnchanged(t *testing.T) {
	h := newHarness(
		parseReply,
		`{"type":"wrong_tag"}`,
		`not json`,
	)
	conv := store.NewConversation("c1")
	ctx := context.Background()

	_, err := h.orch.ProcessMessage(ctx, conv, userMsg("black tee with a beagle"))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		resp, err := h.orch.ProcessMessage(ctx, conv, userMsg("interesting..."))
		require.NoError(t, err)
		assert.Equal(t, dto.ResponseTypeChat, resp.Type)
		assert.Equal(t, store.PhaseDesignRefinement, conv.Phase)
	}
}

// advanceToSelection walks a fresh conversation to the product selection
// phase. The harness must have the intake and approval replies queued first.
func advanceToSelection(t *testing.T, h *harness, conv *store.Conversation) {
	t.Helper()
	ctx := context.Background()
	_, err := h.orch.ProcessMessage(ctx, conv, userMsg("black tee with a beagle"))
	require.NoError(t, err)
	_, err = h.orch.ProcessMessage(ctx, conv, userMsg("looks great!"))
	require.NoError(t, err)
	require.Equal(t, store.PhaseProductSelection, conv.Phase)
}

const approveReply = `{"type":"design_feedback","is_approved":true}`

func TestShowMorePagesThroughCatalog(t *testing.T) {
	h := newHarness(
		parseReply,
		approveReply,
		`{"type":"product_selection","action":"more","index":0}`,
		`{"type":"product_selection","action":"more","index":0}`,
	)
	conv := store.NewConversation("c1")
	advanceToSelection(t, h, conv)
	ctx := context.Background()

	resp, err := h.orch.ProcessMessage(ctx, conv, userMsg("show me more"))
	require.NoError(t, err)
	assert.Equal(t, dto.ResponseTypeDesignAndProducts, resp.Type)
	assert.Len(t, resp.Products, 2) // 5 entries total, 3 already shown
	require.NotNil(t, resp.HasMore)
	assert.False(t, *resp.HasMore)

	// Catalog exhausted: asking again is a recoverable chat, not an error.
	resp, err = h.orch.ProcessMessage(ctx, conv, userMsg("more please"))
	require.NoError(t, err)
	assert.Equal(t, dto.ResponseTypeChat, resp.Type)
	assert.Equal(t, constant.NoMoreResultsMessage, resp.Message)
	assert.Equal(t, store.PhaseProductSelection, conv.Phase)
}

func TestSelectionConfirmsAndConfigures(t *testing.T) {
	h := newHarness(
		parseReply,
		approveReply,
		`{"type":"product_selection","action":"select","index":1}`,
	)
	conv := store.NewConversation("c1")
	advanceToSelection(t, h, conv)

	resp, err := h.orch.ProcessMessage(context.Background(), conv, userMsg("the second one"))
	require.NoError(t, err)

	assert.Equal(t, dto.ResponseTypeProductSelection, resp.Type)
	assert.Equal(t, dto.SelectionStatusConfirmed, resp.Status)
	require.NotNil(t, resp.SelectedEntryId)
	assert.Equal(t, conv.LastPage[1].ID, *resp.SelectedEntryId)

	assert.Equal(t, store.PhaseConfigured, conv.Phase)
	require.NotNil(t, conv.SelectedEntry)
	require.NotNil(t, conv.ProductConfig)
	assert.Equal(t, "product-1", conv.ProductConfig.ProductID)
	assert.Equal(t, []string{
		configure.StepProviderResolved,
		configure.StepVariantsResolved,
		configure.StepAssetUploaded,
		configure.StepProductCreated,
		configure.StepPublished,
	}, conv.ProductConfig.CompletedSteps)
}

func TestOutOfRangeSelectionIsRecovered(t *testing.T) {
	h := newHarness(
		parseReply,
		approveReply,
		`{"type":"product_selection","action":"select","index":7}`,
	)
	conv := store.NewConversation("c1")
	advanceToSelection(t, h, conv)

	resp, err := h.orch.ProcessMessage(context.Background(), conv, userMsg("I'll take number eight"))
	require.NoError(t, err)

	assert.Equal(t, dto.ResponseTypeChat, resp.Type)
	assert.Equal(t, store.PhaseProductSelection, conv.Phase)
	assert.Nil(t, conv.SelectedEntry)
	assert.Nil(t, conv.ProductConfig)
}

func TestUnclearSelectionReasks(t *testing.T) {
	h := newHarness(
		parseReply,
		approveReply,
		`{"type":"product_selection","action":"shrug","index":0}`,
	)
	conv := store.NewConversation("c1")
	advanceToSelection(t, h, conv)

	resp, err := h.orch.ProcessMessage(context.Background(), conv, userMsg("maybe?"))
	require.NoError(t, err)

	assert.Equal(t, dto.ResponseTypeChat, resp.Type)
	assert.Equal(t, constant.SelectionUnclearMessage, resp.Message)
	assert.Equal(t, store.PhaseProductSelection, conv.Phase)
}

func TestStructuredSelectionBypassesClassifier(t *testing.T) {
	h := newHarness(parseReply, approveReply)
	conv := store.NewConversation("c1")
	advanceToSelection(t, h, conv)
	callsBefore := h.chat.calls

	resp, err := h.orch.ProcessMessage(context.Background(), conv,
		userMsg(`{"type":"product_selection","index":0}`))
	require.NoError(t, err)

	assert.Equal(t, dto.ResponseTypeProductSelection, resp.Type)
	assert.Equal(t, dto.SelectionStatusConfirmed, resp.Status)
	assert.Equal(t, callsBefore, h.chat.calls)
}

func TestConfigureFailureKeepsConfiguredPhase(t *testing.T) {
	h := newHarness(
		parseReply,
		approveReply,
		`{"type":"product_selection","action":"select","index":0}`,
	)
	h.commerce.providersErr = errors.New("providers unavailable")
	conv := store.NewConversation("c1")
	advanceToSelection(t, h, conv)

	_, err := h.orch.ProcessMessage(context.Background(), conv, userMsg("the first one"))
	require.Error(t, err)

	var confErr *configure.ConfigurationError
	assert.ErrorAs(t, err, &confErr)

	// Selection was committed before configuration ran; the phase is not
	// rolled back on failure.
	assert.Equal(t, store.PhaseConfigured, conv.Phase)
	assert.NotNil(t, conv.SelectedEntry)
	assert.Nil(t, conv.ProductConfig)
}

func TestConfiguredPhaseIsTerminal(t *testing.T) {
	h := newHarness(
		parseReply,
		approveReply,
		`{"type":"product_selection","action":"select","index":0}`,
	)
	conv := store.NewConversation("c1")
	advanceToSelection(t, h, conv)
	ctx := context.Background()

	_, err := h.orch.ProcessMessage(ctx, conv, userMsg("the first one"))
	require.NoError(t, err)

	resp, err := h.orch.ProcessMessage(ctx, conv, userMsg("actually, another one"))
	require.NoError(t, err)
	assert.Equal(t, dto.ResponseTypeChat, resp.Type)
	assert.Equal(t, store.PhaseConfigured, conv.Phase)
}

func TestClassifierTransportFailureIsRecovered(t *testing.T) {
	h := newHarness()
	h.chat.err = errors.New("llm unreachable")
	conv := store.NewConversation("c1")

	resp, err := h.orch.ProcessMessage(context.Background(), conv, userMsg("black tee with a beagle"))
	require.NoError(t, err)

	assert.Equal(t, dto.ResponseTypeChat, resp.Type)
	assert.Equal(t, store.PhaseIntake, conv.Phase)
}

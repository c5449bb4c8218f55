package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"ai-merchbot-be/internal/dto"
	"ai-merchbot-be/internal/pkg/logger"
	"ai-merchbot-be/pkg/agent/configure"
	"ai-merchbot-be/pkg/agent/design"
	"ai-merchbot-be/pkg/agent/orchestrator"
	"ai-merchbot-be/pkg/agent/product"
	"ai-merchbot-be/pkg/llm"
	"ai-merchbot-be/pkg/printify"
	"ai-merchbot-be/pkg/store"

	"github.com/fatih/color"
)

// Scripted end-to-end conversation against stub capabilities. Useful for
// eyeballing the full phase flow without OpenAI or Printify credentials.

type scriptedLLM struct {
	replies []string
	next    int
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	if s.next >= len(s.replies) {
		return "{}", nil
	}
	reply := s.replies[s.next]
	s.next++
	return reply, nil
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

type stubVision struct{ generated int }

func (s *stubVision) GenerateImage(ctx context.Context, prompt string) (string, error) {
	s.generated++
	return fmt.Sprintf("https://img.example/design-%d.png", s.generated), nil
}

func (s *stubVision) AnalyzeImage(ctx context.Context, imageURL string) (string, error) {
	return "High contrast, prints well on dark fabric.", nil
}

type stubCommerce struct{}

func (s *stubCommerce) GetBlueprints(ctx context.Context) ([]store.CatalogEntry, error) {
	entries := make([]store.CatalogEntry, 0, 8)
	for i := 1; i <= 8; i++ {
		title := fmt.Sprintf("Catalog Item %d", i)
		if i%2 == 0 {
			title = fmt.Sprintf("Classic T-Shirt %d", i)
		}
		entries = append(entries, store.CatalogEntry{
			ID:    i,
			Title: title,
			Variants: []store.Variant{
				{ID: i * 100, Title: "Black / M", Price: 1999, Enabled: true, Attributes: map[string]string{"color": "black"}},
			},
		})
	}
	return entries, nil
}

func (s *stubCommerce) GetPrintProviders(ctx context.Context, blueprintID int) ([]store.PrintProvider, error) {
	return []store.PrintProvider{{ID: 42, Title: "Stub Prints Inc."}}, nil
}

func (s *stubCommerce) GetVariants(ctx context.Context, blueprintID, providerID int) ([]store.Variant, error) {
	return []store.Variant{{ID: blueprintID * 100, Title: "Black / M", Price: 1999, Enabled: true}}, nil
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

func main() {
	userColor := color.New(color.FgCyan, color.Bold)
	botColor := color.New(color.FgGreen)
	phaseColor := color.New(color.FgYellow)

	fmt.Println("=== Merchbot Conversation Simulation ===")

	chat := &scriptedLLM{replies: []string{
		`{"type":"parse","productDetails":{"type":"t-shirt","color":"black"},"designContent":"a cartoonish beagle"}`,
		`{"type":"design_feedback","is_approved":false,"changes":"make the beagle wear sunglasses"}`,
		`{"type":"design_feedback","is_approved":true}`,
		`{"type":"product_selection","action":"more","index":0}`,
		`{"type":"product_selection","action":"select","index":1}`,
	}}

	sysLogger := logger.NewIsolatedLogger("logs/simulation.log")
	commerce := &stubCommerce{}

	classifier := orchestrator.NewClassifier(chat, sysLogger)
	designer := design.NewAgent(&stubVision{}, sysLogger)
	ranker := product.NewRanker(commerce, sysLogger)
	configurator := configure.NewAgent(commerce, sysLogger, 0)
	orch := orchestrator.NewOrchestrator(classifier, designer, ranker, configurator, sysLogger)

	conv := store.NewConversation("simulation")

	script := []string{
		"I want a black t-shirt with a cartoonish beagle",
		"Can the beagle wear sunglasses?",
		"Looks great!",
		"Show me more options",
		"I'll take the second one",
	}

	ctx := context.Background()
	for _, text := range script {
		userColor.Printf("\nUSER: %s\n", text)

		response, err := orch.ProcessMessage(ctx, conv, store.Message{Role: "user", Content: text})
		if err != nil {
			log.Fatalf("Turn failed: %v", err)
		}

		pretty, _ := json.MarshalIndent(response, "", "  ")
		botColor.Printf("ASSISTANT (%s):\n%s\n", response.Type, pretty)
		phaseColor.Printf("phase -> %s\n", conv.Phase)

		if response.Type == dto.ResponseTypeProductSelection && conv.ProductConfig != nil {
			phaseColor.Printf("saga steps: %v\n", conv.ProductConfig.CompletedSteps)
		}
	}
}

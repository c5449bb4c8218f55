package bootstrap

import (
	"log"

	"ai-merchbot-be/internal/config"
	"ai-merchbot-be/internal/controller"
	"ai-merchbot-be/internal/pkg/logger"
	"ai-merchbot-be/internal/repository/memory"
	"ai-merchbot-be/internal/service"
	"ai-merchbot-be/pkg/agent/configure"
	"ai-merchbot-be/pkg/agent/design"
	"ai-merchbot-be/pkg/agent/orchestrator"
	"ai-merchbot-be/pkg/agent/product"
	"ai-merchbot-be/pkg/events"
	"ai-merchbot-be/pkg/llm"
	"ai-merchbot-be/pkg/llm/factory"
	"ai-merchbot-be/pkg/llm/openai"
	"ai-merchbot-be/pkg/printify"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	ChatController    controller.IChatController
	DesignController  controller.IDesignController
	ProductController controller.IProductController

	// Background Services (Exposed for main.go to run)
	AuditService service.IAuditService
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Capabilities
	// The chat classifier is provider-selectable; vision always goes
	// through OpenAI since ollama has no image endpoint.
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.OpenAI,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	var visionProvider llm.VisionProvider = openai.NewOpenAIProvider(cfg.Keys.OpenAI, cfg.Ai.LLMModel, cfg.Ai.ImageModel)

	// 4. Commerce Capability
	printifyClient := printify.NewClient(cfg.Keys.PrintifyToken, cfg.Commerce.ShopID)

	// 5. Conversation Storage
	conversationRepo := memory.NewConversationRepository()

	// 6. Agents
	classifier := orchestrator.NewClassifier(llmProvider, sysLogger)
	designer := design.NewAgent(visionProvider, sysLogger)
	ranker := product.NewRanker(printifyClient, sysLogger)
	configurator := configure.NewAgent(printifyClient, sysLogger, cfg.Commerce.DefaultProviderID)
	orch := orchestrator.NewOrchestrator(classifier, designer, ranker, configurator, sysLogger)

	// 7. Services
	publisher := events.NewPublisher(pubSub)
	conversationService := service.NewConversationService(
		conversationRepo,
		orch,
		designer,
		ranker,
		publisher,
		sysLogger,
		cfg.App.RemoteCallTimeout,
	)

	auditLogger := logger.NewIsolatedLogger(cfg.App.EventLogFilePath)
	auditService := service.NewAuditService(pubSub, auditLogger)

	// 8. Controllers
	return &Container{
		ChatController:    controller.NewChatController(conversationService),
		DesignController:  controller.NewDesignController(conversationService),
		ProductController: controller.NewProductController(conversationService),

		AuditService: auditService,
	}
}

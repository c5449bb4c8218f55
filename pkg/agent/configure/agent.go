package configure

import (
	"ai-merchbot-be/internal/pkg/logger"
	"ai-merchbot-be/pkg/printify"
	"ai-merchbot-be/pkg/store"
	"context"
	"fmt"
)

// Saga step outcomes, recorded in order so a future retry can resume from
// the last completed step instead of restarting.
const (
	StepProviderResolved = "provider-resolved"
	StepVariantsResolved = "variants-resolved"
	StepAssetUploaded    = "asset-uploaded"
	StepProductCreated   = "product-created"
	StepPublished        = "published"
)

// NoProviderError: no print provider exists for the selected entry.
type NoProviderError struct {
	BlueprintID int
}

func (e *NoProviderError) Error() string {
	return fmt.Sprintf("no print providers available for blueprint %d", e.BlueprintID)
}

// NoVariantsError: the resolved (entry, provider) pair has no variants.
type NoVariantsError struct {
	BlueprintID int
	ProviderID  int
}

func (e *NoVariantsError) Error() string {
	return fmt.Sprintf("no variants available for blueprint %d with provider %d", e.BlueprintID, e.ProviderID)
}

// ConfigurationError wraps any step failure with the steps that did
// complete. The saga is not transactional: a failure after product
// creation leaves an unpublished product behind.
type ConfigurationError struct {
	Step           string
	CompletedSteps []string
	Err            error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("product configuration failed at %s: %v", e.Step, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Commerce is the write side of the commerce capability this agent needs.
type Commerce interface {
	GetPrintProviders(ctx context.Context, blueprintID int) ([]store.PrintProvider, error)
	GetVariants(ctx context.Context, blueprintID, providerID int) ([]store.Variant, error)
	UploadImage(ctx context.Context, fileName, imageURL string) (store.UploadedImage, error)
	CreateProduct(ctx context.Context, payload printify.CreateProductPayload) (store.CreatedProduct, error)
	PublishProduct(ctx context.Context, productID string) error
}

// Agent turns an approved design plus a chosen catalog entry into a
// published commerce product.
type Agent struct {
	commerce Commerce
	log      logger.ILogger

	// Preferred provider id; 0 means fall back to the first available.
	defaultProviderID int
}

func NewAgent(commerce Commerce, log logger.ILogger, defaultProviderID int) *Agent {
	return &Agent{
		commerce:          commerce,
		log:               log,
		defaultProviderID: defaultProviderID,
	}
}

// Configure runs the four remote steps sequentially: resolve a provider,
// resolve variants, upload the design asset, create and publish the
// product. The returned config records every completed step.
func (a *Agent) Configure(ctx context.Context, entry store.CatalogEntry, designURL string) (*store.ProductConfig, error) {
	a.log.Info("configure", "Configuring product", map[string]interface{}{
		"blueprint_id": entry.ID,
	})

	var completed []string
	fail := func(step string, err error) (*store.ProductConfig, error) {
		a.log.Error("configure", "Configuration failed", map[string]interface{}{
			"step":  step,
			"error": err.Error(),
		})
		return nil, &ConfigurationError{Step: step, CompletedSteps: completed, Err: err}
	}

	// 1. Resolve print provider
	providers, err := a.commerce.GetPrintProviders(ctx, entry.ID)
	if err != nil {
		return fail(StepProviderResolved, err)
	}
	if len(providers) == 0 {
		return fail(StepProviderResolved, &NoProviderError{BlueprintID: entry.ID})
	}
	provider := pickProvider(providers, a.defaultProviderID)
	completed = append(completed, StepProviderResolved)

	// 2. Resolve variants
	variants, err := a.commerce.GetVariants(ctx, entry.ID, provider.ID)
	if err != nil {
		return fail(StepVariantsResolved, err)
	}
	if len(variants) == 0 {
		return fail(StepVariantsResolved, &NoVariantsError{BlueprintID: entry.ID, ProviderID: provider.ID})
	}
	variant := variants[0]
	completed = append(completed, StepVariantsResolved)

	// 3. Upload design asset
	uploaded, err := a.commerce.UploadImage(ctx, fmt.Sprintf("design-%d.png", entry.ID), designURL)
	if err != nil {
		return fail(StepAssetUploaded, err)
	}
	completed = append(completed, StepAssetUploaded)

	// 4. Create product with a single default front placement: centered,
	// unscaled, unrotated, first resolved variant only.
	payload := printify.CreateProductPayload{
		Title:           "Custom Design Product",
		Description:     "AI-Generated Custom Product",
		BlueprintID:     entry.ID,
		PrintProviderID: provider.ID,
		Variants: []printify.VariantIn{
			{ID: variant.ID, Price: variant.Price, Enabled: true},
		},
		PrintAreas: []printify.PrintArea{
			{
				VariantIDs: []int{variant.ID},
				Placeholders: []printify.Placeholder{
					{
						Position: "front",
						Images: []printify.PlacedItem{
							{ID: uploaded.ID, X: 0.5, Y: 0.5, Scale: 1, Angle: 0},
						},
					},
				},
			},
		},
	}

	created, err := a.commerce.CreateProduct(ctx, payload)
	if err != nil {
		return fail(StepProductCreated, err)
	}
	completed = append(completed, StepProductCreated)

	// 5. Publish
	if err := a.commerce.PublishProduct(ctx, created.ID); err != nil {
		return fail(StepPublished, err)
	}
	completed = append(completed, StepPublished)

	a.log.Info("configure", "Product published", map[string]interface{}{
		"product_id": created.ID,
	})

	return &store.ProductConfig{
		ProductID:      created.ID,
		BlueprintID:    entry.ID,
		ProviderID:     provider.ID,
		VariantID:      variant.ID,
		ImageID:        uploaded.ID,
		CompletedSteps: completed,
	}, nil
}

func pickProvider(providers []store.PrintProvider, preferred int) store.PrintProvider {
	if preferred != 0 {
		for _, p := range providers {
			if p.ID == preferred {
				return p
			}
		}
	}
	return providers[0]
}

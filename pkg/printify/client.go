package printify

import (
	"ai-merchbot-be/pkg/store"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const defaultBaseURL = "https://api.printify.com/v1"

// catalog snapshots change rarely; one fetch per TTL window is plenty
const catalogCacheTTL = 10 * time.Minute

// CatalogError wraps a failed catalog/commerce remote call with the
// originating operation.
type CatalogError struct {
	Operation string
	Err       error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("printify %s failed: %v", e.Operation, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// Client talks to the Printify REST API.
type Client struct {
	BaseURL string
	Token   string
	ShopID  string
	Client  *http.Client

	cache sync.Map // In-memory cache for catalog reads
}

type cachedItem struct {
	data      interface{}
	expiresAt time.Time
}

func NewClient(token, shopID string) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		Token:   token,
		ShopID:  shopID,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Caching Helpers ---

func (c *Client) getFromCache(key string) (interface{}, bool) {
	val, ok := c.cache.Load(key)
	if !ok {
		return nil, false
	}
	item := val.(cachedItem)
	if time.Now().After(item.expiresAt) {
		c.cache.Delete(key)
		return nil, false
	}
	return item.data, true
}

func (c *Client) setCache(key string, data interface{}, duration time.Duration) {
	c.cache.Store(key, cachedItem{
		data:      data,
		expiresAt: time.Now().Add(duration),
	})
}

// --- Catalog ---

// GetBlueprints fetches the full catalog snapshot.
func (c *Client) GetBlueprints(ctx context.Context) ([]store.CatalogEntry, error) {
	if val, ok := c.getFromCache("blueprints"); ok {
		return val.([]store.CatalogEntry), nil
	}

	var blueprints []store.CatalogEntry
	if err := c.get(ctx, "/catalog/blueprints.json", &blueprints); err != nil {
		return nil, &CatalogError{Operation: "blueprints", Err: err}
	}

	c.setCache("blueprints", blueprints, catalogCacheTTL)
	return blueprints, nil
}

// GetPrintProviders lists the providers able to fulfil a blueprint.
func (c *Client) GetPrintProviders(ctx context.Context, blueprintID int) ([]store.PrintProvider, error) {
	var providers []store.PrintProvider
	path := fmt.Sprintf("/catalog/blueprints/%d/print_providers.json", blueprintID)
	if err := c.get(ctx, path, &providers); err != nil {
		return nil, &CatalogError{Operation: "print_providers", Err: err}
	}
	return providers, nil
}

// GetVariants lists the variants for a (blueprint, provider) pair.
func (c *Client) GetVariants(ctx context.Context, blueprintID, providerID int) ([]store.Variant, error) {
	var result struct {
		Variants []store.Variant `json:"variants"`
	}
	path := fmt.Sprintf("/catalog/blueprints/%d/print_providers/%d/variants.json", blueprintID, providerID)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, &CatalogError{Operation: "variants", Err: err}
	}
	return result.Variants, nil
}

// --- Commerce ---

// UploadImage registers an externally hosted image in the shop's asset
// store so products can reference it by id.
func (c *Client) UploadImage(ctx context.Context, fileName, imageURL string) (store.UploadedImage, error) {
	payload := map[string]string{
		"file_name": fileName,
		"url":       imageURL,
	}

	var uploaded store.UploadedImage
	if err := c.post(ctx, "/uploads/images.json", payload, &uploaded); err != nil {
		return store.UploadedImage{}, &CatalogError{Operation: "upload_image", Err: err}
	}
	return uploaded, nil
}

// CreateProductPayload is the product creation body. PrintArea placements
// reference uploaded asset ids.
type CreateProductPayload struct {
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	BlueprintID     int         `json:"blueprint_id"`
	PrintProviderID int         `json:"print_provider_id"`
	Variants        []VariantIn `json:"variants"`
	PrintAreas      []PrintArea `json:"print_areas"`
}

type VariantIn struct {
	ID      int  `json:"id"`
	Price   int  `json:"price"`
	Enabled bool `json:"is_enabled"`
}

type PrintArea struct {
	VariantIDs   []int         `json:"variant_ids"`
	Placeholders []Placeholder `json:"placeholders"`
}

type Placeholder struct {
	Position string       `json:"position"`
	Images   []PlacedItem `json:"images"`
}

type PlacedItem struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
	Angle float64 `json:"angle"`
}

// CreateProduct creates a product in the shop.
func (c *Client) CreateProduct(ctx context.Context, payload CreateProductPayload) (store.CreatedProduct, error) {
	var created store.CreatedProduct
	path := fmt.Sprintf("/shops/%s/products.json", c.ShopID)
	if err := c.post(ctx, path, payload, &created); err != nil {
		return store.CreatedProduct{}, &CatalogError{Operation: "create_product", Err: err}
	}
	return created, nil
}

// PublishProduct publishes a created product to the shop's sales channel.
func (c *Client) PublishProduct(ctx context.Context, productID string) error {
	payload := map[string]bool{
		"title":       true,
		"description": true,
		"images":      true,
		"variants":    true,
		"tags":        true,
	}

	path := fmt.Sprintf("/shops/%s/products/%s/publish.json", c.ShopID, productID)
	if err := c.post(ctx, path, payload, nil); err != nil {
		return &CatalogError{Operation: "publish_product", Err: err}
	}
	return nil
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

package store

import "sync"

// Phase is the conversation's current stage in the fixed protocol.
type Phase string

const (
	PhaseIntake           Phase = "INTAKE"
	PhaseDesignRefinement Phase = "DESIGN_REFINEMENT"
	PhaseProductSelection Phase = "PRODUCT_SELECTION"
	PhaseConfigured       Phase = "CONFIGURED"
)

// Message is one chat turn. Immutable once appended to history.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// ProductDetails holds the free-text attributes extracted from the user's
// opening request. All fields optional.
type ProductDetails struct {
	Type     string `json:"type,omitempty"`
	Color    string `json:"color,omitempty"`
	Size     string `json:"size,omitempty"`
	Material string `json:"material,omitempty"`
}

func (d ProductDetails) Empty() bool {
	return d.Type == "" && d.Color == "" && d.Size == "" && d.Material == ""
}

// DesignStatus of a design record.
const (
	DesignStatusRefining = "refining"
	DesignStatusApproved = "approved"
)

// DesignRecord is one link in the design lineage chain. Records are
// superseded on revision, never mutated in place, so any historical prompt
// can be resumed from.
type DesignRecord struct {
	ImageURL       string `json:"image_url"`
	Analysis       string `json:"analysis,omitempty"`
	OriginalPrompt string `json:"original_prompt"`
	CurrentPrompt  string `json:"current_prompt"`
	Status         string `json:"status"` // "refining" | "approved"
}

// Variant is one purchasable variant of a catalog entry.
type Variant struct {
	ID         int               `json:"id"`
	Title      string            `json:"title"`
	Price      int               `json:"price"`
	Enabled    bool              `json:"is_enabled"`
	Attributes map[string]string `json:"options,omitempty"`
}

// CatalogEntry is a purchasable product template (Printify blueprint).
// Sourced verbatim from the commerce API; never mutated, only scored and
// ordered in copies.
type CatalogEntry struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Images      []string  `json:"images"`
	Variants    []Variant `json:"variants,omitempty"`
}

// PrintProvider fulfils a catalog entry.
type PrintProvider struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// UploadedImage is an asset registered in the commerce backend's store.
type UploadedImage struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
}

// CreatedProduct is the result of a commerce product creation call.
type CreatedProduct struct {
	ID string `json:"id"`
}

// ProductConfig is the final commerce payload recorded after configuration.
type ProductConfig struct {
	ProductID      string   `json:"product_id"`
	BlueprintID    int      `json:"blueprint_id"`
	ProviderID     int      `json:"print_provider_id"`
	VariantID      int      `json:"variant_id"`
	ImageID        string   `json:"image_id"`
	CompletedSteps []string `json:"completed_steps"`
}

// Conversation is the mutable per-conversation state, owned exclusively by
// the orchestrator. One instance per conversation id; discarded when the
// conversation expires from the store.
type Conversation struct {
	// Guards a whole turn. Two messages for the same conversation must not
	// be processed concurrently.
	Mu sync.Mutex `json:"-"`

	ID      string    `json:"id"`
	Phase   Phase     `json:"phase"`
	History []Message `json:"history"`

	ProductDetails ProductDetails `json:"product_details"`
	DesignContent  string         `json:"design_content"`
	CurrentDesign  *DesignRecord  `json:"current_design,omitempty"`
	DesignApproved bool           `json:"design_approved"`

	// Session-scoped ranking state. RankedCatalog is recomputed (and
	// ShownEntryIDs cleared) only when a new search starts, never silently
	// grown. ShownEntryIDs is always a subset of ids(RankedCatalog).
	RankedCatalog []CatalogEntry   `json:"ranked_catalog,omitempty"`
	ShownEntryIDs map[int]struct{} `json:"-"`

	// The page most recently delivered to the user; selection indexes are
	// validated against it.
	LastPage []CatalogEntry `json:"last_page,omitempty"`

	SelectedEntry *CatalogEntry  `json:"selected_entry,omitempty"`
	ProductConfig *ProductConfig `json:"product_config,omitempty"`
}

// NewConversation returns a fresh context in the Intake phase.
func NewConversation(id string) *Conversation {
	return &Conversation{
		ID:            id,
		Phase:         PhaseIntake,
		ShownEntryIDs: make(map[int]struct{}),
	}
}

// AppendMessage adds a turn to the history.
func (c *Conversation) AppendMessage(role, content string) {
	c.History = append(c.History, Message{Role: role, Content: content})
}

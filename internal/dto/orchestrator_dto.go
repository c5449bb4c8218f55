package dto

import (
	"ai-merchbot-be/pkg/store"
)

// Response type tags. Exactly one variant per turn; the tag determines
// which fields are present.
const (
	ResponseTypeChat              = "chat"
	ResponseTypeDesign            = "design"
	ResponseTypeDesignAndProducts = "design_and_products"
	ResponseTypeProductSelection  = "product_selection"
)

// Selection statuses.
const (
	SelectionStatusSelecting = "selecting"
	SelectionStatusConfirmed = "confirmed"
)

// DesignPayload is the design body shared by the design and
// design_and_products variants.
type DesignPayload struct {
	ImageUrl       string `json:"image_url"`
	Analysis       string `json:"analysis,omitempty"`
	OriginalPrompt string `json:"original_prompt"`
	CurrentPrompt  string `json:"current_prompt"`
	Status         string `json:"status"` // "refining" | "approved"
}

// OrchestratorResponse is the discriminated union emitted once per turn.
// Field presence follows the Type tag:
//
//	chat                -> Message
//	design              -> Message, Design
//	design_and_products -> Message, Design, Products, HasMore
//	product_selection   -> Message, Status, SelectedEntryId
type OrchestratorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`

	Design *DesignPayload `json:"design,omitempty"`

	Products []store.CatalogEntry `json:"products,omitempty"`
	HasMore  *bool                `json:"has_more,omitempty"`

	Status          string `json:"status,omitempty"`
	SelectedEntryId *int   `json:"selected_entry_id,omitempty"`
}

// ProductSearchResponse is returned by the standalone product search
// endpoint.
type ProductSearchResponse struct {
	Products       []store.CatalogEntry `json:"products"`
	HasMore        bool                 `json:"has_more"`
	TotalRemaining int                  `json:"total_remaining"`
}

func NewDesignPayload(record *store.DesignRecord) *DesignPayload {
	return &DesignPayload{
		ImageUrl:       record.ImageURL,
		Analysis:       record.Analysis,
		OriginalPrompt: record.OriginalPrompt,
		CurrentPrompt:  record.CurrentPrompt,
		Status:         record.Status,
	}
}

func BoolPtr(v bool) *bool { return &v }

func IntPtr(v int) *int { return &v }

package product

import (
	"ai-merchbot-be/internal/pkg/logger"
	"ai-merchbot-be/pkg/store"
	"context"
	"sort"
	"strings"
)

// PageSize is the number of catalog entries per results page.
const PageSize = 3

// Score weights for the additive match heuristic.
const (
	typeMatchScore     = 3
	colorMatchScore    = 2
	materialMatchScore = 2
)

// Catalog is the read side of the commerce capability this agent needs.
type Catalog interface {
	GetBlueprints(ctx context.Context) ([]store.CatalogEntry, error)
}

// Page is one slice of ranked, not-yet-shown catalog entries.
type Page struct {
	Entries        []store.CatalogEntry `json:"products"`
	HasMore        bool                 `json:"has_more"`
	TotalRemaining int                  `json:"total_remaining"`
}

// Ranker scores and paginates catalog entries against requested attributes.
// It is stateless; all pagination state lives on the conversation so
// concurrent conversations never share rankings.
type Ranker struct {
	catalog  Catalog
	log      logger.ILogger
	pageSize int
}

func NewRanker(catalog Catalog, log logger.ILogger) *Ranker {
	return &Ranker{
		catalog:  catalog,
		log:      log,
		pageSize: PageSize,
	}
}

// Search returns the next page of ranked results for the conversation.
// When reset is true (or no ranking exists yet) it fetches a fresh catalog
// snapshot, ranks it, and clears the shown set before paging.
func (r *Ranker) Search(ctx context.Context, conv *store.Conversation, details store.ProductDetails, reset bool) (*Page, error) {
	if reset || conv.RankedCatalog == nil {
		r.log.Info("product", "Initiating product search", map[string]interface{}{
			"conversation_id": conv.ID,
			"type":            details.Type,
		})

		entries, err := r.catalog.GetBlueprints(ctx)
		if err != nil {
			return nil, err
		}

		conv.RankedCatalog = Rank(entries, details)
		conv.ShownEntryIDs = make(map[int]struct{})
	}

	page := r.nextPage(conv)

	r.log.Info("product", "Search results prepared", map[string]interface{}{
		"count":     len(page.Entries),
		"remaining": page.TotalRemaining,
	})
	return page, nil
}

// nextPage takes the first pageSize entries not yet shown and marks them.
func (r *Ranker) nextPage(conv *store.Conversation) *Page {
	page := &Page{Entries: []store.CatalogEntry{}}

	for _, entry := range conv.RankedCatalog {
		if len(page.Entries) == r.pageSize {
			break
		}
		if _, shown := conv.ShownEntryIDs[entry.ID]; shown {
			continue
		}
		conv.ShownEntryIDs[entry.ID] = struct{}{}
		page.Entries = append(page.Entries, entry)
	}

	page.TotalRemaining = len(conv.RankedCatalog) - len(conv.ShownEntryIDs)
	page.HasMore = page.TotalRemaining > 0
	return page
}

// Rank orders entries by descending match score. The sort is stable so
// tied entries keep catalog order, including the all-zero case when details
// is empty.
func Rank(entries []store.CatalogEntry, details store.ProductDetails) []store.CatalogEntry {
	ranked := make([]store.CatalogEntry, len(entries))
	copy(ranked, entries)

	scores := make(map[int]int, len(ranked))
	for _, e := range ranked {
		scores[e.ID] = MatchScore(e, details)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].ID] > scores[ranked[j].ID]
	})
	return ranked
}

// MatchScore is the additive heuristic: +3 for a type hit in title or
// description, +2 per variant matching the requested color, +2 per variant
// matching the requested material. Deterministic and always >= 0.
func MatchScore(entry store.CatalogEntry, details store.ProductDetails) int {
	score := 0

	if details.Type != "" {
		wanted := strings.ToLower(details.Type)
		if strings.Contains(strings.ToLower(entry.Title), wanted) ||
			strings.Contains(strings.ToLower(entry.Description), wanted) {
			score += typeMatchScore
		}
	}

	for _, variant := range entry.Variants {
		if details.Color != "" && attributeContains(variant.Attributes, "color", details.Color) {
			score += colorMatchScore
		}
		if details.Material != "" && attributeContains(variant.Attributes, "material", details.Material) {
			score += materialMatchScore
		}
	}

	return score
}

func attributeContains(attrs map[string]string, key, wanted string) bool {
	if attrs == nil {
		return false
	}
	return strings.Contains(strings.ToLower(attrs[key]), strings.ToLower(wanted))
}

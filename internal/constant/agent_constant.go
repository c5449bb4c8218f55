package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"
)

// Classification prompts. Every prompt demands a single JSON object; parse
// failure is treated as "classification unknown", never as a crash.
const (
	// INTENT PARSING (Intake phase)
	IntentParsePrompt = `Parse this message into product details and design content.

Internal logic:
- productDetails captures attributes of the PHYSICAL product (what it is made of, its color, its size)
- designContent captures ONLY the artwork/design the user wants printed on it
- Omit fields that are not mentioned, never invent values

JSON only:
{
  "type": "parse",
  "productDetails": {
    "type": "product type if mentioned",
    "color": "color if mentioned",
    "size": "size if mentioned",
    "material": "material if mentioned"
  },
  "designContent": "description of the design content only"
}`

	// DESIGN FEEDBACK (DesignRefinement phase)
	DesignFeedbackPrompt = `Determine if this message approves the current design or requests changes.

Internal logic:
- Satisfaction, agreement, or moving on → approved
- Any requested adjustment, complaint, or new idea → not approved, capture the changes
- Uncertain → not approved with empty changes

JSON only:
{"type": "design_feedback", "is_approved": boolean, "changes": "description of changes if any"}`

	// PRODUCT SELECTION (ProductSelection phase)
	ProductSelectionPrompt = `Classify this message from a user who was just shown a numbered list of %d product options.

Types:
- select: user picked one option -> set index to its ZERO-BASED position in the list
- more: user wants to see more options
- unclear: anything else

JSON only:
{"type": "product_selection", "action": "select|more|unclear", "index": number}`
)

// Conversational copy carried on responses (recovered from the original
// product's tone).
const (
	GreetingMessage = "Hi! Tell me what kind of product you'd like to customize and what design you'd like on it."

	IntakeFallbackMessage = "Could you please tell me what kind of product you'd like to customize and what design you'd like on it?"

	InitialDesignMessage = "I've created an initial design based on your description. How does this look? We can make any adjustments needed."

	RevisedDesignMessage = "I've updated the design based on your feedback. How does this look now?"

	ProductsFoundMessage = "Perfect! I've found some products that match your requirements. Take a look at these options and let me know which one you prefer."

	MoreOptionsHint = "If none of these are quite right, I can show you more options."

	NoMoreResultsMessage = "I'm afraid that's everything in the catalog matching your request. Let me know which of the earlier options you'd like."

	SelectionUnclearMessage = "Sorry, I didn't catch that. Reply with the number of the product you'd like, or ask to see more options."
)

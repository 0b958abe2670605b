package chat

import "strings"

// Category selects which prompt-assembly rules apply to a message.
type Category string

const (
	CategorySupport        Category = "support"
	CategoryRecommendation Category = "recommendation"
	CategoryGeneral        Category = "general"
)

// ParseCategory maps raw request input onto a known category.
// Empty input means support; anything unrecognised falls back to general.
func ParseCategory(raw string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case "", CategorySupport:
		return CategorySupport
	case CategoryRecommendation:
		return CategoryRecommendation
	default:
		return CategoryGeneral
	}
}

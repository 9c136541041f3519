package recipes

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// ingredientNames implements fuzzy.Source over an ingredient slice.
type ingredientNames []Ingredient

func (s ingredientNames) String(i int) string {
	return strings.ToLower(s[i].Name)
}

func (s ingredientNames) Len() int {
	return len(s)
}

// SearchIngredients returns ingredients whose name starts with query,
// followed by fuzzy matches ranked by score. An empty query returns the whole
// catalog. A non-positive limit means no limit.
func SearchIngredients(catalog []Ingredient, query string, limit int) []Ingredient {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return capIngredients(catalog, limit)
	}

	result := make([]Ingredient, 0)
	taken := make(map[int]struct{})

	for i, ing := range catalog {
		if strings.HasPrefix(strings.ToLower(ing.Name), query) {
			result = append(result, ing)
			taken[i] = struct{}{}
		}
	}

	for _, match := range fuzzy.FindFrom(query, ingredientNames(catalog)) {
		if _, ok := taken[match.Index]; ok {
			continue
		}

		result = append(result, catalog[match.Index])
	}

	return capIngredients(result, limit)
}

func capIngredients(items []Ingredient, limit int) []Ingredient {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}

	return items
}

package recipes_test

import (
	"testing"

	"github.com/serroba/recipebox/internal/recipes"
	"github.com/stretchr/testify/assert"
)

func catalog() []recipes.Ingredient {
	return []recipes.Ingredient{
		{ID: 1, Name: "Buckwheat", MeasurementUnit: "g"},
		{ID: 2, Name: "Butter", MeasurementUnit: "g"},
		{ID: 3, Name: "Egg", MeasurementUnit: "pc"},
		{ID: 4, Name: "Peanut butter", MeasurementUnit: "g"},
	}
}

func ids(items []recipes.Ingredient) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}

	return out
}

func TestSearchIngredients(t *testing.T) {
	t.Run("empty query returns catalog", func(t *testing.T) {
		assert.Len(t, recipes.SearchIngredients(catalog(), "", 0), 4)
	})

	t.Run("prefix matches come first and are case insensitive", func(t *testing.T) {
		got := recipes.SearchIngredients(catalog(), "BU", 0)

		assert.Equal(t, []int64{1, 2}, ids(got[:2]))
	})

	t.Run("fuzzy matches follow prefix matches", func(t *testing.T) {
		got := recipes.SearchIngredients(catalog(), "butter", 0)

		assert.Equal(t, int64(2), got[0].ID)
		assert.Contains(t, ids(got), int64(4))
	})

	t.Run("respects limit", func(t *testing.T) {
		assert.Len(t, recipes.SearchIngredients(catalog(), "b", 1), 1)
	})

	t.Run("no match returns empty", func(t *testing.T) {
		assert.Empty(t, recipes.SearchIngredients(catalog(), "zzz", 0))
	})
}

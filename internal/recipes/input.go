package recipes

import (
	"fmt"
	"strings"
)

// IngredientAmount references a catalog ingredient by id.
type IngredientAmount struct {
	IngredientID int64
	Amount       int
}

// RecipeInput is the writable part of a recipe.
type RecipeInput struct {
	Name        string
	Text        string
	Image       string
	CookingTime int
	TagIDs      []int64
	Ingredients []IngredientAmount
}

// Validate checks the input and returns a *ValidationError describing the
// first problem found.
func (in *RecipeInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewValidationError("name", "this field may not be blank")
	}

	if strings.TrimSpace(in.Text) == "" {
		return NewValidationError("text", "this field may not be blank")
	}

	if in.CookingTime < MinCookingTime || in.CookingTime > MaxCookingTime {
		return NewValidationError("cooking_time",
			fmt.Sprintf("must be between %d and %d", MinCookingTime, MaxCookingTime))
	}

	if len(in.TagIDs) == 0 {
		return NewValidationError("tags", "this field may not be empty")
	}

	seenTags := make(map[int64]struct{}, len(in.TagIDs))
	for _, id := range in.TagIDs {
		if _, ok := seenTags[id]; ok {
			return NewValidationError("tags", "a recipe cannot have duplicate tags")
		}

		seenTags[id] = struct{}{}
	}

	if len(in.Ingredients) == 0 {
		return NewValidationError("ingredients", "this field may not be empty")
	}

	seenIngredients := make(map[int64]struct{}, len(in.Ingredients))
	for _, item := range in.Ingredients {
		if _, ok := seenIngredients[item.IngredientID]; ok {
			return NewValidationError("ingredients", "a recipe cannot repeat ingredients")
		}

		seenIngredients[item.IngredientID] = struct{}{}

		if item.Amount < MinIngredientAmount {
			return NewValidationError("ingredients",
				fmt.Sprintf("amount cannot be less than %d", MinIngredientAmount))
		}
	}

	return nil
}

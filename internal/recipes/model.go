package recipes

import "time"

const (
	MinIngredientAmount = 1
	MinCookingTime      = 1
	MaxCookingTime      = 32000
)

// User is a registered author or reader.
type User struct {
	ID        int64
	Email     string
	Username  string
	FirstName string
	LastName  string
}

// Tag labels a recipe. Name and Slug are unique.
type Tag struct {
	ID   int64
	Name string
	Slug string
}

// Ingredient is a catalog entry. Two ingredients with the same name but a
// different measurement unit are distinct.
type Ingredient struct {
	ID              int64
	Name            string
	MeasurementUnit string
}

// RecipeIngredient is an ingredient together with the amount a recipe uses.
type RecipeIngredient struct {
	Ingredient Ingredient
	Amount     int
}

// Recipe is a published recipe with its tags and ingredients loaded.
type Recipe struct {
	ID          int64
	AuthorID    int64
	Name        string
	Text        string
	Image       string
	CookingTime int
	Tags        []Tag
	Ingredients []RecipeIngredient
	PublishedAt time.Time
}

// RecipeFilter narrows recipe listings. ViewerID is required for the
// Favorited and InShoppingCart filters; an anonymous viewer asking for
// either gets an empty result.
type RecipeFilter struct {
	AuthorID       *int64
	TagSlugs       []string
	Favorited      *bool
	InShoppingCart *bool
	ViewerID       int64
	Limit          int
	Offset         int
}

// RecipeState carries per-viewer flags for a recipe.
type RecipeState struct {
	Favorited      bool
	InShoppingCart bool
}

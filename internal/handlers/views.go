package handlers

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/recipebox/internal/recipes"
)

// TagResponse is the public form of a tag.
type TagResponse struct {
	ID   int64  `json:"id"   example:"1"`
	Name string `json:"name" example:"Breakfast"`
	Slug string `json:"slug" example:"breakfast"`
}

// IngredientResponse is the public form of a catalog ingredient.
type IngredientResponse struct {
	ID              int64  `json:"id"               example:"1"`
	Name            string `json:"name"             example:"flour"`
	MeasurementUnit string `json:"measurement_unit" example:"g"`
}

// RecipeIngredientResponse is an ingredient line of a recipe.
type RecipeIngredientResponse struct {
	IngredientResponse

	Amount int `json:"amount" example:"200"`
}

// UserResponse is the public form of a user as seen by the viewer.
type UserResponse struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// RecipeFull is the complete representation of a recipe.
type RecipeFull struct {
	ID               int64                      `json:"id"`
	Tags             []TagResponse              `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// RecipeShort is the compact representation used in relation responses.
type RecipeShort struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// ViewKind selects a recipe representation.
type ViewKind int

const (
	ViewFull ViewKind = iota
	ViewShort
)

// RecipeView is a recipe in exactly one of its representations.
type RecipeView struct {
	Kind  ViewKind
	Full  *RecipeFull
	Short *RecipeShort
}

func (v RecipeView) MarshalJSON() ([]byte, error) {
	if v.Kind == ViewShort {
		return json.Marshal(v.Short)
	}

	return json.Marshal(v.Full)
}

// Schema documents the view as one of its two representations.
func (RecipeView) Schema(r huma.Registry) *huma.Schema {
	return &huma.Schema{
		OneOf: []*huma.Schema{
			r.Schema(reflect.TypeFor[RecipeFull](), true, "RecipeFull"),
			r.Schema(reflect.TypeFor[RecipeShort](), true, "RecipeShort"),
		},
	}
}

// viewKinds maps operations to the representation they respond with.
// Operations not listed use ViewFull.
var viewKinds = map[string]ViewKind{
	"favorite":      ViewShort,
	"shopping_cart": ViewShort,
	"subscribe":     ViewShort,
	"subscriptions": ViewShort,
}

func viewFor(operation string) ViewKind {
	return viewKinds[operation]
}

func tagResponse(t recipes.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

func ingredientResponse(i recipes.Ingredient) IngredientResponse {
	return IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func userResponse(u *recipes.User, subscribed bool) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func shortRecipe(r *recipes.Recipe) *RecipeShort {
	return &RecipeShort{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// recipeView renders r in the representation of operation for viewerID.
func (h *Handler) recipeView(ctx context.Context, operation string, viewerID int64, r *recipes.Recipe) (RecipeView, error) {
	if viewFor(operation) == ViewShort {
		return RecipeView{Kind: ViewShort, Short: shortRecipe(r)}, nil
	}

	author, err := h.recipes.User(ctx, r.AuthorID)
	if err != nil {
		return RecipeView{}, err
	}

	subscribed, err := h.recipes.Subscribed(ctx, viewerID, r.AuthorID)
	if err != nil {
		return RecipeView{}, err
	}

	state, err := h.recipes.State(ctx, viewerID, r.ID)
	if err != nil {
		return RecipeView{}, err
	}

	full := &RecipeFull{
		ID:               r.ID,
		Tags:             make([]TagResponse, 0, len(r.Tags)),
		Author:           userResponse(author, subscribed),
		Ingredients:      make([]RecipeIngredientResponse, 0, len(r.Ingredients)),
		IsFavorited:      state.Favorited,
		IsInShoppingCart: state.InShoppingCart,
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}

	for _, t := range r.Tags {
		full.Tags = append(full.Tags, tagResponse(t))
	}

	for _, item := range r.Ingredients {
		full.Ingredients = append(full.Ingredients, RecipeIngredientResponse{
			IngredientResponse: ingredientResponse(item.Ingredient),
			Amount:             item.Amount,
		})
	}

	return RecipeView{Kind: ViewFull, Full: full}, nil
}

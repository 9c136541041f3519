package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/recipebox/internal/ratelimit"
)

func limits(cfg ratelimit.EndpointConfig) map[string]any {
	return map[string]any{ratelimit.MetadataKey: cfg}
}

// RegisterRoutes registers the recipe API with per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tags",
		Method:      http.MethodGet,
		Path:        "/api/tags",
		Summary:     "List tags",
		Tags:        []string{"Tags"},
	}, h.ListTags)

	huma.Register(api, huma.Operation{
		OperationID: "get-tag",
		Method:      http.MethodGet,
		Path:        "/api/tags/{id}",
		Summary:     "Get tag",
		Tags:        []string{"Tags"},
	}, h.GetTag)

	huma.Register(api, huma.Operation{
		OperationID: "list-ingredients",
		Method:      http.MethodGet,
		Path:        "/api/ingredients",
		Summary:     "List or search ingredients",
		Description: "With ?name, returns prefix matches first, then fuzzy matches.",
		Tags:        []string{"Ingredients"},
	}, h.ListIngredients)

	huma.Register(api, huma.Operation{
		OperationID: "get-ingredient",
		Method:      http.MethodGet,
		Path:        "/api/ingredients/{id}",
		Summary:     "Get ingredient",
		Tags:        []string{"Ingredients"},
	}, h.GetIngredient)

	registerRecipeRoutes(api, h)
	registerUserRoutes(api, h)

	// GET /{slug} - Redirect to the recipe page
	// Relaxed limits for high-traffic reads
	huma.Register(api, huma.Operation{
		OperationID: "resolve-short-link",
		Method:      http.MethodGet,
		Path:        "/{slug}",
		Summary:     "Follow short link",
		Description: "Redirects to the recipe page stored with the slug.",
		Tags:        []string{"Short links"},
		Metadata: limits(ratelimit.EndpointConfig{
			Limits: []ratelimit.LimitConfig{{Window: time.Minute, Max: 1000}},
		}),
	}, h.Redirect)
}

func registerRecipeRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-recipes",
		Method:      http.MethodGet,
		Path:        "/api/recipes",
		Summary:     "List recipes",
		Tags:        []string{"Recipes"},
	}, h.ListRecipes)

	huma.Register(api, huma.Operation{
		OperationID:   "create-recipe",
		Method:        http.MethodPost,
		Path:          "/api/recipes",
		Summary:       "Create recipe",
		Tags:          []string{"Recipes"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateRecipe)

	huma.Register(api, huma.Operation{
		OperationID: "download-shopping-cart",
		Method:      http.MethodGet,
		Path:        "/api/recipes/download_shopping_cart",
		Summary:     "Download shopping list",
		Description: "Aggregates the ingredients of every recipe in the cart into a PDF.",
		Tags:        []string{"Recipes"},
		Metadata:    limits(ratelimit.EndpointConfig{Scope: ratelimit.ScopeRender}),
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Shopping list document",
				Content:     map[string]*huma.MediaType{"application/pdf": {}},
			},
		},
	}, h.DownloadShoppingCart)

	huma.Register(api, huma.Operation{
		OperationID: "get-recipe",
		Method:      http.MethodGet,
		Path:        "/api/recipes/{id}",
		Summary:     "Get recipe",
		Tags:        []string{"Recipes"},
	}, h.GetRecipe)

	huma.Register(api, huma.Operation{
		OperationID: "update-recipe",
		Method:      http.MethodPatch,
		Path:        "/api/recipes/{id}",
		Summary:     "Update recipe",
		Description: "Replaces every writable field. Only the author may update a recipe.",
		Tags:        []string{"Recipes"},
	}, h.UpdateRecipe)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-recipe",
		Method:        http.MethodDelete,
		Path:          "/api/recipes/{id}",
		Summary:       "Delete recipe",
		Tags:          []string{"Recipes"},
		DefaultStatus: http.StatusNoContent,
	}, h.DeleteRecipe)

	// Every call mints a new link, so it counts as a write.
	huma.Register(api, huma.Operation{
		OperationID: "get-recipe-link",
		Method:      http.MethodGet,
		Path:        "/api/recipes/{id}/get-link",
		Summary:     "Get short link",
		Tags:        []string{"Recipes", "Short links"},
		Metadata:    limits(ratelimit.EndpointConfig{Scope: ratelimit.ScopeWrite}),
	}, h.GetLink)

	huma.Register(api, huma.Operation{
		OperationID:   "add-favorite",
		Method:        http.MethodPost,
		Path:          "/api/recipes/{id}/favorite",
		Summary:       "Add to favorites",
		Tags:          []string{"Recipes"},
		DefaultStatus: http.StatusCreated,
	}, h.AddFavorite)

	huma.Register(api, huma.Operation{
		OperationID:   "remove-favorite",
		Method:        http.MethodDelete,
		Path:          "/api/recipes/{id}/favorite",
		Summary:       "Remove from favorites",
		Tags:          []string{"Recipes"},
		DefaultStatus: http.StatusNoContent,
	}, h.RemoveFavorite)

	huma.Register(api, huma.Operation{
		OperationID:   "add-to-shopping-cart",
		Method:        http.MethodPost,
		Path:          "/api/recipes/{id}/shopping_cart",
		Summary:       "Add to shopping cart",
		Tags:          []string{"Recipes"},
		DefaultStatus: http.StatusCreated,
	}, h.AddToShoppingCart)

	huma.Register(api, huma.Operation{
		OperationID:   "remove-from-shopping-cart",
		Method:        http.MethodDelete,
		Path:          "/api/recipes/{id}/shopping_cart",
		Summary:       "Remove from shopping cart",
		Tags:          []string{"Recipes"},
		DefaultStatus: http.StatusNoContent,
	}, h.RemoveFromShoppingCart)
}

func registerUserRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-subscriptions",
		Method:      http.MethodGet,
		Path:        "/api/users/subscriptions",
		Summary:     "List subscriptions",
		Tags:        []string{"Users"},
	}, h.ListSubscriptions)

	huma.Register(api, huma.Operation{
		OperationID:   "subscribe",
		Method:        http.MethodPost,
		Path:          "/api/users/{id}/subscribe",
		Summary:       "Subscribe to author",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, h.Subscribe)

	huma.Register(api, huma.Operation{
		OperationID:   "unsubscribe",
		Method:        http.MethodDelete,
		Path:          "/api/users/{id}/subscribe",
		Summary:       "Unsubscribe from author",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusNoContent,
	}, h.Unsubscribe)
}

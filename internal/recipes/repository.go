package recipes

import "context"

// RecipeRepository persists recipes together with their tags and ingredients.
type RecipeRepository interface {
	CreateRecipe(ctx context.Context, authorID int64, input *RecipeInput) (*Recipe, error)
	UpdateRecipe(ctx context.Context, id int64, input *RecipeInput) (*Recipe, error)
	DeleteRecipe(ctx context.Context, id int64) error
	GetRecipe(ctx context.Context, id int64) (*Recipe, error)
	RecipeExists(ctx context.Context, id int64) (bool, error)
	ListRecipes(ctx context.Context, filter RecipeFilter) ([]Recipe, int, error)
	RecipeState(ctx context.Context, viewerID, recipeID int64) (RecipeState, error)
}

// CatalogRepository exposes the read-mostly tag and ingredient catalog.
type CatalogRepository interface {
	ListTags(ctx context.Context) ([]Tag, error)
	GetTag(ctx context.Context, id int64) (*Tag, error)
	ListIngredients(ctx context.Context) ([]Ingredient, error)
	GetIngredient(ctx context.Context, id int64) (*Ingredient, error)
	// AddIngredient inserts an ingredient unless one with the same name and
	// unit exists. It reports whether a row was created.
	AddIngredient(ctx context.Context, ingredient *Ingredient) (bool, error)
}

// Relation identifies one of the user-to-object membership tables.
type Relation string

const (
	RelationFavorite     Relation = "favorite"
	RelationShoppingCart Relation = "shopping_cart"
	RelationSubscription Relation = "subscription"
)

// RelationRepository manages user-owned memberships. Add returns
// ErrAlreadyAdded on a duplicate pair and Remove returns ErrNotFound when the
// pair does not exist.
type RelationRepository interface {
	AddRelation(ctx context.Context, relation Relation, userID, targetID int64) error
	RemoveRelation(ctx context.Context, relation Relation, userID, targetID int64) error
	// ShoppingCartRecipes returns the recipes in the user's cart, oldest entry first.
	ShoppingCartRecipes(ctx context.Context, userID int64) ([]Recipe, error)
	Subscriptions(ctx context.Context, userID int64) ([]User, error)
}

// UserRepository looks up users.
type UserRepository interface {
	GetUser(ctx context.Context, id int64) (*User, error)
}

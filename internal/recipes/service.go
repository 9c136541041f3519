package recipes

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	DefaultPageSize = 6
	// DefaultSearchLimit caps ingredient search results.
	DefaultSearchLimit = 20
)

// Store is everything the Service needs from persistence.
type Store interface {
	RecipeRepository
	CatalogRepository
	RelationRepository
	UserRepository
}

// Subscription is an author the user follows, with a preview of their recipes.
type Subscription struct {
	Author       User
	Recipes      []Recipe
	RecipesCount int
}

// Service applies validation and ownership rules on top of a Store.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a recipe service.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) Create(ctx context.Context, authorID int64, input *RecipeInput) (*Recipe, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	recipe, err := s.store.CreateRecipe(ctx, authorID, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info("recipe created",
		zap.Int64("recipe_id", recipe.ID),
		zap.Int64("author_id", authorID),
	)

	return recipe, nil
}

// Update replaces a recipe's content. Only its author may do so.
func (s *Service) Update(ctx context.Context, userID, id int64, input *RecipeInput) (*Recipe, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, userID, id); err != nil {
		return nil, err
	}

	return s.store.UpdateRecipe(ctx, id, input)
}

// Delete removes a recipe. Only its author may do so.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if err := s.authorize(ctx, userID, id); err != nil {
		return err
	}

	if err := s.store.DeleteRecipe(ctx, id); err != nil {
		return err
	}

	s.logger.Info("recipe deleted", zap.Int64("recipe_id", id), zap.Int64("author_id", userID))

	return nil
}

func (s *Service) authorize(ctx context.Context, userID, id int64) error {
	recipe, err := s.store.GetRecipe(ctx, id)
	if err != nil {
		return err
	}

	if recipe.AuthorID != userID {
		return ErrForbidden
	}

	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Recipe, error) {
	return s.store.GetRecipe(ctx, id)
}

// List returns a page of recipes and the total number of matches.
func (s *Service) List(ctx context.Context, filter RecipeFilter) ([]Recipe, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageSize
	}

	filter.Offset = max(filter.Offset, 0)

	return s.store.ListRecipes(ctx, filter)
}

// State returns the viewer's flags for a recipe; anonymous viewers get none.
func (s *Service) State(ctx context.Context, viewerID, recipeID int64) (RecipeState, error) {
	if viewerID == 0 {
		return RecipeState{}, nil
	}

	return s.store.RecipeState(ctx, viewerID, recipeID)
}

// Add creates a favorite, cart entry or subscription.
func (s *Service) Add(ctx context.Context, rel Relation, userID, targetID int64) error {
	if rel == RelationSubscription && userID == targetID {
		return NewValidationError("", "you cannot subscribe to yourself")
	}

	if err := s.store.AddRelation(ctx, rel, userID, targetID); err != nil {
		return err
	}

	s.logger.Debug("relation added",
		zap.String("relation", string(rel)),
		zap.Int64("user_id", userID),
		zap.Int64("target_id", targetID),
	)

	return nil
}

// Remove deletes a favorite, cart entry or subscription.
func (s *Service) Remove(ctx context.Context, rel Relation, userID, targetID int64) error {
	err := s.store.RemoveRelation(ctx, rel, userID, targetID)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s %d: %w", rel, targetID, ErrNotFound)
	}

	return err
}

// Subscriptions lists the authors userID follows with up to recipesLimit of
// their latest recipes each. A negative limit includes all recipes.
func (s *Service) Subscriptions(ctx context.Context, userID int64, recipesLimit int) ([]Subscription, error) {
	authors, err := s.store.Subscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]Subscription, 0, len(authors))

	for _, author := range authors {
		limit := max(recipesLimit, 0)
		if recipesLimit == 0 {
			// only the count is needed
			limit = 1
		}

		filter := RecipeFilter{AuthorID: &author.ID, Limit: limit}

		list, total, err := s.store.ListRecipes(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("recipes of author %d: %w", author.ID, err)
		}

		if recipesLimit == 0 {
			list = nil
		}

		result = append(result, Subscription{Author: author, Recipes: list, RecipesCount: total})
	}

	return result, nil
}

// Subscribed reports whether userID follows authorID.
func (s *Service) Subscribed(ctx context.Context, userID, authorID int64) (bool, error) {
	if userID == 0 {
		return false, nil
	}

	authors, err := s.store.Subscriptions(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, a := range authors {
		if a.ID == authorID {
			return true, nil
		}
	}

	return false, nil
}

func (s *Service) User(ctx context.Context, id int64) (*User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *Service) Tags(ctx context.Context) ([]Tag, error) {
	return s.store.ListTags(ctx)
}

func (s *Service) Tag(ctx context.Context, id int64) (*Tag, error) {
	return s.store.GetTag(ctx, id)
}

func (s *Service) Ingredient(ctx context.Context, id int64) (*Ingredient, error) {
	return s.store.GetIngredient(ctx, id)
}

// Ingredients lists the catalog, narrowed by query when it is not empty.
func (s *Service) Ingredients(ctx context.Context, query string) ([]Ingredient, error) {
	catalog, err := s.store.ListIngredients(ctx)
	if err != nil {
		return nil, err
	}

	if query == "" {
		return catalog, nil
	}

	return SearchIngredients(catalog, query, DefaultSearchLimit), nil
}

// ImportIngredients adds every missing ingredient and reports how many were
// created.
func (s *Service) ImportIngredients(ctx context.Context, items []Ingredient) (int, error) {
	created := 0

	for i := range items {
		ok, err := s.store.AddIngredient(ctx, &items[i])
		if err != nil {
			return created, fmt.Errorf("import %q: %w", items[i].Name, err)
		}

		if ok {
			created++
		}
	}

	s.logger.Info("ingredients imported", zap.Int("total", len(items)), zap.Int("created", created))

	return created, nil
}

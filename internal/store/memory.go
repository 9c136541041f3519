package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/serroba/recipebox/internal/recipes"
	"github.com/serroba/recipebox/internal/shortlink"
)

type recipeRow struct {
	recipe      recipes.Recipe
	tagIDs      []int64
	ingredients []recipes.IngredientAmount
}

type relationKey struct {
	relation recipes.Relation
	userID   int64
	targetID int64
}

// MemoryStore is an in-memory implementation of every repository. It
// enforces the same uniqueness rules as the PostgreSQL schema.
type MemoryStore struct {
	mu          sync.RWMutex
	links       map[shortlink.Slug]shortlink.ShortLink
	users       map[int64]recipes.User
	tags        map[int64]recipes.Tag
	ingredients map[int64]recipes.Ingredient
	recipeRows  map[int64]*recipeRow
	relations   []relationKey
	lastID      int64
	now         func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links:       make(map[shortlink.Slug]shortlink.ShortLink),
		users:       make(map[int64]recipes.User),
		tags:        make(map[int64]recipes.Tag),
		ingredients: make(map[int64]recipes.Ingredient),
		recipeRows:  make(map[int64]*recipeRow),
		now:         time.Now,
	}
}

func (m *MemoryStore) nextID() int64 {
	m.lastID++

	return m.lastID
}

// AddUser stores a user and assigns its id.
func (m *MemoryStore) AddUser(_ context.Context, user *recipes.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return recipes.NewValidationError("email", "already registered")
		}
	}

	user.ID = m.nextID()
	m.users[user.ID] = *user

	return nil
}

// AddTag stores a tag and assigns its id.
func (m *MemoryStore) AddTag(_ context.Context, tag *recipes.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tags {
		if t.Name == tag.Name || t.Slug == tag.Slug {
			return recipes.NewValidationError("tag", "name and slug must be unique")
		}
	}

	tag.ID = m.nextID()
	m.tags[tag.ID] = *tag

	return nil
}

// Short links

func (m *MemoryStore) Exists(_ context.Context, slug shortlink.Slug) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.links[slug]

	return ok, nil
}

func (m *MemoryStore) Save(_ context.Context, link *shortlink.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[link.Slug]; ok {
		return shortlink.ErrSlugTaken
	}

	m.links[link.Slug] = *link

	return nil
}

func (m *MemoryStore) GetBySlug(_ context.Context, slug shortlink.Slug) (*shortlink.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[slug]
	if !ok {
		return nil, shortlink.ErrNotFound
	}

	return &link, nil
}

func (m *MemoryStore) MarkResolved(_ context.Context, slug shortlink.Slug, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[slug]
	if !ok {
		return shortlink.ErrNotFound
	}

	link.LastResolvedAt = &at
	m.links[slug] = link

	return nil
}

func (m *MemoryStore) Prune(_ context.Context, cutoff time.Time) ([]shortlink.Slug, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted []shortlink.Slug

	for slug, link := range m.links {
		lastUse := link.CreatedAt
		if link.LastResolvedAt != nil {
			lastUse = *link.LastResolvedAt
		}

		if lastUse.Before(cutoff) {
			delete(m.links, slug)
			deleted = append(deleted, slug)
		}
	}

	return deleted, nil
}

// Catalog

func (m *MemoryStore) ListTags(_ context.Context) ([]recipes.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tags := make([]recipes.Tag, 0, len(m.tags))
	for _, t := range m.tags {
		tags = append(tags, t)
	}

	slices.SortFunc(tags, func(a, b recipes.Tag) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})

	return tags, nil
}

func (m *MemoryStore) GetTag(_ context.Context, id int64) (*recipes.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tag, ok := m.tags[id]
	if !ok {
		return nil, recipes.ErrNotFound
	}

	return &tag, nil
}

func (m *MemoryStore) ListIngredients(_ context.Context) ([]recipes.Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]recipes.Ingredient, 0, len(m.ingredients))
	for _, ing := range m.ingredients {
		items = append(items, ing)
	}

	slices.SortFunc(items, func(a, b recipes.Ingredient) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})

	return items, nil
}

func (m *MemoryStore) GetIngredient(_ context.Context, id int64) (*recipes.Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ing, ok := m.ingredients[id]
	if !ok {
		return nil, recipes.ErrNotFound
	}

	return &ing, nil
}

func (m *MemoryStore) AddIngredient(_ context.Context, ingredient *recipes.Ingredient) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ing := range m.ingredients {
		if ing.Name == ingredient.Name && ing.MeasurementUnit == ingredient.MeasurementUnit {
			ingredient.ID = ing.ID

			return false, nil
		}
	}

	ingredient.ID = m.nextID()
	m.ingredients[ingredient.ID] = *ingredient

	return true, nil
}

// Users

func (m *MemoryStore) GetUser(_ context.Context, id int64) (*recipes.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, recipes.ErrNotFound
	}

	return &user, nil
}

// Recipes

func (m *MemoryStore) checkReferences(input *recipes.RecipeInput) error {
	for _, id := range input.TagIDs {
		if _, ok := m.tags[id]; !ok {
			return recipes.NewValidationError("tags", fmt.Sprintf("tag %d does not exist", id))
		}
	}

	for _, item := range input.Ingredients {
		if _, ok := m.ingredients[item.IngredientID]; !ok {
			return recipes.NewValidationError("ingredients",
				fmt.Sprintf("ingredient %d does not exist", item.IngredientID))
		}
	}

	return nil
}

func (m *MemoryStore) CreateRecipe(
	_ context.Context, authorID int64, input *recipes.RecipeInput,
) (*recipes.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[authorID]; !ok {
		return nil, recipes.ErrNotFound
	}

	if err := m.checkReferences(input); err != nil {
		return nil, err
	}

	row := &recipeRow{
		recipe: recipes.Recipe{
			ID:          m.nextID(),
			AuthorID:    authorID,
			PublishedAt: m.now(),
		},
	}
	applyInput(row, input)
	m.recipeRows[row.recipe.ID] = row

	return m.resolve(row), nil
}

func (m *MemoryStore) UpdateRecipe(_ context.Context, id int64, input *recipes.RecipeInput) (*recipes.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.recipeRows[id]
	if !ok {
		return nil, recipes.ErrNotFound
	}

	if err := m.checkReferences(input); err != nil {
		return nil, err
	}

	applyInput(row, input)

	return m.resolve(row), nil
}

func applyInput(row *recipeRow, input *recipes.RecipeInput) {
	row.recipe.Name = input.Name
	row.recipe.Text = input.Text
	row.recipe.Image = input.Image
	row.recipe.CookingTime = input.CookingTime
	row.tagIDs = slices.Clone(input.TagIDs)
	row.ingredients = slices.Clone(input.Ingredients)
}

func (m *MemoryStore) DeleteRecipe(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recipeRows[id]; !ok {
		return recipes.ErrNotFound
	}

	delete(m.recipeRows, id)

	for slug, link := range m.links {
		if link.RecipeID == id {
			delete(m.links, slug)
		}
	}

	m.relations = slices.DeleteFunc(m.relations, func(k relationKey) bool {
		return k.relation != recipes.RelationSubscription && k.targetID == id
	})

	return nil
}

func (m *MemoryStore) GetRecipe(_ context.Context, id int64) (*recipes.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.recipeRows[id]
	if !ok {
		return nil, recipes.ErrNotFound
	}

	return m.resolve(row), nil
}

func (m *MemoryStore) RecipeExists(_ context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.recipeRows[id]

	return ok, nil
}

func (m *MemoryStore) ListRecipes(_ context.Context, filter recipes.RecipeFilter) ([]recipes.Recipe, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*recipeRow, 0, len(m.recipeRows))

	for _, row := range m.recipeRows {
		if m.matches(row, filter) {
			matched = append(matched, row)
		}
	}

	slices.SortFunc(matched, func(a, b *recipeRow) int {
		return cmp.Or(
			b.recipe.PublishedAt.Compare(a.recipe.PublishedAt),
			cmp.Compare(b.recipe.ID, a.recipe.ID),
		)
	})

	total := len(matched)

	start := min(filter.Offset, total)
	end := total

	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	page := make([]recipes.Recipe, 0, end-start)
	for _, row := range matched[start:end] {
		page = append(page, *m.resolve(row))
	}

	return page, total, nil
}

func (m *MemoryStore) matches(row *recipeRow, filter recipes.RecipeFilter) bool {
	if filter.AuthorID != nil && row.recipe.AuthorID != *filter.AuthorID {
		return false
	}

	if len(filter.TagSlugs) > 0 && !m.hasAnyTag(row, filter.TagSlugs) {
		return false
	}

	if !m.matchesRelation(recipes.RelationFavorite, filter.Favorited, filter.ViewerID, row.recipe.ID) {
		return false
	}

	return m.matchesRelation(recipes.RelationShoppingCart, filter.InShoppingCart, filter.ViewerID, row.recipe.ID)
}

func (m *MemoryStore) hasAnyTag(row *recipeRow, slugs []string) bool {
	for _, id := range row.tagIDs {
		if slices.Contains(slugs, m.tags[id].Slug) {
			return true
		}
	}

	return false
}

func (m *MemoryStore) matchesRelation(rel recipes.Relation, want *bool, viewerID, recipeID int64) bool {
	if want == nil {
		return true
	}

	if viewerID == 0 {
		return !*want
	}

	return m.hasRelation(rel, viewerID, recipeID) == *want
}

func (m *MemoryStore) hasRelation(rel recipes.Relation, userID, targetID int64) bool {
	return slices.Contains(m.relations, relationKey{relation: rel, userID: userID, targetID: targetID})
}

func (m *MemoryStore) RecipeState(_ context.Context, viewerID, recipeID int64) (recipes.RecipeState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return recipes.RecipeState{
		Favorited:      m.hasRelation(recipes.RelationFavorite, viewerID, recipeID),
		InShoppingCart: m.hasRelation(recipes.RelationShoppingCart, viewerID, recipeID),
	}, nil
}

func (m *MemoryStore) resolve(row *recipeRow) *recipes.Recipe {
	r := row.recipe

	r.Tags = make([]recipes.Tag, 0, len(row.tagIDs))
	for _, id := range row.tagIDs {
		r.Tags = append(r.Tags, m.tags[id])
	}

	r.Ingredients = make([]recipes.RecipeIngredient, 0, len(row.ingredients))
	for _, item := range row.ingredients {
		r.Ingredients = append(r.Ingredients, recipes.RecipeIngredient{
			Ingredient: m.ingredients[item.IngredientID],
			Amount:     item.Amount,
		})
	}

	return &r
}

// Relations

func (m *MemoryStore) AddRelation(_ context.Context, rel recipes.Relation, userID, targetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.targetExists(rel, targetID) {
		return recipes.ErrNotFound
	}

	key := relationKey{relation: rel, userID: userID, targetID: targetID}
	if slices.Contains(m.relations, key) {
		return recipes.ErrAlreadyAdded
	}

	m.relations = append(m.relations, key)

	return nil
}

func (m *MemoryStore) targetExists(rel recipes.Relation, targetID int64) bool {
	if rel == recipes.RelationSubscription {
		_, ok := m.users[targetID]

		return ok
	}

	_, ok := m.recipeRows[targetID]

	return ok
}

func (m *MemoryStore) RemoveRelation(_ context.Context, rel recipes.Relation, userID, targetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := relationKey{relation: rel, userID: userID, targetID: targetID}

	idx := slices.Index(m.relations, key)
	if idx < 0 {
		return recipes.ErrNotFound
	}

	m.relations = slices.Delete(m.relations, idx, idx+1)

	return nil
}

func (m *MemoryStore) ShoppingCartRecipes(_ context.Context, userID int64) ([]recipes.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []recipes.Recipe

	for _, key := range m.relations {
		if key.relation != recipes.RelationShoppingCart || key.userID != userID {
			continue
		}

		if row, ok := m.recipeRows[key.targetID]; ok {
			result = append(result, *m.resolve(row))
		}
	}

	return result, nil
}

func (m *MemoryStore) Subscriptions(_ context.Context, userID int64) ([]recipes.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []recipes.User

	for _, key := range m.relations {
		if key.relation == recipes.RelationSubscription && key.userID == userID {
			result = append(result, m.users[key.targetID])
		}
	}

	return result, nil
}

// Compile-time checks.
var (
	_ shortlink.Repository       = (*MemoryStore)(nil)
	_ recipes.RecipeRepository   = (*MemoryStore)(nil)
	_ recipes.CatalogRepository  = (*MemoryStore)(nil)
	_ recipes.RelationRepository = (*MemoryStore)(nil)
	_ recipes.UserRepository     = (*MemoryStore)(nil)
)

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/recipebox/internal/recipes"
	"github.com/serroba/recipebox/internal/shortlink"
	"github.com/serroba/recipebox/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store  *store.MemoryStore
	author recipes.User
	reader recipes.User
	lunch  recipes.Tag
	dinner recipes.Tag
	flour  recipes.Ingredient
	egg    recipes.Ingredient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	f := &fixture{
		store:  store.NewMemoryStore(),
		author: recipes.User{Email: "chef@example.com", Username: "chef"},
		reader: recipes.User{Email: "eater@example.com", Username: "eater"},
		lunch:  recipes.Tag{Name: "Lunch", Slug: "lunch"},
		dinner: recipes.Tag{Name: "Dinner", Slug: "dinner"},
		flour:  recipes.Ingredient{Name: "flour", MeasurementUnit: "g"},
		egg:    recipes.Ingredient{Name: "egg", MeasurementUnit: "pcs"},
	}

	require.NoError(t, f.store.AddUser(ctx, &f.author))
	require.NoError(t, f.store.AddUser(ctx, &f.reader))
	require.NoError(t, f.store.AddTag(ctx, &f.lunch))
	require.NoError(t, f.store.AddTag(ctx, &f.dinner))

	_, err := f.store.AddIngredient(ctx, &f.flour)
	require.NoError(t, err)
	_, err = f.store.AddIngredient(ctx, &f.egg)
	require.NoError(t, err)

	return f
}

func (f *fixture) recipe(t *testing.T, name string, tagID int64) *recipes.Recipe {
	t.Helper()

	r, err := f.store.CreateRecipe(context.Background(), f.author.ID, &recipes.RecipeInput{
		Name:        name,
		Text:        "mix and bake",
		CookingTime: 30,
		TagIDs:      []int64{tagID},
		Ingredients: []recipes.IngredientAmount{
			{IngredientID: f.flour.ID, Amount: 200},
			{IngredientID: f.egg.ID, Amount: 2},
		},
	})
	require.NoError(t, err)

	return r
}

func TestMemoryStore_Recipes(t *testing.T) {
	ctx := context.Background()

	t.Run("create resolves tags and ingredients in input order", func(t *testing.T) {
		f := newFixture(t)

		r := f.recipe(t, "Pancakes", f.lunch.ID)

		assert.Equal(t, f.author.ID, r.AuthorID)
		assert.Equal(t, []recipes.Tag{f.lunch}, r.Tags)
		require.Len(t, r.Ingredients, 2)
		assert.Equal(t, "flour", r.Ingredients[0].Ingredient.Name)
		assert.Equal(t, 200, r.Ingredients[0].Amount)
		assert.Equal(t, "egg", r.Ingredients[1].Ingredient.Name)
	})

	t.Run("create rejects unknown tag", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.store.CreateRecipe(ctx, f.author.ID, &recipes.RecipeInput{
			Name: "x", Text: "y", CookingTime: 1, TagIDs: []int64{999},
			Ingredients: []recipes.IngredientAmount{{IngredientID: f.flour.ID, Amount: 1}},
		})

		assert.True(t, recipes.IsValidation(err))
	})

	t.Run("update replaces ingredients", func(t *testing.T) {
		f := newFixture(t)
		r := f.recipe(t, "Pancakes", f.lunch.ID)

		updated, err := f.store.UpdateRecipe(ctx, r.ID, &recipes.RecipeInput{
			Name: "Omelette", Text: "whisk", CookingTime: 5, TagIDs: []int64{f.dinner.ID},
			Ingredients: []recipes.IngredientAmount{{IngredientID: f.egg.ID, Amount: 3}},
		})

		require.NoError(t, err)
		assert.Equal(t, "Omelette", updated.Name)
		assert.Equal(t, r.PublishedAt, updated.PublishedAt)
		require.Len(t, updated.Ingredients, 1)
		assert.Equal(t, 3, updated.Ingredients[0].Amount)
	})

	t.Run("delete removes recipe and its relations", func(t *testing.T) {
		f := newFixture(t)
		r := f.recipe(t, "Pancakes", f.lunch.ID)
		require.NoError(t, f.store.AddRelation(ctx, recipes.RelationShoppingCart, f.reader.ID, r.ID))

		require.NoError(t, f.store.DeleteRecipe(ctx, r.ID))

		_, err := f.store.GetRecipe(ctx, r.ID)
		require.ErrorIs(t, err, recipes.ErrNotFound)

		cart, err := f.store.ShoppingCartRecipes(ctx, f.reader.ID)
		require.NoError(t, err)
		assert.Empty(t, cart)
	})

	t.Run("delete removes the recipe's short links", func(t *testing.T) {
		f := newFixture(t)
		doomed := f.recipe(t, "Pancakes", f.lunch.ID)
		kept := f.recipe(t, "Stew", f.dinner.ID)

		for slug, recipeID := range map[shortlink.Slug]int64{"gone1": doomed.ID, "gone2": doomed.ID, "kept1": kept.ID} {
			require.NoError(t, f.store.Save(ctx, &shortlink.ShortLink{Slug: slug, RecipeID: recipeID}))
		}

		require.NoError(t, f.store.DeleteRecipe(ctx, doomed.ID))

		for _, slug := range []shortlink.Slug{"gone1", "gone2"} {
			_, err := f.store.GetBySlug(ctx, slug)
			require.ErrorIs(t, err, shortlink.ErrNotFound, slug)
			assert.ErrorIs(t, f.store.MarkResolved(ctx, slug, time.Now()), shortlink.ErrNotFound, slug)
		}

		got, err := f.store.GetBySlug(ctx, "kept1")
		require.NoError(t, err)
		assert.Equal(t, kept.ID, got.RecipeID)
	})

	t.Run("delete unknown recipe returns ErrNotFound", func(t *testing.T) {
		f := newFixture(t)

		assert.ErrorIs(t, f.store.DeleteRecipe(ctx, 42), recipes.ErrNotFound)
	})
}

func TestMemoryStore_ListRecipes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.recipe(t, "First", f.lunch.ID)
	second := f.recipe(t, "Second", f.dinner.ID)
	third := f.recipe(t, "Third", f.lunch.ID)

	require.NoError(t, f.store.AddRelation(ctx, recipes.RelationFavorite, f.reader.ID, second.ID))

	names := func(list []recipes.Recipe) []string {
		out := make([]string, 0, len(list))
		for _, r := range list {
			out = append(out, r.Name)
		}

		return out
	}

	t.Run("newest first", func(t *testing.T) {
		list, total, err := f.store.ListRecipes(ctx, recipes.RecipeFilter{})

		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, []string{"Third", "Second", "First"}, names(list))
	})

	t.Run("paginates", func(t *testing.T) {
		list, total, err := f.store.ListRecipes(ctx, recipes.RecipeFilter{Limit: 1, Offset: 1})

		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, []string{"Second"}, names(list))
	})

	t.Run("filters by any tag", func(t *testing.T) {
		list, _, err := f.store.ListRecipes(ctx, recipes.RecipeFilter{TagSlugs: []string{"lunch"}})

		require.NoError(t, err)
		assert.Equal(t, []string{third.Name, first.Name}, names(list))
	})

	t.Run("filters by favorited", func(t *testing.T) {
		yes := true

		list, _, err := f.store.ListRecipes(ctx, recipes.RecipeFilter{Favorited: &yes, ViewerID: f.reader.ID})

		require.NoError(t, err)
		assert.Equal(t, []string{"Second"}, names(list))
	})

	t.Run("anonymous favorited filter is empty", func(t *testing.T) {
		yes := true

		list, total, err := f.store.ListRecipes(ctx, recipes.RecipeFilter{Favorited: &yes})

		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, list)
	})

	t.Run("filters by author", func(t *testing.T) {
		other := f.reader.ID

		_, total, err := f.store.ListRecipes(ctx, recipes.RecipeFilter{AuthorID: &other})

		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestMemoryStore_Relations(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate add returns ErrAlreadyAdded", func(t *testing.T) {
		f := newFixture(t)
		r := f.recipe(t, "Pancakes", f.lunch.ID)

		require.NoError(t, f.store.AddRelation(ctx, recipes.RelationFavorite, f.reader.ID, r.ID))

		err := f.store.AddRelation(ctx, recipes.RelationFavorite, f.reader.ID, r.ID)
		assert.ErrorIs(t, err, recipes.ErrAlreadyAdded)
	})

	t.Run("add to missing target returns ErrNotFound", func(t *testing.T) {
		f := newFixture(t)

		err := f.store.AddRelation(ctx, recipes.RelationShoppingCart, f.reader.ID, 404)
		assert.ErrorIs(t, err, recipes.ErrNotFound)
	})

	t.Run("remove missing pair returns ErrNotFound", func(t *testing.T) {
		f := newFixture(t)
		r := f.recipe(t, "Pancakes", f.lunch.ID)

		err := f.store.RemoveRelation(ctx, recipes.RelationFavorite, f.reader.ID, r.ID)
		assert.ErrorIs(t, err, recipes.ErrNotFound)
	})

	t.Run("cart keeps insertion order", func(t *testing.T) {
		f := newFixture(t)
		a := f.recipe(t, "A", f.lunch.ID)
		b := f.recipe(t, "B", f.lunch.ID)

		require.NoError(t, f.store.AddRelation(ctx, recipes.RelationShoppingCart, f.reader.ID, b.ID))
		require.NoError(t, f.store.AddRelation(ctx, recipes.RelationShoppingCart, f.reader.ID, a.ID))

		cart, err := f.store.ShoppingCartRecipes(ctx, f.reader.ID)

		require.NoError(t, err)
		require.Len(t, cart, 2)
		assert.Equal(t, "B", cart[0].Name)
		assert.Equal(t, "A", cart[1].Name)
	})

	t.Run("recipe state reflects relations", func(t *testing.T) {
		f := newFixture(t)
		r := f.recipe(t, "Pancakes", f.lunch.ID)
		require.NoError(t, f.store.AddRelation(ctx, recipes.RelationShoppingCart, f.reader.ID, r.ID))

		state, err := f.store.RecipeState(ctx, f.reader.ID, r.ID)

		require.NoError(t, err)
		assert.Equal(t, recipes.RecipeState{InShoppingCart: true}, state)
	})

	t.Run("subscriptions list authors", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.AddRelation(ctx, recipes.RelationSubscription, f.reader.ID, f.author.ID))

		subs, err := f.store.Subscriptions(ctx, f.reader.ID)

		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "chef", subs[0].Username)
	})
}

func TestMemoryStore_Catalog(t *testing.T) {
	ctx := context.Background()

	t.Run("add ingredient is idempotent on name and unit", func(t *testing.T) {
		f := newFixture(t)
		dup := recipes.Ingredient{Name: "flour", MeasurementUnit: "g"}

		created, err := f.store.AddIngredient(ctx, &dup)

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, f.flour.ID, dup.ID)
	})

	t.Run("same name with another unit is distinct", func(t *testing.T) {
		f := newFixture(t)
		kg := recipes.Ingredient{Name: "flour", MeasurementUnit: "kg"}

		created, err := f.store.AddIngredient(ctx, &kg)

		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, f.flour.ID, kg.ID)
	})

	t.Run("lists sorted by name", func(t *testing.T) {
		f := newFixture(t)

		items, err := f.store.ListIngredients(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "egg", items[0].Name)

		tags, err := f.store.ListTags(ctx)
		require.NoError(t, err)
		assert.Equal(t, []recipes.Tag{f.dinner, f.lunch}, tags)
	})

	t.Run("duplicate tag rejected", func(t *testing.T) {
		f := newFixture(t)

		err := f.store.AddTag(ctx, &recipes.Tag{Name: "Lunch", Slug: "lunch-2"})
		assert.True(t, recipes.IsValidation(err))
	})
}

func TestMemoryStore_ShortLinks(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	link := func(slug string) *shortlink.ShortLink {
		return &shortlink.ShortLink{
			Slug:         shortlink.Slug(slug),
			RecipeID:     1,
			RedirectURL:  "https://recipes.example.com/recipes/1",
			ShortLinkURL: "https://recipes.example.com/" + slug,
			CreatedAt:    created,
		}
	}

	t.Run("save then get", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Save(ctx, link("abc")))

		got, err := s.GetBySlug(ctx, "abc")

		require.NoError(t, err)
		assert.Equal(t, "https://recipes.example.com/recipes/1", got.RedirectURL)

		exists, err := s.Exists(ctx, "abc")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("save rejects taken slug", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Save(ctx, link("abc")))

		assert.ErrorIs(t, s.Save(ctx, link("abc")), shortlink.ErrSlugTaken)
	})

	t.Run("get unknown slug returns ErrNotFound", func(t *testing.T) {
		s := store.NewMemoryStore()

		_, err := s.GetBySlug(ctx, "missing")
		assert.ErrorIs(t, err, shortlink.ErrNotFound)
	})

	t.Run("prune keeps recently resolved links", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Save(ctx, link("old")))
		require.NoError(t, s.Save(ctx, link("used")))
		require.NoError(t, s.MarkResolved(ctx, "used", created.Add(48*time.Hour)))

		deleted, err := s.Prune(ctx, created.Add(24*time.Hour))

		require.NoError(t, err)
		assert.Equal(t, []shortlink.Slug{"old"}, deleted)

		_, err = s.GetBySlug(ctx, "used")
		assert.NoError(t, err)
	})
}

//go:build integration

package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/recipebox/internal/recipes"
	"github.com/serroba/recipebox/internal/shortlink"
	"github.com/serroba/recipebox/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithInitScripts(filepath.Join("testdata", "schema.sql")),
		postgres.WithDatabase("recipebox"),
		postgres.WithUsername("recipebox"),
		postgres.WithPassword("recipebox"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("PostgreSQL container not available: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func seedUser(t *testing.T, pool *pgxpool.Pool, username string) int64 {
	t.Helper()

	var id int64

	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (email, username) VALUES ($1, $2) RETURNING id`,
		username+"@example.com", username,
	).Scan(&id)
	require.NoError(t, err)

	return id
}

func seedTag(t *testing.T, pool *pgxpool.Pool, slug string) int64 {
	t.Helper()

	var id int64

	err := pool.QueryRow(context.Background(),
		`INSERT INTO tags (name, slug) VALUES ($1, $1) RETURNING id`, slug,
	).Scan(&id)
	require.NoError(t, err)

	return id
}

func TestPostgresStoreIntegration(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t)
	s := store.NewPostgresStore(pool)

	require.NoError(t, s.Ping(ctx))

	author := seedUser(t, pool, "chef")
	reader := seedUser(t, pool, "eater")
	lunch := seedTag(t, pool, "lunch")
	dinner := seedTag(t, pool, "dinner")

	flour := recipes.Ingredient{Name: "flour", MeasurementUnit: "g"}
	egg := recipes.Ingredient{Name: "egg", MeasurementUnit: "pcs"}

	created, err := s.AddIngredient(ctx, &flour)
	require.NoError(t, err)
	assert.True(t, created)

	_, err = s.AddIngredient(ctx, &egg)
	require.NoError(t, err)

	input := func(name string, tagID int64) *recipes.RecipeInput {
		return &recipes.RecipeInput{
			Name:        name,
			Text:        "mix and bake",
			CookingTime: 20,
			TagIDs:      []int64{tagID},
			Ingredients: []recipes.IngredientAmount{
				{IngredientID: egg.ID, Amount: 2},
				{IngredientID: flour.ID, Amount: 150},
			},
		}
	}

	pancakes, err := s.CreateRecipe(ctx, author, input("Pancakes", lunch))
	require.NoError(t, err)

	stew, err := s.CreateRecipe(ctx, author, input("Stew", dinner))
	require.NoError(t, err)

	t.Run("add ingredient is idempotent", func(t *testing.T) {
		dup := recipes.Ingredient{Name: "flour", MeasurementUnit: "g"}

		created, err := s.AddIngredient(ctx, &dup)

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, flour.ID, dup.ID)
	})

	t.Run("get recipe keeps ingredient order", func(t *testing.T) {
		got, err := s.GetRecipe(ctx, pancakes.ID)

		require.NoError(t, err)
		require.Len(t, got.Ingredients, 2)
		assert.Equal(t, "egg", got.Ingredients[0].Ingredient.Name)
		assert.Equal(t, 150, got.Ingredients[1].Amount)
		require.Len(t, got.Tags, 1)
		assert.Equal(t, "lunch", got.Tags[0].Slug)
	})

	t.Run("create with unknown ingredient is a validation error", func(t *testing.T) {
		bad := input("Broken", lunch)
		bad.Ingredients = []recipes.IngredientAmount{{IngredientID: 999999, Amount: 1}}

		_, err := s.CreateRecipe(ctx, author, bad)
		assert.True(t, recipes.IsValidation(err))
	})

	t.Run("list filters by tag", func(t *testing.T) {
		list, total, err := s.ListRecipes(ctx, recipes.RecipeFilter{TagSlugs: []string{"dinner"}})

		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, stew.ID, list[0].ID)
	})

	t.Run("list newest first with pagination", func(t *testing.T) {
		list, total, err := s.ListRecipes(ctx, recipes.RecipeFilter{Limit: 1})

		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, list, 1)
		assert.Equal(t, stew.ID, list[0].ID)
	})

	t.Run("relations", func(t *testing.T) {
		require.NoError(t, s.AddRelation(ctx, recipes.RelationShoppingCart, reader, stew.ID))
		require.NoError(t, s.AddRelation(ctx, recipes.RelationShoppingCart, reader, pancakes.ID))

		err := s.AddRelation(ctx, recipes.RelationShoppingCart, reader, stew.ID)
		require.ErrorIs(t, err, recipes.ErrAlreadyAdded)

		cart, err := s.ShoppingCartRecipes(ctx, reader)
		require.NoError(t, err)
		require.Len(t, cart, 2)
		assert.Equal(t, stew.ID, cart[0].ID)
		assert.Len(t, cart[1].Ingredients, 2)

		yes := true
		list, _, err := s.ListRecipes(ctx, recipes.RecipeFilter{InShoppingCart: &yes, ViewerID: reader})
		require.NoError(t, err)
		assert.Len(t, list, 2)

		state, err := s.RecipeState(ctx, reader, stew.ID)
		require.NoError(t, err)
		assert.True(t, state.InShoppingCart)
		assert.False(t, state.Favorited)

		require.NoError(t, s.RemoveRelation(ctx, recipes.RelationShoppingCart, reader, stew.ID))
		assert.ErrorIs(t, s.RemoveRelation(ctx, recipes.RelationShoppingCart, reader, stew.ID), recipes.ErrNotFound)

		require.NoError(t, s.AddRelation(ctx, recipes.RelationSubscription, reader, author))
		subs, err := s.Subscriptions(ctx, reader)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "chef", subs[0].Username)
	})

	t.Run("short links", func(t *testing.T) {
		createdAt := time.Now().UTC().Truncate(time.Microsecond)
		link := &shortlink.ShortLink{
			Slug:         "pgSlug01",
			RecipeID:     pancakes.ID,
			RedirectURL:  "https://recipes.example.com/recipes/1",
			ShortLinkURL: "https://recipes.example.com/pgSlug01",
			CreatedAt:    createdAt.Add(-48 * time.Hour),
		}

		require.NoError(t, s.Save(ctx, link))
		assert.ErrorIs(t, s.Save(ctx, link), shortlink.ErrSlugTaken)

		exists, err := s.Exists(ctx, link.Slug)
		require.NoError(t, err)
		assert.True(t, exists)

		got, err := s.GetBySlug(ctx, link.Slug)
		require.NoError(t, err)
		assert.Equal(t, link.RedirectURL, got.RedirectURL)
		assert.Nil(t, got.LastResolvedAt)

		orphan := *link
		orphan.Slug = "pgOrphan"
		orphan.RecipeID = 999999
		assert.ErrorIs(t, s.Save(ctx, &orphan), shortlink.ErrNotFound)

		pruned, err := s.Prune(ctx, createdAt.Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, []shortlink.Slug{link.Slug}, pruned)

		_, err = s.GetBySlug(ctx, link.Slug)
		assert.ErrorIs(t, err, shortlink.ErrNotFound)
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, &shortlink.ShortLink{
			Slug: "pgSlug02", RecipeID: pancakes.ID, CreatedAt: time.Now().UTC(),
		}))

		require.NoError(t, s.DeleteRecipe(ctx, pancakes.ID))

		_, err := s.GetBySlug(ctx, "pgSlug02")
		require.ErrorIs(t, err, shortlink.ErrNotFound)
		require.ErrorIs(t, s.MarkResolved(ctx, "pgSlug02", time.Now()), shortlink.ErrNotFound)

		exists, err := s.RecipeExists(ctx, pancakes.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		assert.ErrorIs(t, s.DeleteRecipe(ctx, pancakes.ID), recipes.ErrNotFound)
	})
}

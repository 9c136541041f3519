package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/serroba/recipebox/internal/recipes"
)

const recipeColumns = `r.id, r.author_id, r.name, r.text, r.image, r.cooking_time, r.published_at`

func scanRecipe(row pgx.Row, r *recipes.Recipe) error {
	return row.Scan(&r.ID, &r.AuthorID, &r.Name, &r.Text, &r.Image, &r.CookingTime, &r.PublishedAt)
}

func (p *PostgresStore) CreateRecipe(
	ctx context.Context, authorID int64, input *recipes.RecipeInput,
) (*recipes.Recipe, error) {
	var id int64

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO recipes (author_id, name, text, image, cooking_time)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, authorID, input.Name, input.Text, input.Image, input.CookingTime).Scan(&id)
		if err != nil {
			if pgErrorCode(err) == pgForeignKeyViolation {
				return recipes.ErrNotFound
			}

			return err
		}

		return writeRecipeRelations(ctx, tx, id, input)
	})
	if err != nil {
		return nil, err
	}

	return p.GetRecipe(ctx, id)
}

func (p *PostgresStore) UpdateRecipe(ctx context.Context, id int64, input *recipes.RecipeInput) (*recipes.Recipe, error) {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE recipes SET name = $2, text = $3, image = $4, cooking_time = $5
			WHERE id = $1
		`, id, input.Name, input.Text, input.Image, input.CookingTime)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return recipes.ErrNotFound
		}

		if _, err = tx.Exec(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, id); err != nil {
			return err
		}

		if _, err = tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, id); err != nil {
			return err
		}

		return writeRecipeRelations(ctx, tx, id, input)
	})
	if err != nil {
		return nil, err
	}

	return p.GetRecipe(ctx, id)
}

func writeRecipeRelations(ctx context.Context, tx pgx.Tx, recipeID int64, input *recipes.RecipeInput) error {
	batch := &pgx.Batch{}

	for _, tagID := range input.TagIDs {
		batch.Queue(`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ($1, $2)`, recipeID, tagID)
	}

	for pos, item := range input.Ingredients {
		batch.Queue(`
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount, position)
			VALUES ($1, $2, $3, $4)
		`, recipeID, item.IngredientID, item.Amount, pos)
	}

	err := tx.SendBatch(ctx, batch).Close()

	switch pgErrorCode(err) {
	case pgForeignKeyViolation:
		return recipes.NewValidationError("", "unknown tag or ingredient")
	case pgUniqueViolation:
		return recipes.NewValidationError("", "duplicate tag or ingredient")
	}

	return err
}

func (p *PostgresStore) DeleteRecipe(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return recipes.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) GetRecipe(ctx context.Context, id int64) (*recipes.Recipe, error) {
	var r recipes.Recipe

	err := scanRecipe(p.pool.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes r WHERE r.id = $1`, id), &r)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, recipes.ErrNotFound
		}

		return nil, err
	}

	list := []recipes.Recipe{r}
	if err := p.loadDetails(ctx, list); err != nil {
		return nil, err
	}

	return &list[0], nil
}

func (p *PostgresStore) RecipeExists(ctx context.Context, id int64) (bool, error) {
	var exists bool

	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM recipes WHERE id = $1)`, id).Scan(&exists)

	return exists, err
}

func (p *PostgresStore) ListRecipes(ctx context.Context, filter recipes.RecipeFilter) ([]recipes.Recipe, int, error) {
	where, args := recipeConditions(filter)

	var total int

	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM recipes r `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes r ` + where +
		` ORDER BY r.published_at DESC, r.id DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	list, err := p.queryRecipes(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func recipeConditions(filter recipes.RecipeFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)

		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AuthorID != nil {
		conds = append(conds, "r.author_id = "+arg(*filter.AuthorID))
	}

	if len(filter.TagSlugs) > 0 {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug = ANY(`+arg(filter.TagSlugs)+`))`)
	}

	relationFilter := func(table string, want *bool) {
		if want == nil {
			return
		}

		if filter.ViewerID == 0 {
			if *want {
				conds = append(conds, "FALSE")
			}

			return
		}

		cond := fmt.Sprintf("EXISTS (SELECT 1 FROM %s x WHERE x.recipe_id = r.id AND x.user_id = %s)",
			table, arg(filter.ViewerID))
		if !*want {
			cond = "NOT " + cond
		}

		conds = append(conds, cond)
	}

	relationFilter("favorites", filter.Favorited)
	relationFilter("shopping_carts", filter.InShoppingCart)

	if len(conds) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func (p *PostgresStore) queryRecipes(ctx context.Context, query string, args ...any) ([]recipes.Recipe, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (recipes.Recipe, error) {
		var r recipes.Recipe
		err := scanRecipe(row, &r)

		return r, err
	})
	if err != nil {
		return nil, err
	}

	if err := p.loadDetails(ctx, list); err != nil {
		return nil, err
	}

	return list, nil
}

// loadDetails fills Tags and Ingredients for every recipe in list.
func (p *PostgresStore) loadDetails(ctx context.Context, list []recipes.Recipe) error {
	if len(list) == 0 {
		return nil
	}

	ids := make([]int64, len(list))
	index := make(map[int64]int, len(list))

	for i := range list {
		ids[i] = list[i].ID
		index[list[i].ID] = i
		list[i].Tags = []recipes.Tag{}
		list[i].Ingredients = []recipes.RecipeIngredient{}
	}

	rows, err := p.pool.Query(ctx, `
		SELECT rt.recipe_id, t.id, t.name, t.slug
		FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = ANY($1)
		ORDER BY t.name, t.id
	`, ids)
	if err != nil {
		return err
	}

	var (
		recipeID int64
		tag      recipes.Tag
	)

	_, err = pgx.ForEachRow(rows, []any{&recipeID, &tag.ID, &tag.Name, &tag.Slug}, func() error {
		i := index[recipeID]
		list[i].Tags = append(list[i].Tags, tag)

		return nil
	})
	if err != nil {
		return err
	}

	rows, err = p.pool.Query(ctx, `
		SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ANY($1)
		ORDER BY ri.position
	`, ids)
	if err != nil {
		return err
	}

	var item recipes.RecipeIngredient

	_, err = pgx.ForEachRow(rows,
		[]any{&recipeID, &item.Ingredient.ID, &item.Ingredient.Name, &item.Ingredient.MeasurementUnit, &item.Amount},
		func() error {
			i := index[recipeID]
			list[i].Ingredients = append(list[i].Ingredients, item)

			return nil
		})

	return err
}

func (p *PostgresStore) RecipeState(ctx context.Context, viewerID, recipeID int64) (recipes.RecipeState, error) {
	var state recipes.RecipeState

	err := p.pool.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND recipe_id = $2),
			EXISTS (SELECT 1 FROM shopping_carts WHERE user_id = $1 AND recipe_id = $2)
	`, viewerID, recipeID).Scan(&state.Favorited, &state.InShoppingCart)

	return state, err
}

// Catalog

func (p *PostgresStore) ListTags(ctx context.Context) ([]recipes.Tag, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, slug FROM tags ORDER BY name, id`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByPos[recipes.Tag])
}

func (p *PostgresStore) GetTag(ctx context.Context, id int64) (*recipes.Tag, error) {
	var t recipes.Tag

	err := p.pool.QueryRow(ctx, `SELECT id, name, slug FROM tags WHERE id = $1`, id).Scan(&t.ID, &t.Name, &t.Slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, recipes.ErrNotFound
		}

		return nil, err
	}

	return &t, nil
}

func (p *PostgresStore) ListIngredients(ctx context.Context) ([]recipes.Ingredient, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, measurement_unit FROM ingredients ORDER BY name, id`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByPos[recipes.Ingredient])
}

func (p *PostgresStore) GetIngredient(ctx context.Context, id int64) (*recipes.Ingredient, error) {
	var ing recipes.Ingredient

	err := p.pool.QueryRow(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = $1`, id,
	).Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, recipes.ErrNotFound
		}

		return nil, err
	}

	return &ing, nil
}

func (p *PostgresStore) AddIngredient(ctx context.Context, ingredient *recipes.Ingredient) (bool, error) {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO ingredients (name, measurement_unit)
		VALUES ($1, $2)
		ON CONFLICT (name, measurement_unit) DO NOTHING
		RETURNING id
	`, ingredient.Name, ingredient.MeasurementUnit).Scan(&ingredient.ID)
	if err == nil {
		return true, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	err = p.pool.QueryRow(ctx,
		`SELECT id FROM ingredients WHERE name = $1 AND measurement_unit = $2`,
		ingredient.Name, ingredient.MeasurementUnit,
	).Scan(&ingredient.ID)

	return false, err
}

// Users and relations

func (p *PostgresStore) GetUser(ctx context.Context, id int64) (*recipes.User, error) {
	var u recipes.User

	err := p.pool.QueryRow(ctx,
		`SELECT id, email, username, first_name, last_name FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, recipes.ErrNotFound
		}

		return nil, err
	}

	return &u, nil
}

// relationTable maps a relation to its table and target column.
func relationTable(rel recipes.Relation) (table, column string, err error) {
	switch rel {
	case recipes.RelationFavorite:
		return "favorites", "recipe_id", nil
	case recipes.RelationShoppingCart:
		return "shopping_carts", "recipe_id", nil
	case recipes.RelationSubscription:
		return "subscriptions", "author_id", nil
	}

	return "", "", fmt.Errorf("unknown relation %q", rel)
}

func (p *PostgresStore) AddRelation(ctx context.Context, rel recipes.Relation, userID, targetID int64) error {
	table, column, err := relationTable(rel)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (user_id, %s) VALUES ($1, $2)`, table, column),
		userID, targetID,
	)

	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return recipes.ErrAlreadyAdded
	case pgForeignKeyViolation:
		return recipes.ErrNotFound
	}

	return err
}

func (p *PostgresStore) RemoveRelation(ctx context.Context, rel recipes.Relation, userID, targetID int64) error {
	table, column, err := relationTable(rel)
	if err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND %s = $2`, table, column),
		userID, targetID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return recipes.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) ShoppingCartRecipes(ctx context.Context, userID int64) ([]recipes.Recipe, error) {
	return p.queryRecipes(ctx, `
		SELECT `+recipeColumns+`
		FROM shopping_carts sc JOIN recipes r ON r.id = sc.recipe_id
		WHERE sc.user_id = $1
		ORDER BY sc.created_at, r.id
	`, userID)
}

func (p *PostgresStore) Subscriptions(ctx context.Context, userID int64) ([]recipes.User, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name
		FROM subscriptions s JOIN users u ON u.id = s.author_id
		WHERE s.user_id = $1
		ORDER BY u.id
	`, userID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByPos[recipes.User])
}

// Compile-time checks.
var (
	_ recipes.RecipeRepository   = (*PostgresStore)(nil)
	_ recipes.CatalogRepository  = (*PostgresStore)(nil)
	_ recipes.RelationRepository = (*PostgresStore)(nil)
	_ recipes.UserRepository     = (*PostgresStore)(nil)
)

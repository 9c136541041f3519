package recipes_test

import (
	"strings"
	"testing"

	"github.com/serroba/recipebox/internal/recipes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadIngredientsCSV(t *testing.T) {
	t.Run("reads rows by header name", func(t *testing.T) {
		input := "measurement_unit,name\ng,flour\npcs, egg \n"

		items, err := recipes.ReadIngredientsCSV(strings.NewReader(input))

		require.NoError(t, err)
		assert.Equal(t, []recipes.Ingredient{
			{Name: "flour", MeasurementUnit: "g"},
			{Name: "egg", MeasurementUnit: "pcs"},
		}, items)
	})

	t.Run("accepts a byte order mark", func(t *testing.T) {
		items, err := recipes.ReadIngredientsCSV(strings.NewReader("\ufeffname,measurement_unit\nsalt,g\n"))

		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("empty input has no ingredients", func(t *testing.T) {
		items, err := recipes.ReadIngredientsCSV(strings.NewReader(""))

		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("requires both columns", func(t *testing.T) {
		_, err := recipes.ReadIngredientsCSV(strings.NewReader("name\nflour\n"))

		assert.ErrorContains(t, err, "measurement_unit")
	})

	t.Run("rejects blank values", func(t *testing.T) {
		_, err := recipes.ReadIngredientsCSV(strings.NewReader("name,measurement_unit\nflour,\n"))

		require.Error(t, err)
		assert.True(t, recipes.IsValidation(err))
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("rejects short rows", func(t *testing.T) {
		_, err := recipes.ReadIngredientsCSV(strings.NewReader("name,measurement_unit\nflour\n"))

		assert.ErrorContains(t, err, "line 2")
	})
}

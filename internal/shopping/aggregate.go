package shopping

import (
	"iter"

	"github.com/serroba/recipebox/internal/recipes"
)

// Line is one entry of a shopping list: an ingredient and the summed amount
// across every recipe that uses it.
type Line struct {
	Label string
	Total int
}

type ingredientKey struct {
	name string
	unit string
}

// Label formats an ingredient for display.
func Label(name, unit string) string {
	return name + " (" + unit + ")"
}

// Aggregate merges the ingredient amounts of list by name and measurement
// unit. Lines come out in the order their ingredient is first encountered.
// Nothing is computed until the sequence is ranged over, and every range
// recomputes from list.
func Aggregate(list []recipes.Recipe) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		var order []ingredientKey

		totals := make(map[ingredientKey]int)

		for _, r := range list {
			for _, item := range r.Ingredients {
				k := ingredientKey{name: item.Ingredient.Name, unit: item.Ingredient.MeasurementUnit}
				if _, seen := totals[k]; !seen {
					order = append(order, k)
				}

				totals[k] += item.Amount
			}
		}

		for _, k := range order {
			if !yield(Line{Label: Label(k.name, k.unit), Total: totals[k]}) {
				return
			}
		}
	}
}

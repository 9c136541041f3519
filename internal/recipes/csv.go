package recipes

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// ReadIngredientsCSV reads ingredients from CSV with a header row naming the
// name and measurement_unit columns, in any order. Other columns are ignored.
func ReadIngredientsCSV(r io.Reader) ([]Ingredient, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	nameCol := slices.Index(header, "name")
	unitCol := slices.Index(header, "measurement_unit")

	if nameCol < 0 || unitCol < 0 {
		return nil, fmt.Errorf("header %v: name and measurement_unit columns are required", header)
	}

	var items []Ingredient

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return items, nil
		}

		if err != nil {
			return nil, err
		}

		line, _ := reader.FieldPos(0)

		if len(record) <= max(nameCol, unitCol) {
			return nil, fmt.Errorf("line %d: expected at least %d fields", line, max(nameCol, unitCol)+1)
		}

		item := Ingredient{
			Name:            strings.TrimSpace(record[nameCol]),
			MeasurementUnit: strings.TrimSpace(record[unitCol]),
		}

		if item.Name == "" || item.MeasurementUnit == "" {
			return nil, fmt.Errorf("line %d: %w", line, NewValidationError("", "name and measurement_unit may not be blank"))
		}

		items = append(items, item)
	}
}

package core

import "slices"

// ValidateHeaders checks that every required column is present by exact
// name. It returns a *SchemaError listing the missing columns otherwise.
func ValidateHeaders(headers []string) error {
	var missing []string
	for _, col := range RequiredColumns {
		if !slices.Contains(headers, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing, Found: slices.Clone(headers)}
	}
	return nil
}

package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SusheelSathyaraj/ClicomImport/database"
)

// ValidationResult describes one sanity check over a source table. Findings
// are warnings, they never stop an import.
type ValidationResult struct {
	Entity        string
	IsValid       bool
	RowCount      int
	DuplicateKeys []interface{}
	Orphans       int
	ErrorMessage  string
}

// checks that key is unique across rows
func CheckUniqueKeys(entity, key string, rows []database.Row) ValidationResult {
	result := ValidationResult{
		Entity:   entity,
		RowCount: len(rows),
	}

	seen := make(map[interface{}]int, len(rows))
	for _, row := range rows {
		k := database.NormalizeKey(row[key])
		seen[k]++
		if seen[k] == 2 {
			result.DuplicateKeys = append(result.DuplicateKeys, k)
		}
	}

	result.IsValid = len(result.DuplicateKeys) == 0
	if !result.IsValid {
		result.ErrorMessage = fmt.Sprintf("%d duplicate %s values: %s", len(result.DuplicateKeys), key, formatKeys(result.DuplicateKeys))
	}
	return result
}

// CheckDetailCoverage counts detail rows whose NCOM matches no commande; those
// rows end up in no document.
func CheckDetailCoverage(commandes, details []database.Row) ValidationResult {
	result := ValidationResult{
		Entity:   "DETAIL",
		RowCount: len(details),
	}

	orders := make(map[interface{}]struct{}, len(commandes))
	for _, commande := range commandes {
		orders[database.NormalizeKey(commande["NCOM"])] = struct{}{}
	}

	missing := make(map[interface{}]struct{})
	for _, detail := range details {
		k := database.NormalizeKey(detail["NCOM"])
		if _, ok := orders[k]; !ok {
			result.Orphans++
			missing[k] = struct{}{}
		}
	}

	result.IsValid = result.Orphans == 0
	if !result.IsValid {
		keys := make([]interface{}, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		result.ErrorMessage = fmt.Sprintf("%d detail rows reference unknown NCOM: %s", result.Orphans, formatKeys(keys))
	}
	return result
}

// lists at most ten keys in a stable order
func formatKeys(keys []interface{}) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprint(k))
	}
	sort.Strings(parts)
	if len(parts) > 10 {
		parts = append(parts[:10], "...")
	}
	return strings.Join(parts, ", ")
}

// struct for validation result summary
type ValidationSummary struct {
	TotalChecks   int
	ValidChecks   int
	InvalidChecks int
	Errors        []string
}

// creating a summary of the validation result
func GenerateValidationSummary(results []ValidationResult) ValidationSummary {
	summary := ValidationSummary{
		TotalChecks: len(results),
		Errors:      make([]string, 0),
	}

	for _, result := range results {
		if result.IsValid {
			summary.ValidChecks++
		} else {
			summary.InvalidChecks++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", result.Entity, result.ErrorMessage))
		}
	}
	return summary
}

package persistence

import "strings"

// ValidateSortOrder normalizes a requested sort direction to ASC or DESC,
// defaulting to DESC when the input is empty or unrecognized.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks a requested sort column against a whitelist.
// Anything outside the whitelist, including injection attempts, falls back
// to defaultField. Sort columns are interpolated into ORDER BY clauses, so
// they must never come from the request verbatim.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// StudentAccountSortFields whitelists the sortable columns of the student
// account listing. Payment and program listings use fixed ordering instead.
var StudentAccountSortFields = map[string]bool{
	"id":                    true,
	"created_at":            true,
	"updated_at":            true,
	"student_code":          true,
	"full_name":             true,
	"status":                true,
	"current_module":        true,
	"first_commitment_date": true,
}

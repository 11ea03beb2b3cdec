package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty defaults to DESC", "", "DESC"},
		{"ASC passes", "ASC", "ASC"},
		{"lowercase asc normalized", "asc", "ASC"},
		{"DESC passes", "DESC", "DESC"},
		{"surrounding whitespace trimmed", "  asc  ", "ASC"},
		{"whitespace only defaults", "   ", "DESC"},
		{"garbage defaults", "sideways", "DESC"},
		{"injection attempt defaults", "ASC; DROP TABLE payments;--", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	allowed := map[string]bool{
		"id":           true,
		"created_at":   true,
		"student_code": true,
	}

	tests := []struct {
		name         string
		input        string
		defaultField string
		want         string
	}{
		{"empty falls back", "", "created_at", "created_at"},
		{"whitelisted column passes", "student_code", "created_at", "student_code"},
		{"surrounding whitespace trimmed", "  student_code  ", "created_at", "student_code"},
		{"unknown column falls back", "balance", "created_at", "created_at"},
		{"case sensitive", "STUDENT_CODE", "created_at", "created_at"},
		{"embedded SQL falls back", "student_code; DROP TABLE payments;--", "created_at", "created_at"},
		{"quoted injection falls back", "student_code'--", "created_at", "created_at"},
		{"two tokens fall back", "student_code payments", "created_at", "created_at"},
		{"empty default stays empty on miss", "balance", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.input, allowed, tt.defaultField))
		})
	}
}

func TestStudentAccountSortFields(t *testing.T) {
	for _, field := range []string{"id", "created_at", "updated_at", "student_code", "first_commitment_date"} {
		assert.True(t, StudentAccountSortFields[field], "expected %s to be sortable", field)
	}
	assert.False(t, StudentAccountSortFields["balance"])
}

// Every payload must collapse to the safe defaults before it reaches an
// ORDER BY clause.
func TestSortValidationRejectsInjectionPayloads(t *testing.T) {
	payloads := []string{
		"id; DROP TABLE student_accounts;--",
		"id' OR '1'='1",
		"id\"; DROP TABLE payments;--",
		"id UNION SELECT receipt_number FROM payments",
		"id ORDER BY 1",
		"id, (SELECT amount FROM payments)",
		"CASE WHEN 1=1 THEN id ELSE student_code END",
		"id/**/;DROP TABLE payment_commitments",
		"id\n; DROP TABLE programs",
		"id\t; DROP TABLE programs",
		"' OR ''='",
		"1; EXEC xp_cmdshell('dir')",
	}

	for _, payload := range payloads {
		assert.Equal(t, "created_at",
			ValidateSortField(payload, StudentAccountSortFields, "created_at"),
			"payload slipped through as sort field: %s", payload)
		assert.Equal(t, "DESC", ValidateSortOrder(payload),
			"payload slipped through as sort order: %s", payload)
	}
}

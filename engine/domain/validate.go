package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Law numbers are dotted hierarchical identifiers: "3", "3.1", "3.1.1".
var lawNumberRegex = regexp.MustCompile(`^\d+(\.\d+)*$`)

const maxQueryRunes = 2000

// ValidateLawDocument checks a structured record against the corpus schema.
// A record that fails here is never accepted as a LawDocument.
func ValidateLawDocument(d LawDocument) error {
	if !lawNumberRegex.MatchString(d.LawNumber) {
		return NewValidationError("law_number", d.LawNumber, ErrBadLawNumber)
	}
	if strings.TrimSpace(d.Category) == "" {
		return NewValidationError("category", d.Category, ErrEmptyCategory)
	}
	if strings.TrimSpace(d.Title) == "" {
		return NewValidationError("title", d.Title, ErrEmptyTitle)
	}
	if strings.TrimSpace(d.Text) == "" {
		return NewValidationError("text", d.Text, ErrEmptyText)
	}
	return nil
}

// ValidateQuery rejects empty or oversized queries.
func ValidateQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return NewValidationError("query", query, ErrInvalidQuery)
	}
	if utf8.RuneCountInString(trimmed) > maxQueryRunes {
		return NewValidationError("query", trimmed[:32]+"...", ErrInvalidQuery)
	}
	return nil
}

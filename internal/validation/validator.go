// Package validation provides validation rules for catalog identifiers and request payloads.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxNameLength is the maximum length for state, intention, template and flag names
	MaxNameLength = 64
	// MaxDescriptionLength is the maximum length for state and intention descriptions
	MaxDescriptionLength = 500
	// MaxSecondaryIntentions is the maximum number of secondary intentions per request
	MaxSecondaryIntentions = 16
	// MaxFactsSize is the maximum size of a request body carrying case facts
	MaxFactsSize = 256 * 1024 // 256KB
)

// namePattern matches alphanumeric characters, underscores, hyphens and dots
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// ValidationResult holds the result of validation
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// NewValidationResult creates a new validation result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:  true,
		Errors: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid
func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors[field] = message
}

// Merge combines another validation result into this one
func (v *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for field, message := range other.Errors {
		v.AddError(field, message)
	}
}

// First returns one error message, picking the lexically smallest field so the
// output is stable.
func (v *ValidationResult) First() (field, message string) {
	for f, m := range v.Errors {
		if field == "" || f < field {
			field, message = f, m
		}
	}
	return field, message
}

// ValidateName validates a catalog identifier reported under field
func ValidateName(field, name string) *ValidationResult {
	result := NewValidationResult()

	if strings.TrimSpace(name) == "" {
		result.AddError(field, "Name is required")
		return result
	}

	if name != strings.TrimSpace(name) {
		result.AddError(field, "Name must not have leading or trailing whitespace")
		return result
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		result.AddError(field, "Name must not exceed 64 characters")
		return result
	}

	if !namePattern.MatchString(name) {
		result.AddError(field, "Name must contain only alphanumeric characters, underscores, hyphens, and dots")
		return result
	}

	return result
}

// ValidateDescription validates a state or intention description
func ValidateDescription(field, description string) *ValidationResult {
	result := NewValidationResult()

	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		result.AddError(field, "Description must not exceed 500 characters")
	}

	return result
}

// IntentionParams contains the parameters for validating a request intention
type IntentionParams struct {
	Primary   string
	Secondary []string
}

// ValidateIntention validates the intention part of a respond or resolve request
func ValidateIntention(params IntentionParams) *ValidationResult {
	result := NewValidationResult()

	primary := ValidateName("intention.primary", strings.TrimSpace(params.Primary))
	result.Merge(primary)

	if len(params.Secondary) > MaxSecondaryIntentions {
		result.AddError("intention.secondary", "At most 16 secondary intentions are allowed")
		return result
	}

	for _, s := range params.Secondary {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if r := ValidateName("intention.secondary", s); !r.Valid {
			result.Merge(r)
			break
		}
	}

	return result
}

// ValidateFactsSize validates the raw size of a facts payload
func ValidateFactsSize(size int) *ValidationResult {
	result := NewValidationResult()

	if size > MaxFactsSize {
		result.AddError("facts", "Facts must not exceed 256KB")
	}

	return result
}

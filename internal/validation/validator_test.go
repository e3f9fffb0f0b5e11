package validation

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		wantValid   bool
		wantMessage string
	}{
		{
			name:      "upper snake",
			value:     "EXAM_DATE_PASSED",
			wantValid: true,
		},
		{
			name:      "dotted template id",
			value:     "confirm.session-choice",
			wantValid: true,
		},
		{
			name:        "empty",
			value:       "",
			wantMessage: "Name is required",
		},
		{
			name:        "whitespace only",
			value:       "   ",
			wantMessage: "Name is required",
		},
		{
			name:        "padded",
			value:       " STATE ",
			wantMessage: "Name must not have leading or trailing whitespace",
		},
		{
			name:        "too long",
			value:       strings.Repeat("a", 65),
			wantMessage: "Name must not exceed 64 characters",
		},
		{
			name:      "exactly 64 chars",
			value:     strings.Repeat("a", 64),
			wantValid: true,
		},
		{
			name:        "contains space",
			value:       "exam date",
			wantMessage: "Name must contain only alphanumeric characters, underscores, hyphens, and dots",
		},
		{
			name:        "wildcard is not a name",
			value:       "*",
			wantMessage: "Name must contain only alphanumeric characters, underscores, hyphens, and dots",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateName("state", tt.value)
			if result.Valid != tt.wantValid {
				t.Errorf("ValidateName() valid = %v, want %v", result.Valid, tt.wantValid)
			}
			if !tt.wantValid && result.Errors["state"] != tt.wantMessage {
				t.Errorf("ValidateName() message = %q, want %q", result.Errors["state"], tt.wantMessage)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	if r := ValidateDescription("description", strings.Repeat("x", 500)); !r.Valid {
		t.Errorf("500 chars should be valid, got %v", r.Errors)
	}
	if r := ValidateDescription("description", strings.Repeat("x", 501)); r.Valid {
		t.Error("501 chars should be invalid")
	}
}

func TestValidateIntention(t *testing.T) {
	tests := []struct {
		name      string
		params    IntentionParams
		wantValid bool
		wantField string
	}{
		{
			name:      "primary only",
			params:    IntentionParams{Primary: "REPORT_DATE"},
			wantValid: true,
		},
		{
			name:      "primary with secondaries and blanks",
			params:    IntentionParams{Primary: "REPORT_DATE", Secondary: []string{"", "ASK_CREDENTIALS"}},
			wantValid: true,
		},
		{
			name:      "missing primary",
			params:    IntentionParams{Secondary: []string{"ASK_CREDENTIALS"}},
			wantField: "intention.primary",
		},
		{
			name:      "bad secondary",
			params:    IntentionParams{Primary: "REPORT_DATE", Secondary: []string{"not valid"}},
			wantField: "intention.secondary",
		},
		{
			name:      "too many secondaries",
			params:    IntentionParams{Primary: "A", Secondary: make([]string, MaxSecondaryIntentions+1)},
			wantField: "intention.secondary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateIntention(tt.params)
			if result.Valid != tt.wantValid {
				t.Fatalf("ValidateIntention() valid = %v, want %v, errors = %v", result.Valid, tt.wantValid, result.Errors)
			}
			if tt.wantField != "" {
				if _, ok := result.Errors[tt.wantField]; !ok {
					t.Errorf("expected error on %q, got %v", tt.wantField, result.Errors)
				}
			}
		})
	}
}

func TestValidateFactsSize(t *testing.T) {
	if r := ValidateFactsSize(MaxFactsSize); !r.Valid {
		t.Error("limit itself should be valid")
	}
	if r := ValidateFactsSize(MaxFactsSize + 1); r.Valid {
		t.Error("over the limit should be invalid")
	}
}

func TestValidationResultFirst(t *testing.T) {
	r := NewValidationResult()
	r.AddError("b", "second")
	r.AddError("a", "first")
	field, msg := r.First()
	if field != "a" || msg != "first" {
		t.Errorf("First() = %q, %q", field, msg)
	}
}

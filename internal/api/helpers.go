package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fouedh91760/a-level-saver-sub001/internal/engine"
	"github.com/fouedh91760/a-level-saver-sub001/internal/intent"
	"github.com/fouedh91760/a-level-saver-sub001/internal/validation"
)

// maxRequestBodySize leaves room for the intention next to the largest facts payload.
const maxRequestBodySize = validation.MaxFactsSize + 64*1024

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes a size-limited request body into v and writes the error
// response itself. It reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RequestTooLargeError(w, r, "Request body too large")
			return false
		}
		BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON in request body")
		return false
	}
	return true
}

// decodeFacts validates and decodes the raw facts object. Absent facts are an empty
// context.
func decodeFacts(w http.ResponseWriter, r *http.Request, raw json.RawMessage) (engine.Context, bool) {
	if res := validation.ValidateFactsSize(len(raw)); !res.Valid {
		ValidationError(w, r, "Validation failed", res.Errors)
		return nil, false
	}
	facts := engine.Context{}
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "null" {
		return facts, true
	}
	if err := json.Unmarshal(raw, &facts); err != nil {
		BadRequestErrorWithFields(w, r, ErrCodeInvalidFacts, "Facts must be a JSON object", map[string]string{
			"facts": "Facts must be a JSON object",
		})
		return nil, false
	}
	return facts, true
}

// parseIntention validates the request intention and normalizes it.
func parseIntention(w http.ResponseWriter, r *http.Request, dto *IntentionDTO) (intent.Intention, bool) {
	if dto == nil {
		BadRequestErrorWithFields(w, r, ErrCodeMissingField, "Intention is required", map[string]string{
			"intention": "Intention is required",
		})
		return intent.Intention{}, false
	}
	res := validation.ValidateIntention(validation.IntentionParams{
		Primary:   dto.Primary,
		Secondary: dto.Secondary,
	})
	if !res.Valid {
		BadRequestErrorWithFields(w, r, ErrCodeInvalidIntention, "Invalid intention", res.Errors)
		return intent.Intention{}, false
	}
	return intent.New(dto.Primary, dto.Secondary, dto.Attributes), true
}

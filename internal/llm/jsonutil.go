package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// jsonObjectPattern matches the first-to-last brace span anywhere in a reply.
	jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

var (
	ErrNoJSONObject  = errors.New("no JSON object found in completion")
	ErrMalformedJSON = errors.New("malformed JSON object in completion")
)

// CleanJSONReply strips code fences and anything outside the outermost braces.
func CleanJSONReply(content string) string {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	if start := strings.Index(cleaned, "{"); start >= 0 {
		cleaned = cleaned[start:]
	}
	if end := strings.LastIndex(cleaned, "}"); end >= 0 {
		cleaned = cleaned[:end+1]
	}

	return strings.TrimSpace(cleaned)
}

// DecodeJSONObject parses a model reply into v. It tries the cleaned reply first and then the
// first brace-delimited substring of the raw reply, with trailing commas removed.
func DecodeJSONObject(content string, v interface{}) error {
	firstErr := json.Unmarshal([]byte(CleanJSONReply(content)), v)
	if firstErr == nil {
		return nil
	}

	match := jsonObjectPattern.FindString(content)
	if match == "" {
		return fmt.Errorf("%w: %v", ErrNoJSONObject, firstErr)
	}

	match = trailingCommaPattern.ReplaceAllString(match, "$1")
	if err := json.Unmarshal([]byte(match), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return nil
}

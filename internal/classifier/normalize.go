package classifier

import (
	"encoding/json"
	"strings"
)

// DefaultSummaryTitle is used when the workflow response carries no
// summary_title of its own.
const DefaultSummaryTitle = "분석 결과"

// NormalizePayload collapses the three response shapes the workflow engine
// is known to produce into one JSON document:
//
//   - the real payload nested under an "output" field,
//   - the payload at the top level,
//   - a JSON-encoded string that must be parsed again.
//
// Anything that cannot be parsed is wrapped as a synthetic summary so a raw
// text reply still produces a usable analysis result.
func NormalizePayload(raw []byte) json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return syntheticSummary("")
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return syntheticSummary(trimmed)
	}

	switch value := decoded.(type) {
	case string:
		return normalizeString(value)
	case map[string]any:
		output, ok := value["output"]
		if !ok {
			return json.RawMessage(trimmed)
		}
		if nested, isString := output.(string); isString {
			return normalizeString(nested)
		}
		encoded, err := json.Marshal(output)
		if err != nil {
			return json.RawMessage(trimmed)
		}
		return encoded
	default:
		// Arrays and scalars pass through unchanged.
		return json.RawMessage(trimmed)
	}
}

func normalizeString(value string) json.RawMessage {
	trimmed := strings.TrimSpace(value)

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
		switch decoded.(type) {
		case map[string]any, []any:
			return json.RawMessage(trimmed)
		}
	}
	return syntheticSummary(trimmed)
}

func syntheticSummary(text string) json.RawMessage {
	encoded, _ := json.Marshal(map[string]string{
		"summary_title": DefaultSummaryTitle,
		"summary":       text,
	})
	return encoded
}

// ExtractTitle pulls summary_title from a normalized payload, falling back
// to the default title.
func ExtractTitle(payload json.RawMessage) string {
	var document struct {
		SummaryTitle string `json:"summary_title"`
	}
	if err := json.Unmarshal(payload, &document); err == nil {
		if title := strings.TrimSpace(document.SummaryTitle); title != "" {
			return title
		}
	}
	return DefaultSummaryTitle
}

// ExtractEntries returns the per-comment entries of a normalized classify or
// filter payload. The workflow returns either a bare array or an object with
// a "comments" array.
func ExtractEntries(payload json.RawMessage) []json.RawMessage {
	var entries []json.RawMessage
	if err := json.Unmarshal(payload, &entries); err == nil {
		return entries
	}

	var document struct {
		Comments []json.RawMessage `json:"comments"`
	}
	if err := json.Unmarshal(payload, &document); err == nil {
		return document.Comments
	}
	return nil
}

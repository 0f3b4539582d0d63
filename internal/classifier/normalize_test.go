package classifier

import (
	"encoding/json"
	"testing"
)

func TestNormalizePayloadShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{
			name: "payload nested under output",
			raw:  `{"output":{"summary_title":"제목","summary":"본문"}}`,
			want: map[string]any{"summary_title": "제목", "summary": "본문"},
		},
		{
			name: "payload at top level",
			raw:  `{"summary_title":"제목","summary":"본문"}`,
			want: map[string]any{"summary_title": "제목", "summary": "본문"},
		},
		{
			name: "json encoded as string",
			raw:  `"{\"summary_title\":\"제목\",\"summary\":\"본문\"}"`,
			want: map[string]any{"summary_title": "제목", "summary": "본문"},
		},
		{
			name: "output holding an encoded string",
			raw:  `{"output":"{\"summary_title\":\"제목\",\"summary\":\"본문\"}"}`,
			want: map[string]any{"summary_title": "제목", "summary": "본문"},
		},
		{
			name: "plain text becomes synthetic summary",
			raw:  `this is not json at all`,
			want: map[string]any{"summary_title": DefaultSummaryTitle, "summary": "this is not json at all"},
		},
		{
			name: "bare string becomes synthetic summary",
			raw:  `"그냥 텍스트"`,
			want: map[string]any{"summary_title": DefaultSummaryTitle, "summary": "그냥 텍스트"},
		},
		{
			name: "empty body becomes empty synthetic summary",
			raw:  ``,
			want: map[string]any{"summary_title": DefaultSummaryTitle, "summary": ""},
		},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			normalized := NormalizePayload([]byte(testCase.raw))

			var decoded map[string]any
			if err := json.Unmarshal(normalized, &decoded); err != nil {
				t.Fatalf("normalized payload is not an object: %v (%s)", err, normalized)
			}
			for key, want := range testCase.want {
				if decoded[key] != want {
					t.Fatalf("key %q: expected %v, got %v", key, want, decoded[key])
				}
			}
		})
	}
}

func TestNormalizePayloadPassesArraysThrough(t *testing.T) {
	raw := `[{"id":"c1","comment_type":1}]`
	normalized := NormalizePayload([]byte(raw))
	if string(normalized) != raw {
		t.Fatalf("expected array to pass through, got %s", normalized)
	}
}

func TestExtractTitle(t *testing.T) {
	if got := ExtractTitle(json.RawMessage(`{"summary_title":"custom"}`)); got != "custom" {
		t.Fatalf("expected custom title, got %q", got)
	}
	if got := ExtractTitle(json.RawMessage(`{"summary":"no title"}`)); got != DefaultSummaryTitle {
		t.Fatalf("expected default title, got %q", got)
	}
	if got := ExtractTitle(json.RawMessage(`not json`)); got != DefaultSummaryTitle {
		t.Fatalf("expected default title for garbage, got %q", got)
	}
}

func TestExtractEntries(t *testing.T) {
	bare := ExtractEntries(json.RawMessage(`[{"id":"c1"},{"id":"c2"}]`))
	if len(bare) != 2 {
		t.Fatalf("expected two entries from bare array, got %d", len(bare))
	}

	wrapped := ExtractEntries(json.RawMessage(`{"comments":[{"id":"c1"}]}`))
	if len(wrapped) != 1 {
		t.Fatalf("expected one entry from wrapped object, got %d", len(wrapped))
	}

	if entries := ExtractEntries(json.RawMessage(`{"summary":"no comments"}`)); entries != nil {
		t.Fatalf("expected nil entries, got %v", entries)
	}
}

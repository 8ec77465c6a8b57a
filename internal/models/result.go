package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AnalysisResult is the response of one analysis pass
type AnalysisResult struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// MarshalJSON encodes every suggestion with its "type" tag first
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	items := make([]json.RawMessage, 0, len(r.Suggestions))
	for _, s := range r.Suggestions {
		raw, err := MarshalSuggestion(s)
		if err != nil {
			return nil, err
		}
		items = append(items, raw)
	}
	return json.Marshal(struct {
		Suggestions []json.RawMessage `json:"suggestions"`
	}{items})
}

// MarshalSuggestion encodes a single suggestion as a tagged JSON object
func MarshalSuggestion(s Suggestion) ([]byte, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s suggestion: %w", s.Type(), err)
	}
	tag, _ := json.Marshal(string(s.Type()))

	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Count returns the number of suggestions of the given type
func (r AnalysisResult) Count(t SuggestionType) int {
	n := 0
	for _, s := range r.Suggestions {
		if s.Type() == t {
			n++
		}
	}
	return n
}

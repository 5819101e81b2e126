// Package extract recovers a JSON payload from free-form model output.
//
// Models asked for JSON often wrap it in markdown fences or surround it with
// prose. Extract strips the fences, then takes the span from the first opening
// bracket to the last matching closer of the same kind. When that greedy span
// does not parse, the first complete value that decodes on its own is used
// instead, objects before arrays. Nothing is repaired.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoJSON is returned when the text contains no object or array.
	ErrNoJSON = errors.New("no JSON object or array found")
	// ErrMalformed is returned when the candidate span does not parse.
	ErrMalformed = errors.New("malformed JSON payload")
)

var fenceRe = regexp.MustCompile("```[a-zA-Z]*")

// StripFences removes markdown code fence markers and trims surrounding space.
func StripFences(raw string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))
}

// Span returns the greedy candidate substring: from the first '{' or '[',
// whichever comes first, to the last '}' or ']' respectively.
func Span(raw string) (string, bool) {
	text := StripFences(raw)
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}
	closer := byte('}')
	if text[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// firstValue returns the first value in text that decodes on its own,
// preferring objects so that bracketed prose such as "[1]" is skipped.
func firstValue(text string) (string, bool) {
	var array string
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err != nil {
			continue
		}
		if text[i] == '{' {
			return string(raw), true
		}
		if array == "" {
			array = string(raw)
		}
	}
	return array, array != ""
}

// candidate picks the payload: the greedy span when it is valid JSON,
// otherwise the first standalone value.
func candidate(raw string) (string, error) {
	span, ok := Span(raw)
	if !ok {
		return "", ErrNoJSON
	}
	if json.Valid([]byte(span)) {
		return span, nil
	}
	if v, ok := firstValue(StripFences(raw)); ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: no complete value in %d bytes", ErrMalformed, len(span))
}

// Extract returns the JSON value embedded in raw. The boolean is false
// when no candidate exists or none of the candidates is valid JSON.
func Extract(raw string) (json.RawMessage, bool) {
	v, err := candidate(raw)
	if err != nil {
		return nil, false
	}
	return json.RawMessage(v), true
}

// Into extracts the embedded JSON value from raw and decodes it into dst.
func Into(raw string, dst any) error {
	v, err := candidate(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

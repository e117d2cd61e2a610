// Package casing rewrites JSON object keys between the console's camelCase
// and the backend's snake_case.
//
// Arrays are mapped element-wise, objects are rewritten recursively and every
// other value is returned unchanged. Nothing in this package panics on
// unexpected input; it stops descending instead.
package casing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// ToSnake returns v with every object key rewritten to snake_case.
func ToSnake(v any) any {
	return rewrite(v, SnakeKey)
}

// ToCamel returns v with every object key rewritten to camelCase.
func ToCamel(v any) any {
	return rewrite(v, CamelKey)
}

func rewrite(v any, key func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(t))
		for _, k := range keys {
			out[key(k)] = rewrite(t[k], key)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = rewrite(e, key)
		}
		return out
	default:
		return v
	}
}

// SnakeJSON rewrites the keys of a JSON document to snake_case.
func SnakeJSON(data []byte) ([]byte, error) {
	return rewriteJSON(data, SnakeKey)
}

// CamelJSON rewrites the keys of a JSON document to camelCase.
func CamelJSON(data []byte) ([]byte, error) {
	return rewriteJSON(data, CamelKey)
}

func rewriteJSON(data []byte, key func(string) string) ([]byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return data, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("casing: decode: %w", err)
	}
	out, err := json.Marshal(rewrite(v, key))
	if err != nil {
		return nil, fmt.Errorf("casing: encode: %w", err)
	}
	return out, nil
}

// SnakeKey converts a single key to snake_case.
func SnakeKey(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}

// CamelKey converts a single key to camelCase.
func CamelKey(s string) string {
	words := Words(s)
	var b strings.Builder
	for i, w := range words {
		lower := []rune(strings.ToLower(w))
		if i > 0 {
			lower[0] = unicode.ToUpper(lower[0])
		}
		b.WriteString(string(lower))
	}
	return b.String()
}

type class int

const (
	classOther class = iota
	classLower
	classUpper
	classDigit
)

func classify(r rune) class {
	switch {
	case unicode.IsUpper(r):
		return classUpper
	case unicode.IsLetter(r):
		return classLower
	case unicode.IsDigit(r):
		return classDigit
	default:
		return classOther
	}
}

// Words splits s into its words: separators are dropped and new words start
// at lower→upper, acronym→word ("HTTPServer") and letter↔digit boundaries.
func Words(s string) []string {
	runes := []rune(s)
	var words []string
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}
	for i, r := range runes {
		c := classify(r)
		if c == classOther {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := classify(runes[i-1])
		split := false
		switch {
		case prev == classDigit && c != classDigit, prev != classDigit && c == classDigit:
			split = true
		case prev == classLower && c == classUpper:
			split = true
		case prev == classUpper && c == classUpper:
			split = i+1 < len(runes) && classify(runes[i+1]) == classLower
		}
		if split {
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return words
}

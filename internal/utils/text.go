package utils

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Truncate trims s and cuts it to at most max runes. When cut, the result
// ends with suffix and the total stays within max runes.
func Truncate(s string, max int, suffix string) string {
	s = strings.TrimSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	keep := max - utf8.RuneCountInString(suffix)
	if keep < 0 {
		keep = 0
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:keep])) + suffix
}

var tagRE = regexp.MustCompile(`<[^>]*>`)

// CollapseSpace replaces every Unicode whitespace run with a single space and
// trims.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripHTML removes tags, unescapes entities and collapses whitespace.
func StripHTML(s string) string {
	return CollapseSpace(html.UnescapeString(tagRE.ReplaceAllString(s, " ")))
}

// DecodeModelJSON decodes a model's text output into v. Output that wraps
// the JSON in prose or code fences is accepted by extracting the outermost
// object.
func DecodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}

	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}

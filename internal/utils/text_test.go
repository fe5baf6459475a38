package utils

import (
	"errors"
	"io"
	"testing"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in     string
		max    int
		suffix string
		want   string
	}{
		{"  short  ", 10, "...", "short"},
		{"abcdefghij", 10, "...", "abcdefghij"},
		{"abcdefghijk", 10, "...", "abcdefg..."},
		{"héllo wörld", 5, "", "héllo"},
		{"abc", 0, "...", "abc"},
		{"abcdef", 2, "...", "..."},
	}
	for _, tc := range cases {
		if got := Truncate(tc.in, tc.max, tc.suffix); got != tc.want {
			t.Errorf("Truncate(%q,%d,%q) = %q, want %q", tc.in, tc.max, tc.suffix, got, tc.want)
		}
	}
}

func TestStripHTML(t *testing.T) {
	in := "<p>Hello&nbsp;<b>world</b></p>\n\n<br/>  &amp; more"
	if got := StripHTML(in); got != "Hello world & more" {
		t.Fatalf("StripHTML = %q", got)
	}
	if got := CollapseSpace(" a \t\n b "); got != "a b" {
		t.Fatalf("CollapseSpace = %q", got)
	}
}

func TestDecodeModelJSON(t *testing.T) {
	var m map[string]any
	if err := DecodeModelJSON(`{"a":1}`, &m); err != nil || m["a"] != float64(1) {
		t.Fatalf("plain decode: %v %v", m, err)
	}

	m = nil
	if err := DecodeModelJSON("```json\n{\"b\":\"x\"}\n```", &m); err != nil || m["b"] != "x" {
		t.Fatalf("fenced decode: %v %v", m, err)
	}

	if err := DecodeModelJSON("   ", &m); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("empty: %v", err)
	}
	if err := DecodeModelJSON("no json here", &m); err == nil {
		t.Fatalf("expected error for missing object")
	}
	if err := DecodeModelJSON("x {not json} y", &m); err == nil {
		t.Fatalf("expected error for invalid object")
	}
}

// Package utils provides small helpers shared by the HTTP layer, the
// services and the collectors. Nothing here knows about signals.
package utils

import (
	"strconv"
	"strings"
)

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 20

// AtoiDefault parses s as a base-10 int, ignoring surrounding whitespace.
// Empty or malformed input yields def.
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// PageBounds converts a 1-based page into an offset/limit pair. page < 1 is
// treated as the first page.
func PageBounds(page, pageSize int) (offset, limit int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return (max(page, 1) - 1) * pageSize, pageSize
}

// TotalPages is the number of pages needed for total rows.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

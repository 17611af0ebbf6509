package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bryanwahyu/giterra/internal/domain/profile"
	"github.com/bryanwahyu/giterra/internal/domain/signals"
)

// ValidateUsername checks a path username against GitHub login rules.
func ValidateUsername(username string) error {
	if err := signals.ValidateOwner(username); err != nil {
		return fmt.Errorf("invalid username: %w", err)
	}
	return nil
}

// PageParams parses page and page_size query values. Missing or malformed
// values fall back to the defaults.
func PageParams(page, size string) (int, int) {
	p, _ := strconv.Atoi(page)
	s, _ := strconv.Atoi(size)
	return profile.NormalizePage(p, s)
}

// ValidateLimit validates a listing limit
func ValidateLimit(raw string, def, max int) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

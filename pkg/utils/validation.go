package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

const (
	MinSlugLength = 3
	MaxSlugLength = 64
)

// NormalizeSlug trims and lowercases a caller-supplied public slug.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// ValidateSlug validates public slug format. Slugs end up in URLs, so only
// lowercase alphanumerics, hyphens and underscores are allowed.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("public slug cannot be empty")
	}

	if len(slug) < MinSlugLength {
		return fmt.Errorf("public slug must be at least %d characters long", MinSlugLength)
	}

	if len(slug) > MaxSlugLength {
		return fmt.Errorf("public slug must not exceed %d characters", MaxSlugLength)
	}

	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("public slug may only contain lowercase letters, digits, hyphens and underscores")
	}

	return nil
}

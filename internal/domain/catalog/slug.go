package catalog

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, collapses every run of non-alphanumerics into a single
// hyphen and trims hyphens from both ends.
func Slugify(s string) string {
	slug := strings.ToLower(strings.TrimSpace(s))
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// IsObjectID reports whether s has the shape of a 24 hex digit object id.
func IsObjectID(s string) bool {
	return primitive.IsValidObjectID(s)
}

// Unslug turns a slug into a readable label for not-found pages.
func Unslug(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "-", " "))
}

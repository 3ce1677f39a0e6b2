package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 60

var (
	slugRe      = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugRune = regexp.MustCompile(`[^a-z0-9]+`)
)

// ValidSlug reports whether s is non-empty lowercase [a-z0-9-] with no
// leading, trailing or doubled hyphens.
func ValidSlug(s string) bool {
	return slugRe.MatchString(s)
}

// Slugify derives a URL-safe slug from arbitrary text. Accents are folded
// ("Café" -> "cafe"), "&" becomes "and", and every other run of non
// alphanumerics collapses to one hyphen. The result may be empty.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(strings.ReplaceAll(folded, "&", " and "))
	folded = strings.ReplaceAll(folded, "'", "")
	slug := strings.Trim(nonSlugRune.ReplaceAllString(folded, "-"), "-")

	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
		if i := strings.LastIndexByte(slug, '-'); i > maxSlugLen/2 {
			slug = slug[:i]
		}
		slug = strings.Trim(slug, "-")
	}
	return slug
}

// ResolveSlug picks the artifact key for a lead: the model's slug when it
// normalizes to something non-empty, else one derived from the business
// name, else a random "lead-xxxxxxxx" key.
func ResolveSlug(modelSlug, businessName string) string {
	if s := Slugify(modelSlug); s != "" {
		return s
	}
	if s := Slugify(businessName); s != "" {
		return s
	}
	return "lead-" + uuid.New().String()[:8]
}

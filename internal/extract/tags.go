// Package extract turns free-text model output into a typed lead record.
//
// The model is asked to wrap each field in a bracketed marker named after the
// field, e.g. "[NAME]Acme Plumbing[/NAME]". Parsing runs in two phases per
// field:
//
//  1. strict: the opening marker, a non-greedy capture, and the matching
//     closing marker;
//  2. lenient: the opening marker, a non-greedy capture, and the start of any
//     closing marker. This recovers fields whose closing tag the model
//     misspelled or truncated ("[/NAM]", "[/NAME", "[/]").
//
// A field matching neither phase extracts as the empty string.
package extract

import (
	"regexp"
	"strings"
	"sync"
)

// Tier records which parse phase recovered a field.
type Tier int

const (
	TierNone Tier = iota
	TierStrict
	TierLenient
)

func (t Tier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	case TierLenient:
		return "lenient"
	default:
		return "none"
	}
}

type tagPatterns struct {
	strict  *regexp.Regexp
	lenient *regexp.Regexp
}

var (
	patternsMu sync.Mutex
	patterns   = map[string]tagPatterns{}
)

func patternsFor(tag string) tagPatterns {
	patternsMu.Lock()
	defer patternsMu.Unlock()

	if p, ok := patterns[tag]; ok {
		return p
	}
	q := regexp.QuoteMeta(tag)
	p := tagPatterns{
		strict:  regexp.MustCompile(`(?is)\[` + q + `\](.*?)\[/` + q + `\]`),
		lenient: regexp.MustCompile(`(?is)\[` + q + `\](.*?)\[/`),
	}
	patterns[tag] = p
	return p
}

// Tag extracts the text wrapped by the marker named tag, trimmed of
// surrounding whitespace, along with the phase that matched.
func Tag(raw, tag string) (string, Tier) {
	p := patternsFor(tag)
	if m := p.strict.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), TierStrict
	}
	if m := p.lenient.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), TierLenient
	}
	return "", TierNone
}

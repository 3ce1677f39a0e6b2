package extract

import (
	"strings"

	"go.uber.org/zap"
)

// Canonical field names, used as keys in Fields and in missing-field reports.
const (
	FieldBusinessName       = "businessName"
	FieldNiche              = "niche"
	FieldSlug               = "slug"
	FieldArea               = "area"
	FieldCurrentSiteURL     = "currentSiteUrl"
	FieldTargetEmail        = "targetEmail"
	FieldTargetPhone        = "targetPhone"
	FieldNotes              = "notes"
	FieldSuggestedDomain    = "suggestedDomain"
	FieldDomainCostEstimate = "domainCostEstimate"
	FieldServices           = "services"
	FieldMessageDraft       = "messageDraft"
)

// FieldSpec binds a canonical field name to the marker the model uses for it.
type FieldSpec struct {
	Name string
	Tag  string
}

// LeadFields lists every extracted field in prompt order.
var LeadFields = []FieldSpec{
	{FieldBusinessName, "NAME"},
	{FieldNiche, "NICHE"},
	{FieldSlug, "SLUG"},
	{FieldArea, "AREA"},
	{FieldCurrentSiteURL, "CURRENT_SITE"},
	{FieldTargetEmail, "EMAIL"},
	{FieldTargetPhone, "PHONE"},
	{FieldNotes, "NOTES"},
	{FieldSuggestedDomain, "DOMAIN"},
	{FieldDomainCostEstimate, "DOMAIN_COST"},
	{FieldServices, "SERVICES"},
	{FieldMessageDraft, "MESSAGE"},
}

// RequiredFields must be non-empty for a response to be well formed.
var RequiredFields = []string{
	FieldBusinessName,
	FieldNiche,
	FieldArea,
	FieldMessageDraft,
}

// Fields is the partial, string-valued lead extracted from one response.
// Every field in LeadFields has a key; absent fields map to "".
type Fields map[string]string

// Extract parses every lead field out of raw.
func Extract(raw string) Fields {
	out := make(Fields, len(LeadFields))
	var lenient []string
	for _, f := range LeadFields {
		v, tier := Tag(raw, f.Tag)
		out[f.Name] = v
		if tier == TierLenient {
			lenient = append(lenient, f.Name)
		}
	}
	if len(lenient) > 0 {
		zap.L().Debug("extract: recovered fields with malformed closing tags",
			zap.Strings("fields", lenient),
		)
	}
	return out
}

// Validate returns the names of required fields that are empty, in
// RequiredFields order. A nil result means the response is well formed.
// Contact fields are not checked here.
func Validate(f Fields) []string {
	var missing []string
	for _, name := range RequiredFields {
		if strings.TrimSpace(f[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// SplitServices turns the free-form services field into an ordered list.
// Items may be separated by newlines, semicolons, pipes or commas and may
// carry list bullets or numbering.
func SplitServices(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == ';' || r == '|' || r == ','
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimLeft(p, "-*•· \t")
		p = trimNumbering(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// trimNumbering strips a leading "1." or "2)" style list marker.
func trimNumbering(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

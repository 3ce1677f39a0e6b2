package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/extract"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// Hint narrows the research stage to a niche and/or area. Empty fields
// leave the choice to the model.
type Hint struct {
	Niche string `json:"niche,omitempty"`
	Area  string `json:"area,omitempty"`
}

var fieldGuidance = map[string]string{
	extract.FieldBusinessName:       "the business name",
	extract.FieldNiche:              "the trade or niche, e.g. plumbing",
	extract.FieldSlug:               "a lowercase hyphenated slug of the name",
	extract.FieldArea:               "city and state",
	extract.FieldCurrentSiteURL:     "their current website URL, or none",
	extract.FieldTargetEmail:        "a public contact email, or \"no email found\"",
	extract.FieldTargetPhone:        "a public phone number, or \"no phone found\"",
	extract.FieldNotes:              "one or two sentences on why their web presence is weak",
	extract.FieldSuggestedDomain:    "an available-sounding domain for a new site",
	extract.FieldDomainCostEstimate: "a rough yearly cost for that domain",
	extract.FieldServices:           "a comma-separated list of their main services",
	extract.FieldMessageDraft:       "a short friendly outreach message that includes {{LIVE_URL}} where the preview link goes",
}

// ResearchPrompt asks for one small local business with a weak web
// presence. Names in avoid were rejected earlier in the run.
func ResearchPrompt(hint Hint, avoid []string) string {
	var b strings.Builder
	b.WriteString("Find one real, small local business that has no website or an outdated one")
	if hint.Niche != "" {
		fmt.Fprintf(&b, " in the %s trade", hint.Niche)
	}
	if hint.Area != "" {
		fmt.Fprintf(&b, " located in %s", hint.Area)
	}
	b.WriteString(". The business must have a publicly listed email address or phone number.\n\n")

	if len(avoid) > 0 {
		b.WriteString("Do not suggest any of these businesses, they were already rejected:\n")
		for _, name := range avoid {
			fmt.Fprintf(&b, "- %s\n", name)
		}
		b.WriteString("\n")
	}

	b.WriteString("Answer with each field wrapped in its marker, exactly like [NAME]Acme Plumbing[/NAME]:\n")
	for _, f := range extract.LeadFields {
		fmt.Fprintf(&b, "[%s]%s[/%s]\n", f.Tag, fieldGuidance[f.Name], f.Tag)
	}
	return b.String()
}

// BuildPrompt asks for a complete single-file landing page for lead.
func BuildPrompt(lead model.LeadRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a complete, single-file HTML landing page for %s, a %s business in %s.\n",
		lead.BusinessName, lead.Niche, lead.Area)
	if len(lead.Services) > 0 {
		fmt.Fprintf(&b, "Feature these services: %s.\n", strings.Join(lead.Services, ", "))
	}
	if lead.TargetPhone != "" {
		fmt.Fprintf(&b, "Show the phone number %s prominently.\n", lead.TargetPhone)
	}
	if lead.TargetEmail != "" && !strings.EqualFold(lead.TargetEmail, "no email found") {
		fmt.Fprintf(&b, "Include a contact link to %s.\n", lead.TargetEmail)
	}
	if lead.Notes != "" {
		fmt.Fprintf(&b, "Context: %s\n", lead.Notes)
	}
	b.WriteString("Use inline CSS only, no external assets besides web fonts. ")
	b.WriteString("Return only the HTML document, starting with <!DOCTYPE html> and ending with </html>.")
	return b.String()
}

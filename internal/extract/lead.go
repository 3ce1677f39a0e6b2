package extract

import (
	"strings"

	"github.com/sells-group/leadgen-cli/internal/contact"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// ParseLead runs extraction, validation and the contact gate over one model
// response. It returns a *model.Error of kind KindExtraction (with Missing
// set) when narrative fields are absent, or KindContactInsufficient when the
// lead has no usable email or phone.
func ParseLead(raw string) (model.LeadRecord, error) {
	f := Extract(raw)
	if missing := Validate(f); len(missing) > 0 {
		e := model.NewError(model.KindExtraction, "extract", "missing required fields: "+strings.Join(missing, ", "))
		e.Missing = missing
		return model.LeadRecord{}, e
	}
	return BuildLead(f)
}

// BuildLead applies the contact gate to validated fields and constructs the
// record, deriving Channel and backfilling Slug.
func BuildLead(f Fields) (model.LeadRecord, error) {
	ch, ok := contact.DeriveChannel(f[FieldTargetEmail], f[FieldTargetPhone])
	if !ok {
		return model.LeadRecord{}, model.NewError(model.KindContactInsufficient, "extract",
			"no usable email or phone for "+f[FieldBusinessName])
	}

	return model.LeadRecord{
		BusinessName:       f[FieldBusinessName],
		Niche:              f[FieldNiche],
		Slug:               ResolveSlug(f[FieldSlug], f[FieldBusinessName]),
		Area:               f[FieldArea],
		CurrentSiteURL:     f[FieldCurrentSiteURL],
		TargetEmail:        f[FieldTargetEmail],
		TargetPhone:        f[FieldTargetPhone],
		Notes:              f[FieldNotes],
		SuggestedDomain:    f[FieldSuggestedDomain],
		DomainCostEstimate: f[FieldDomainCostEstimate],
		Services:           SplitServices(f[FieldServices]),
		MessageDraft:       f[FieldMessageDraft],
		Channel:            ch,
	}, nil
}

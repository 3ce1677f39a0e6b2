package leadlog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/notion"
)

// Notion property names of the lead database.
const (
	propBusinessName = "Business Name"
	propNiche        = "Niche"
	propSlug         = "Slug"
	propArea         = "Area"
	propCurrentSite  = "Current Site"
	propEmail        = "Email"
	propPhone        = "Phone"
	propNotes        = "Notes"
	propDomain       = "Suggested Domain"
	propDomainCost   = "Domain Cost"
	propServices     = "Services"
	propMessage      = "Message"
	propChannel      = "Channel"
	propLiveURL      = "Live URL"
	propRevision     = "Revision"
	propStatus       = "Status"
	propSentAt       = "Sent"
)

// NotionLog implements Log on a Notion database, one page per lead.
type NotionLog struct {
	client notion.Client
	dbID   string
}

// NewNotionLog returns a log writing to the Notion database dbID.
func NewNotionLog(client notion.Client, dbID string) *NotionLog {
	return &NotionLog{client: client, dbID: dbID}
}

func (n *NotionLog) Append(ctx context.Context, lead model.LeadRecord, liveURL, revision string) (string, error) {
	props := notionapi.Properties{
		propBusinessName: notion.Title(lead.BusinessName),
		propNiche:        notion.Text(lead.Niche),
		propSlug:         notion.Text(lead.Slug),
		propArea:         notion.Text(lead.Area),
		propEmail:        notion.Text(lead.TargetEmail),
		propPhone:        notion.Text(lead.TargetPhone),
		propNotes:        notion.Text(lead.Notes),
		propDomain:       notion.Text(lead.SuggestedDomain),
		propDomainCost:   notion.Text(lead.DomainCostEstimate),
		propServices:     notion.Text(strings.Join(lead.Services, ", ")),
		propMessage:      notion.Text(lead.MessageDraft),
		propChannel:      notion.Text(string(lead.Channel)),
		propLiveURL:      notion.URL(liveURL),
		propRevision:     notion.Text(revision),
		propStatus:       notion.Status(string(model.LeadStatusAwaitingSend)),
	}
	// Notion rejects an empty url value.
	if lead.CurrentSiteURL != "" {
		props[propCurrentSite] = notion.URL(lead.CurrentSiteURL)
	}

	page, err := n.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(n.dbID),
		},
		Properties: props,
	})
	if err != nil {
		return "", eris.Wrap(err, "notion: create lead page")
	}
	return string(page.ID), nil
}

func (n *NotionLog) ListByStatus(ctx context.Context, status model.LeadStatus) ([]model.LogEntry, error) {
	pages, err := notion.QueryByStatus(ctx, n.client, n.dbID, propStatus, string(status))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].CreatedTime.Before(pages[j].CreatedTime)
	})

	entries := make([]model.LogEntry, 0, len(pages))
	for _, p := range pages {
		entries = append(entries, pageToEntry(p))
	}
	return entries, nil
}

func (n *NotionLog) MarkSent(ctx context.Context, id string, at time.Time) error {
	_, err := n.client.UpdatePage(ctx, id, &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			propStatus: notion.Status(string(model.LeadStatusSent)),
			propSentAt: notion.Date(at.UTC()),
		},
	})
	return eris.Wrapf(err, "notion: mark sent %s", id)
}

func (n *NotionLog) Close() error { return nil }

func pageToEntry(p notionapi.Page) model.LogEntry {
	props := p.Properties
	var services []string
	for _, s := range strings.Split(notion.ReadText(props, propServices), ",") {
		if s = strings.TrimSpace(s); s != "" {
			services = append(services, s)
		}
	}
	return model.LogEntry{
		ID: string(p.ID),
		Lead: model.LeadRecord{
			BusinessName:       notion.ReadText(props, propBusinessName),
			Niche:              notion.ReadText(props, propNiche),
			Slug:               notion.ReadText(props, propSlug),
			Area:               notion.ReadText(props, propArea),
			CurrentSiteURL:     notion.ReadText(props, propCurrentSite),
			TargetEmail:        notion.ReadText(props, propEmail),
			TargetPhone:        notion.ReadText(props, propPhone),
			Notes:              notion.ReadText(props, propNotes),
			SuggestedDomain:    notion.ReadText(props, propDomain),
			DomainCostEstimate: notion.ReadText(props, propDomainCost),
			Services:           services,
			MessageDraft:       notion.ReadText(props, propMessage),
			Channel:            model.Channel(notion.ReadText(props, propChannel)),
		},
		LiveURL:   notion.ReadText(props, propLiveURL),
		Revision:  notion.ReadText(props, propRevision),
		Status:    model.LeadStatus(notion.ReadText(props, propStatus)),
		CreatedAt: p.CreatedTime,
		SentAt:    notion.ReadDate(props, propSentAt),
	}
}

package model

import "time"

// Channel is the outreach medium selected for a lead.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Valid reports whether c is one of the known channels.
func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS
}

// LeadStatus is the mutable status column of a persisted lead log row.
type LeadStatus string

const (
	LeadStatusAwaitingSend LeadStatus = "awaiting send"
	LeadStatusSent         LeadStatus = "sent"
)

// LeadRecord is a candidate business produced by the research stage.
// It is created fresh per run and is read-only downstream except for
// Channel and Slug, which are filled in during lead construction.
type LeadRecord struct {
	BusinessName       string   `json:"business_name"`
	Niche              string   `json:"niche"`
	Slug               string   `json:"slug"`
	Area               string   `json:"area"`
	CurrentSiteURL     string   `json:"current_site_url,omitempty"`
	TargetEmail        string   `json:"target_email,omitempty"`
	TargetPhone        string   `json:"target_phone,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	SuggestedDomain    string   `json:"suggested_domain,omitempty"`
	DomainCostEstimate string   `json:"domain_cost_estimate,omitempty"`
	Services           []string `json:"services,omitempty"`
	MessageDraft       string   `json:"message_draft"`
	Channel            Channel  `json:"channel"`
}

// LogEntry is one row of the persisted run log: the full lead projection,
// the live artifact URL and the outreach status.
type LogEntry struct {
	ID        string     `json:"id"`
	Lead      LeadRecord `json:"lead"`
	LiveURL   string     `json:"live_url"`
	Revision  string     `json:"revision,omitempty"`
	Status    LeadStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

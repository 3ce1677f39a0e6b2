// Package leadlog persists one row per published lead and tracks its
// outreach status.
package leadlog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/notion"
)

// Log is the persisted run log. Rows are appended with status
// "awaiting send" and later transitioned to "sent" by MarkSent.
type Log interface {
	Append(ctx context.Context, lead model.LeadRecord, liveURL, revision string) (string, error)
	ListByStatus(ctx context.Context, status model.LeadStatus) ([]model.LogEntry, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	Close() error
}

// FromConfig opens the backend selected by leadlog.backend. SQL backends
// are migrated before they are returned.
func FromConfig(ctx context.Context, cfg *config.Config) (Log, error) {
	switch strings.ToLower(cfg.LeadLog.Backend) {
	case "notion":
		c := notion.NewClient(cfg.Notion.Token,
			notion.WithRateLimit(cfg.Notion.RateLimitRPS),
			notion.WithRetry(resilience.RetryConfig{
				MaxAttempts:    cfg.Notion.MaxRetries + 1,
				InitialBackoff: time.Second,
				MaxBackoff:     10 * time.Second,
				Multiplier:     2,
			}),
		)
		return NewNotionLog(c, cfg.Notion.LeadDB), nil
	case "sqlite":
		l, err := NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := l.Migrate(ctx); err != nil {
			l.Close() //nolint:errcheck
			return nil, err
		}
		return l, nil
	case "postgres":
		l, err := NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := l.Migrate(ctx); err != nil {
			l.Close() //nolint:errcheck
			return nil, err
		}
		return l, nil
	default:
		return nil, eris.Errorf("leadlog: unknown backend %q", cfg.LeadLog.Backend)
	}
}

// columns is the SQL column contract shared by the sqlite and postgres
// backends, in scan order.
const columns = `id, business_name, niche, slug, area, current_site_url, target_email, target_phone,
	notes, suggested_domain, domain_cost_estimate, services, message_draft, channel,
	live_url, revision, status, created_at, sent_at`

func encodeServices(services []string) (string, error) {
	if len(services) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(services)
	if err != nil {
		return "", eris.Wrap(err, "leadlog: marshal services")
	}
	return string(b), nil
}

func decodeServices(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, eris.Wrap(err, "leadlog: unmarshal services")
	}
	return out, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(row scannable) (model.LogEntry, error) {
	var (
		e        model.LogEntry
		services string
		channel  string
		status   string
		sentAt   *time.Time
	)
	l := &e.Lead
	err := row.Scan(&e.ID, &l.BusinessName, &l.Niche, &l.Slug, &l.Area, &l.CurrentSiteURL,
		&l.TargetEmail, &l.TargetPhone, &l.Notes, &l.SuggestedDomain, &l.DomainCostEstimate,
		&services, &l.MessageDraft, &channel, &e.LiveURL, &e.Revision, &status, &e.CreatedAt, &sentAt)
	if err != nil {
		return e, err
	}
	if l.Services, err = decodeServices(services); err != nil {
		return e, err
	}
	l.Channel = model.Channel(channel)
	e.Status = model.LeadStatus(status)
	e.SentAt = sentAt
	return e, nil
}

var (
	_ Log = (*SQLiteLog)(nil)
	_ Log = (*PostgresLog)(nil)
	_ Log = (*NotionLog)(nil)
)

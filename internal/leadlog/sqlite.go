package leadlog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SQLiteLog implements Log using modernc.org/sqlite.
type SQLiteLog struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteLog{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                   TEXT PRIMARY KEY,
	business_name        TEXT NOT NULL,
	niche                TEXT NOT NULL,
	slug                 TEXT NOT NULL,
	area                 TEXT NOT NULL,
	current_site_url     TEXT NOT NULL DEFAULT '',
	target_email         TEXT NOT NULL DEFAULT '',
	target_phone         TEXT NOT NULL DEFAULT '',
	notes                TEXT NOT NULL DEFAULT '',
	suggested_domain     TEXT NOT NULL DEFAULT '',
	domain_cost_estimate TEXT NOT NULL DEFAULT '',
	services             TEXT NOT NULL DEFAULT '[]',
	message_draft        TEXT NOT NULL,
	channel              TEXT NOT NULL,
	live_url             TEXT NOT NULL,
	revision             TEXT NOT NULL DEFAULT '',
	status               TEXT NOT NULL DEFAULT 'awaiting send',
	created_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	sent_at              DATETIME
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_slug ON leads(slug);
`

func (s *SQLiteLog) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteLog) Close() error {
	return s.db.Close()
}

func (s *SQLiteLog) Append(ctx context.Context, lead model.LeadRecord, liveURL, revision string) (string, error) {
	id := uuid.New().String()
	services, err := encodeServices(lead.Services)
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		id, lead.BusinessName, lead.Niche, lead.Slug, lead.Area, lead.CurrentSiteURL,
		lead.TargetEmail, lead.TargetPhone, lead.Notes, lead.SuggestedDomain, lead.DomainCostEstimate,
		services, lead.MessageDraft, string(lead.Channel), liveURL, revision,
		string(model.LeadStatusAwaitingSend), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert lead")
	}
	return id, nil
}

func (s *SQLiteLog) ListByStatus(ctx context.Context, status model.LeadStatus) ([]model.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM leads WHERE status = ? ORDER BY created_at ASC, rowid ASC`,
		string(status),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close() //nolint:errcheck

	var entries []model.LogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteLog) MarkSent(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ?, sent_at = ? WHERE id = ?`,
		string(model.LeadStatusSent), at.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark sent %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: lead not found: %s", id)
	}
	return nil
}

package leadlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// pool is the subset of pgxpool.Pool used by PostgresLog. pgxmock's pool
// satisfies it in tests.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresLog implements Log using pgxpool.
type PostgresLog struct {
	pool pool
}

// NewPostgres creates a PostgresLog with a small connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresLog, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	p, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresLog{pool: p}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	sent_at              TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_slug ON leads(slug);
CREATE INDEX IF NOT EXISTS idx_leads_status_created ON leads(status, created_at);
`

func (s *PostgresLog) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresLog) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresLog) Append(ctx context.Context, lead model.LeadRecord, liveURL, revision string) (string, error) {
	id := uuid.New().String()
	services, err := encodeServices(lead.Services)
	if err != nil {
		return "", err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO leads (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NULL)`,
		id, lead.BusinessName, lead.Niche, lead.Slug, lead.Area, lead.CurrentSiteURL,
		lead.TargetEmail, lead.TargetPhone, lead.Notes, lead.SuggestedDomain, lead.DomainCostEstimate,
		services, lead.MessageDraft, string(lead.Channel), liveURL, revision,
		string(model.LeadStatusAwaitingSend), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert lead")
	}
	return id, nil
}

func (s *PostgresLog) ListByStatus(ctx context.Context, status model.LeadStatus) ([]model.LogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+columns+` FROM leads WHERE status = $1 ORDER BY created_at ASC`,
		string(status),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresLog) MarkSent(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = $1, sent_at = $2 WHERE id = $3`,
		string(model.LeadStatusSent), at.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark sent %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: lead not found: %s", id)
	}
	return nil
}

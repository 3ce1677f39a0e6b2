package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/compose"
	"github.com/sells-group/leadgen-cli/internal/contact"
	"github.com/sells-group/leadgen-cli/internal/leadlog"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// BatchResult is the outcome for one log entry.
type BatchResult struct {
	ID           string        `json:"id"`
	BusinessName string        `json:"business_name"`
	Channel      model.Channel `json:"channel"`
	Sent         bool          `json:"sent"`
	Skipped      bool          `json:"skipped,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// BatchReport summarizes one SendPending invocation.
type BatchReport struct {
	Considered int           `json:"considered"`
	Sent       int           `json:"sent"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Results    []BatchResult `json:"results"`
}

// Batch sends outreach for leads that were published but not yet sent.
type Batch struct {
	log        leadlog.Log
	dispatcher Dispatcher
	sender     compose.Sender
	pacing     time.Duration
	limit      int
	now        func() time.Time
}

// NewBatch creates a batch sender. pacing is the minimum delay between two
// sends; limit caps the entries handled per invocation (0 means no cap).
func NewBatch(log leadlog.Log, disp Dispatcher, sender compose.Sender, pacing time.Duration, limit int) *Batch {
	return &Batch{
		log:        log,
		dispatcher: disp,
		sender:     sender,
		pacing:     pacing,
		limit:      limit,
		now:        time.Now,
	}
}

// SendPending dispatches each "awaiting send" entry at most once. Entries in
// any other status are skipped. A successful send transitions the entry to
// "sent"; a failed send leaves its status unchanged.
func (b *Batch) SendPending(ctx context.Context) (*BatchReport, error) {
	entries, err := b.log.ListByStatus(ctx, model.LeadStatusAwaitingSend)
	if err != nil {
		return nil, eris.Wrap(err, "batch: list pending")
	}

	limit := rate.Inf
	if b.pacing > 0 {
		limit = rate.Every(b.pacing)
	}
	limiter := rate.NewLimiter(limit, 1)

	report := &BatchReport{}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if b.limit > 0 && report.Sent+report.Failed >= b.limit {
			break
		}
		report.Considered++

		if e.Status != model.LeadStatusAwaitingSend || seen[e.ID] {
			report.Skipped++
			report.Results = append(report.Results, BatchResult{ID: e.ID, BusinessName: e.Lead.BusinessName, Skipped: true})
			continue
		}
		seen[e.ID] = true

		if err := limiter.Wait(ctx); err != nil {
			return report, eris.Wrap(err, "batch: pacing")
		}

		res := b.sendOne(ctx, e)
		if res.Sent {
			report.Sent++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, res)
	}

	zap.L().Info("batch: send pending complete",
		zap.Int("considered", report.Considered),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (b *Batch) sendOne(ctx context.Context, e model.LogEntry) BatchResult {
	res := BatchResult{ID: e.ID, BusinessName: e.Lead.BusinessName, Channel: e.Lead.Channel}
	if !res.Channel.Valid() {
		if ch, ok := contact.DeriveChannel(e.Lead.TargetEmail, e.Lead.TargetPhone); ok {
			res.Channel = ch
		}
	}
	log := zap.L().With(zap.String("log_id", e.ID), zap.String("channel", string(res.Channel)))

	msg := compose.Compose(e.Lead, e.LiveURL, b.sender)
	out, err := b.dispatcher.Send(ctx, res.Channel, e.Lead, msg)
	if err != nil {
		res.Error = statusLine(err)
		log.Warn("batch: send failed", zap.Error(err))
		return res
	}
	res.Sent = out.Sent

	if err := b.log.MarkSent(ctx, e.ID, b.now()); err != nil {
		log.Warn("batch: mark sent failed", zap.Error(err))
		res.Error = "sent but status not updated: " + statusLine(err)
	}
	return res
}

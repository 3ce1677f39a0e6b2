package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/extract"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// research asks for candidate leads until one passes validation and the
// contact gate, or the attempt ceiling is reached. A generation failure ends
// the loop immediately; malformed responses and leads without a usable
// contact consume an attempt. It returns the number of attempts used and
// reports every answered call to record.
func (p *Pipeline) research(ctx context.Context, hint Hint, record func(model.GenerationResult)) (model.LeadRecord, int, error) {
	limit := p.opts.MaxResearchAttempts
	var rejected []string

	for attempt := 1; attempt <= limit; attempt++ {
		if err := ctx.Err(); err != nil {
			return model.LeadRecord{}, attempt - 1, err
		}

		req := p.opts.Research.request(ResearchPrompt(hint, rejected))
		res, err := p.gen.Generate(ctx, p.opts.Research.Provider, req)
		if err != nil {
			return model.LeadRecord{}, attempt, err
		}
		record(res)

		lead, err := extract.ParseLead(res.Text)
		if err == nil {
			zap.L().Info("research: lead accepted",
				zap.Int("attempt", attempt),
				zap.String("business", lead.BusinessName),
				zap.String("channel", string(lead.Channel)),
			)
			return lead, attempt, nil
		}

		var e *model.Error
		switch model.KindOf(err) {
		case model.KindExtraction:
			if errors.As(err, &e) {
				zap.L().Warn("research: malformed response",
					zap.Int("attempt", attempt),
					zap.Strings("missing", e.Missing),
					zap.String("excerpt", model.Truncate(res.Text, model.MaxDetailLen)),
				)
			}
		case model.KindContactInsufficient:
			name := extract.Extract(res.Text)[extract.FieldBusinessName]
			if name != "" {
				rejected = append(rejected, name)
			}
			zap.L().Warn("research: lead has no usable contact",
				zap.Int("attempt", attempt),
				zap.String("business", name),
			)
		default:
			return model.LeadRecord{}, attempt, err
		}
	}

	return model.LeadRecord{}, limit, model.NewError(model.KindContactInsufficient, "research",
		fmt.Sprintf("no leads with contact info after %d tries", limit))
}

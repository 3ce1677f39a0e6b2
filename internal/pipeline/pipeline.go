// Package pipeline sequences research, build, publish and outreach for one
// lead and sends pending outreach in batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/compose"
	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/leadlog"
	"github.com/sells-group/leadgen-cli/internal/llm"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/publish"
)

// State is a step of a pipeline run.
type State string

const (
	StateResearching State = "researching"
	StateBuilding    State = "building"
	StatePublishing  State = "publishing"
	StateOutreaching State = "outreaching"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Dispatcher sends a composed message over a channel.
type Dispatcher interface {
	Send(ctx context.Context, ch model.Channel, lead model.LeadRecord, msg model.ChannelMessage) (model.OutreachOutcome, error)
}

// StageSettings configure one generation stage.
type StageSettings struct {
	Provider    llm.Provider
	Model       string
	Temperature float64
	MaxTokens   int
}

func (s StageSettings) request(prompt string) model.GenerationRequest {
	return model.GenerationRequest{
		Prompt:          prompt,
		Temperature:     s.Temperature,
		MaxOutputTokens: s.MaxTokens,
		ModelID:         s.Model,
	}
}

// Options hold the run policy.
type Options struct {
	Research            StageSettings
	Build               StageSettings
	MaxResearchAttempts int
	AutoSend            bool
	Sender              compose.Sender
}

// DefaultMaxResearchAttempts bounds the research loop when Options leaves it unset.
const DefaultMaxResearchAttempts = 5

// OptionsFromConfig maps the loaded configuration to run options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	research, err := stageFromConfig(cfg.Research)
	if err != nil {
		return Options{}, eris.Wrap(err, "pipeline: research stage")
	}
	build, err := stageFromConfig(cfg.Build)
	if err != nil {
		return Options{}, eris.Wrap(err, "pipeline: build stage")
	}
	return Options{
		Research:            research,
		Build:               build,
		MaxResearchAttempts: cfg.Research.MaxAttempts,
		AutoSend:            cfg.Outreach.AutoSend,
		Sender: compose.Sender{
			Name:        cfg.Sender.Name,
			Email:       cfg.Sender.Email,
			PaymentLink: cfg.Sender.PaymentLink,
		},
	}, nil
}

func stageFromConfig(s config.StageConfig) (StageSettings, error) {
	p, err := llm.ParseProvider(s.Provider)
	if err != nil {
		return StageSettings{}, err
	}
	return StageSettings{Provider: p, Model: s.Model, Temperature: s.Temperature, MaxTokens: s.MaxTokens}, nil
}

// Pipeline runs one lead through every stage.
type Pipeline struct {
	gen        llm.Generator
	publisher  publish.Publisher
	log        leadlog.Log
	dispatcher Dispatcher
	opts       Options
	costs      *cost.Calculator
	now        func() time.Time
}

// New creates a Pipeline. log and dispatcher may be nil, which skips the
// log append and outreach respectively.
func New(gen llm.Generator, pub publish.Publisher, log leadlog.Log, disp Dispatcher, opts Options) *Pipeline {
	if opts.MaxResearchAttempts <= 0 {
		opts.MaxResearchAttempts = DefaultMaxResearchAttempts
	}
	return &Pipeline{
		gen:        gen,
		publisher:  pub,
		log:        log,
		dispatcher: disp,
		opts:       opts,
		costs:      cost.NewCalculator(cost.DefaultRates()),
		now:        time.Now,
	}
}

// StageTiming records how long one stage took.
type StageTiming struct {
	Stage      State  `json:"stage"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// StageUsage is the token spend of one generation call.
type StageUsage struct {
	Stage        State   `json:"stage"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	Attempts     int     `json:"attempts"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	CostUSD      float64 `json:"estimated_cost_usd"`
}

// Report is the outcome of one run. State is StateDone or StateFailed;
// FailedStage names the stage that ended a failed run. An outreach failure
// leaves State at StateDone and is reported in Outreach.
type Report struct {
	State            State                  `json:"state"`
	FailedStage      State                  `json:"failed_stage,omitempty"`
	Status           string                 `json:"status"`
	ErrorKind        model.ErrorKind        `json:"error_kind,omitempty"`
	ResearchAttempts int                    `json:"research_attempts"`
	Lead             *model.LeadRecord      `json:"lead,omitempty"`
	Publish          *model.PublishResult   `json:"publish,omitempty"`
	LogID            string                 `json:"log_id,omitempty"`
	Outreach         *model.OutreachOutcome `json:"outreach,omitempty"`
	OutreachKind     model.ErrorKind        `json:"outreach_error_kind,omitempty"`
	Stages           []StageTiming          `json:"stages"`
	Usage            []StageUsage           `json:"usage,omitempty"`
	EstimatedCostUSD float64                `json:"estimated_cost_usd"`
}

// Run executes research, build, publish and, when auto-send is enabled,
// outreach. The returned error is the terminal failure, if any; the report
// is always non-nil.
func (p *Pipeline) Run(ctx context.Context, hint Hint) (*Report, error) {
	log := zap.L().With(zap.String("niche", hint.Niche), zap.String("area", hint.Area))
	log.Info("pipeline: starting run")

	report := &Report{}
	var (
		lead     model.LeadRecord
		document string
		termErr  error
	)

	track := func(stage State, fn func() error) error {
		start := time.Now()
		err := fn()
		t := StageTiming{Stage: stage, DurationMs: time.Since(start).Milliseconds()}
		if err != nil {
			t.Error = statusLine(err)
			log.Error("pipeline: stage failed",
				zap.String("stage", string(stage)),
				zap.Int64("duration_ms", t.DurationMs),
				zap.Error(err),
			)
		} else {
			log.Info("pipeline: stage complete",
				zap.String("stage", string(stage)),
				zap.Int64("duration_ms", t.DurationMs),
			)
		}
		report.Stages = append(report.Stages, t)
		return err
	}

	usage := func(stage State) func(model.GenerationResult) {
		return func(res model.GenerationResult) {
			u := StageUsage{
				Stage:        stage,
				Provider:     res.Provider,
				Model:        res.Model,
				Attempts:     res.Attempts,
				InputTokens:  res.InputTokens,
				OutputTokens: res.OutputTokens,
				CostUSD:      p.costs.Generation(res.Provider, res.Model, res.InputTokens, res.OutputTokens),
			}
			report.Usage = append(report.Usage, u)
			report.EstimatedCostUSD += u.CostUSD
			log.Info("pipeline: cost attribution",
				zap.String("stage", string(stage)),
				zap.String("provider", u.Provider),
				zap.String("model", u.Model),
				zap.Int64("input_tokens", u.InputTokens),
				zap.Int64("output_tokens", u.OutputTokens),
				zap.Float64("estimated_cost_usd", u.CostUSD),
			)
		}
	}

	fail := func(stage State, err error) State {
		report.FailedStage = stage
		termErr = err
		return StateFailed
	}

	state := StateResearching
	for state != StateDone && state != StateFailed {
		switch state {
		case StateResearching:
			err := track(state, func() error {
				var rerr error
				lead, report.ResearchAttempts, rerr = p.research(ctx, hint, usage(StateResearching))
				return rerr
			})
			if err != nil {
				state = fail(StateResearching, err)
				continue
			}
			report.Lead = &lead
			log = log.With(zap.String("slug", lead.Slug))
			state = StateBuilding

		case StateBuilding:
			err := track(state, func() error {
				var berr error
				document, berr = p.build(ctx, lead, usage(StateBuilding))
				return berr
			})
			if err != nil {
				state = fail(StateBuilding, err)
				continue
			}
			state = StatePublishing

		case StatePublishing:
			var res model.PublishResult
			err := track(state, func() error {
				var perr error
				res, perr = p.publisher.Publish(ctx, lead.Slug, []byte(document))
				return perr
			})
			if err != nil {
				res.Error = statusLine(err)
				report.Publish = &res
				state = fail(StatePublishing, err)
				continue
			}
			report.Publish = &res
			report.LogID = p.appendLog(ctx, log, lead, res)
			if p.opts.AutoSend && p.dispatcher != nil {
				state = StateOutreaching
			} else {
				state = StateDone
			}

		case StateOutreaching:
			_ = track(state, func() error {
				return p.outreach(ctx, log, report, lead)
			})
			state = StateDone
		}
	}

	report.State = state
	if termErr != nil {
		report.ErrorKind = model.KindOf(termErr)
		report.Status = string(report.FailedStage) + ": " + statusLine(termErr)
		log.Warn("pipeline: run failed", zap.String("stage", string(report.FailedStage)), zap.Error(termErr))
		return report, termErr
	}

	report.Status = successLine(report)
	log.Info("pipeline: run complete",
		zap.String("live_url", report.Publish.LiveURL),
		zap.Float64("estimated_cost_usd", report.EstimatedCostUSD),
	)
	return report, nil
}

func (p *Pipeline) build(ctx context.Context, lead model.LeadRecord, record func(model.GenerationResult)) (string, error) {
	res, err := p.gen.Generate(ctx, p.opts.Build.Provider, p.opts.Build.request(BuildPrompt(lead)))
	if err != nil {
		return "", err
	}
	record(res)
	return CleanDocument(res.Text)
}

// appendLog records the published lead. A log failure does not fail the
// run since the artifact is already live.
func (p *Pipeline) appendLog(ctx context.Context, log *zap.Logger, lead model.LeadRecord, res model.PublishResult) string {
	if p.log == nil {
		return ""
	}
	id, err := p.log.Append(ctx, lead, res.LiveURL, res.Revision)
	if err != nil {
		log.Warn("pipeline: lead log append failed", zap.Error(err))
		return ""
	}
	return id
}

func (p *Pipeline) outreach(ctx context.Context, log *zap.Logger, report *Report, lead model.LeadRecord) error {
	msg := compose.Compose(lead, report.Publish.LiveURL, p.opts.Sender)
	out, err := p.dispatcher.Send(ctx, lead.Channel, lead, msg)
	report.Outreach = &out
	if err != nil {
		report.OutreachKind = model.KindOf(err)
		if out.Error == "" {
			out.Error = statusLine(err)
		}
		log.Warn("pipeline: outreach failed", zap.String("channel", string(lead.Channel)), zap.Error(err))
		return err
	}

	if report.LogID != "" {
		if err := p.log.MarkSent(ctx, report.LogID, p.now()); err != nil {
			log.Warn("pipeline: mark sent failed", zap.String("log_id", report.LogID), zap.Error(err))
		}
	}
	return nil
}

// statusLine renders err for the user-facing status: the message of the
// classified error plus its status code and truncated detail.
func statusLine(err error) string {
	var e *model.Error
	if !errors.As(err, &e) {
		return model.Truncate(err.Error(), model.MaxDetailLen)
	}
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(model.Truncate(e.Detail, model.MaxDetailLen))
	}
	return b.String()
}

func successLine(r *Report) string {
	line := "published " + r.Publish.LiveURL
	if r.Outreach == nil {
		return line
	}
	if r.Outreach.Sent {
		return line + "; sent via " + string(r.Outreach.Channel)
	}
	return line + "; outreach failed: " + r.Outreach.Error
}

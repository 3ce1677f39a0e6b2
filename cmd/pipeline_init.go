package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/compose"
	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/leadlog"
	"github.com/sells-group/leadgen-cli/internal/llm"
	"github.com/sells-group/leadgen-cli/internal/outreach"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/publish"
)

// pipelineEnv holds the initialized collaborators needed by the run command.
type pipelineEnv struct {
	Log      leadlog.Log
	Pipeline *pipeline.Pipeline
	closeLLM func()
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.closeLLM != nil {
		pe.closeLLM()
	}
	if pe.Log != nil {
		_ = pe.Log.Close()
	}
}

// initPipeline builds every collaborator from cfg. Callers should defer
// env.Close().
func initPipeline(ctx context.Context, cfg *config.Config) (*pipelineEnv, error) {
	if err := cfg.Validate("run"); err != nil {
		return nil, err
	}

	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	gen, closeLLM, err := llm.FromConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "init llm")
	}

	pub, err := publish.FromConfig(ctx, cfg)
	if err != nil {
		closeLLM()
		return nil, eris.Wrap(err, "init publisher")
	}

	leads, err := leadlog.FromConfig(ctx, cfg)
	if err != nil {
		closeLLM()
		return nil, eris.Wrap(err, "init lead log")
	}

	var disp pipeline.Dispatcher
	if cfg.Outreach.AutoSend {
		d, err := outreach.FromConfig(ctx, cfg)
		if err != nil {
			closeLLM()
			_ = leads.Close()
			return nil, eris.Wrap(err, "init outreach")
		}
		disp = d
	}

	zap.L().Info("pipeline initialized",
		zap.String("research_provider", string(opts.Research.Provider)),
		zap.String("build_provider", string(opts.Build.Provider)),
		zap.String("publish_backend", cfg.Publish.Backend),
		zap.String("leadlog_backend", cfg.LeadLog.Backend),
		zap.Bool("auto_send", cfg.Outreach.AutoSend),
	)

	return &pipelineEnv{
		Log:      leads,
		Pipeline: pipeline.New(gen, pub, leads, disp, opts),
		closeLLM: closeLLM,
	}, nil
}

// initBatch builds the batch sender for send-pending. Callers close the
// returned log.
func initBatch(ctx context.Context, cfg *config.Config) (*pipeline.Batch, leadlog.Log, error) {
	if err := cfg.Validate("send-pending"); err != nil {
		return nil, nil, err
	}

	leads, err := leadlog.FromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, eris.Wrap(err, "init lead log")
	}

	disp, err := outreach.FromConfig(ctx, cfg)
	if err != nil {
		_ = leads.Close()
		return nil, nil, eris.Wrap(err, "init outreach")
	}

	sender := compose.Sender{
		Name:        cfg.Sender.Name,
		Email:       cfg.Sender.Email,
		PaymentLink: cfg.Sender.PaymentLink,
	}
	pacing := time.Duration(cfg.Outreach.BatchPacingSecs) * time.Second
	return pipeline.NewBatch(leads, disp, sender, pacing, cfg.Outreach.BatchLimit), leads, nil
}

package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/llm"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/outreach"
)

func TestRun_ResearchExhaustsWithoutContact(t *testing.T) {
	gen := newScriptedGen()
	for i := 0; i < 5; i++ {
		gen.on(llm.ProviderAnthropic, reply{text: leadResponse("Nowhere Plumbing", "no email found", "N/A")})
	}
	pub := newFakePublisher()
	p := New(gen, pub, nil, nil, testOptions())

	report, err := p.Run(context.Background(), Hint{Niche: "plumbing"})
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindContactInsufficient))

	assert.Equal(t, StateFailed, report.State)
	assert.Equal(t, StateResearching, report.FailedStage)
	assert.Contains(t, report.Status, "no leads with contact info after 5 tries")
	assert.Equal(t, model.KindContactInsufficient, report.ErrorKind)
	assert.Equal(t, 5, report.ResearchAttempts)
	assert.Nil(t, report.Lead)

	assert.Equal(t, 5, gen.calls(llm.ProviderAnthropic))
	assert.Zero(t, gen.calls(llm.ProviderOpenAI), "building is never reached")
	assert.Zero(t, pub.calls)
}

func TestRun_SMSLeadWithoutSMSBackend(t *testing.T) {
	gen := newScriptedGen().
		on(llm.ProviderAnthropic,
			reply{text: "[NAME]Half Answer[/NAME] I could not finish."},
			reply{text: leadResponse("Acme Plumbing", "no email found", "(555) 123 4567")},
		).
		on(llm.ProviderOpenAI, reply{text: page})
	pub := newFakePublisher()
	leads := newSQLiteLog(t)
	disp := outreach.NewDispatcher(&recordingMailer{}, nil)

	opts := testOptions()
	opts.AutoSend = true
	p := New(gen, pub, leads, disp, opts)

	report, err := p.Run(context.Background(), Hint{})
	require.NoError(t, err, "outreach failure is not terminal")

	assert.Equal(t, StateDone, report.State)
	assert.Equal(t, 2, report.ResearchAttempts)
	require.NotNil(t, report.Lead)
	assert.Equal(t, model.ChannelSMS, report.Lead.Channel)
	assert.Equal(t, "acme-plumbing", report.Lead.Slug)

	require.NotNil(t, report.Publish)
	assert.True(t, report.Publish.Success)
	assert.Equal(t, "https://leads.example.com/sites/acme-plumbing/", report.Publish.LiveURL)
	assert.True(t, strings.HasPrefix(string(pub.objects["acme-plumbing"]), "<!DOCTYPE html>"))

	require.NotNil(t, report.Outreach)
	assert.False(t, report.Outreach.Sent)
	assert.NotEmpty(t, report.Outreach.Error)
	assert.Equal(t, model.KindChannelUnavailable, report.OutreachKind)

	require.NotEmpty(t, report.LogID)
	pending, err := leads.ListByStatus(context.Background(), model.LeadStatusAwaitingSend)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, report.LogID, pending[0].ID)
	assert.Nil(t, pending[0].SentAt)
}

func TestRun_EmailSentMarksLog(t *testing.T) {
	gen := newScriptedGen().
		on(llm.ProviderAnthropic, reply{text: leadResponse("Acme Plumbing", "owner@acme.test", "")}).
		on(llm.ProviderOpenAI, reply{text: page})
	leads := newSQLiteLog(t)
	mailer := &recordingMailer{}

	opts := testOptions()
	opts.AutoSend = true
	p := New(gen, newFakePublisher(), leads, outreach.NewDispatcher(mailer, nil), opts)

	report, err := p.Run(context.Background(), Hint{})
	require.NoError(t, err)
	require.NotNil(t, report.Outreach)
	assert.True(t, report.Outreach.Sent)
	assert.Contains(t, report.Status, "sent via email")

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "owner@acme.test", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Plain, "https://leads.example.com/sites/acme-plumbing/")

	sent, err := leads.ListByStatus(context.Background(), model.LeadStatusSent)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.NotNil(t, sent[0].SentAt)
}

func TestRun_AutoSendDisabledSkipsOutreach(t *testing.T) {
	gen := newScriptedGen().
		on(llm.ProviderAnthropic, reply{text: leadResponse("Acme Plumbing", "owner@acme.test", "")}).
		on(llm.ProviderOpenAI, reply{text: page})
	mailer := &recordingMailer{}
	p := New(gen, newFakePublisher(), nil, outreach.NewDispatcher(mailer, nil), testOptions())

	report, err := p.Run(context.Background(), Hint{})
	require.NoError(t, err)
	assert.Nil(t, report.Outreach)
	assert.Empty(t, mailer.sent)
	assert.Equal(t, "published https://leads.example.com/sites/acme-plumbing/", report.Status)
}

func TestRun_GenerationFailureIsTerminal(t *testing.T) {
	upstream := model.NewError(model.KindUpstreamCall, "llm: anthropic", "generation failed").
		WithStatus(529).WithDetail(`{"error":"overloaded"}`)
	gen := newScriptedGen().on(llm.ProviderAnthropic, reply{err: upstream})
	p := New(gen, newFakePublisher(), nil, nil, testOptions())

	report, err := p.Run(context.Background(), Hint{})
	require.Error(t, err)
	assert.Equal(t, StateResearching, report.FailedStage)
	assert.Equal(t, 1, report.ResearchAttempts)
	assert.Equal(t, model.KindUpstreamCall, report.ErrorKind)
	assert.Equal(t, `researching: generation failed (status 529): {"error":"overloaded"}`, report.Status)
	assert.Equal(t, 1, gen.calls(llm.ProviderAnthropic))
}

func TestRun_AvoidListCarriesRejectedNames(t *testing.T) {
	gen := newScriptedGen().
		on(llm.ProviderAnthropic,
			reply{text: leadResponse("Ghost Roofing", "unknown", "none")},
			reply{text: leadResponse("Acme Plumbing", "owner@acme.test", "")},
		).
		on(llm.ProviderOpenAI, reply{text: page})
	p := New(gen, newFakePublisher(), nil, nil, testOptions())

	_, err := p.Run(context.Background(), Hint{})
	require.NoError(t, err)

	prompts := gen.prompts[llm.ProviderAnthropic]
	require.Len(t, prompts, 2)
	assert.NotContains(t, prompts[0], "Ghost Roofing")
	assert.Contains(t, prompts[1], "- Ghost Roofing")
}

func TestRun_InvalidDocumentFailsBuilding(t *testing.T) {
	gen := newScriptedGen().
		on(llm.ProviderAnthropic, reply{text: leadResponse("Acme Plumbing", "owner@acme.test", "")}).
		on(llm.ProviderOpenAI, reply{text: "Sorry, I can't write a whole page."})
	pub := newFakePublisher()
	p := New(gen, pub, nil, nil, testOptions())

	report, err := p.Run(context.Background(), Hint{})
	require.Error(t, err)
	assert.Equal(t, StateBuilding, report.FailedStage)
	assert.Equal(t, model.KindInvalidOutput, report.ErrorKind)
	assert.Zero(t, pub.calls)
}

func TestRun_PublishFailureIsTerminal(t *testing.T) {
	gen := newScriptedGen().
		on(llm.ProviderAnthropic, reply{text: leadResponse("Acme Plumbing", "owner@acme.test", "")}).
		on(llm.ProviderOpenAI, reply{text: page})
	pub := newFakePublisher()
	pub.err = model.NewError(model.KindPublish, "publish: github", "write rejected").WithStatus(422)
	ml := new(mockLog)
	p := New(gen, pub, ml, nil, testOptions())

	report, err := p.Run(context.Background(), Hint{})
	require.Error(t, err)
	assert.Equal(t, StatePublishing, report.FailedStage)
	assert.Equal(t, model.KindPublish, report.ErrorKind)
	require.NotNil(t, report.Publish)
	assert.False(t, report.Publish.Success)
	assert.Contains(t, report.Publish.Error, "status 422")
	ml.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_LogAppendFailureIsWarning(t *testing.T) {
	gen := newScriptedGen().
		on(llm.ProviderAnthropic, reply{text: leadResponse("Acme Plumbing", "owner@acme.test", "")}).
		on(llm.ProviderOpenAI, reply{text: page})
	ml := new(mockLog)
	ml.On("Append", mock.Anything, mock.Anything, "https://leads.example.com/sites/acme-plumbing/", "rev-1").
		Return("", assert.AnError).Once()
	mailer := &recordingMailer{}

	opts := testOptions()
	opts.AutoSend = true
	p := New(gen, newFakePublisher(), ml, outreach.NewDispatcher(mailer, nil), opts)

	report, err := p.Run(context.Background(), Hint{})
	require.NoError(t, err)
	assert.Empty(t, report.LogID)
	assert.True(t, report.Outreach.Sent)
	ml.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything, mock.Anything)
	ml.AssertExpectations(t)
}

func TestRun_RecordsStageTimings(t *testing.T) {
	gen := newScriptedGen().
		on(llm.ProviderAnthropic, reply{text: leadResponse("Acme Plumbing", "owner@acme.test", "")}).
		on(llm.ProviderOpenAI, reply{text: page})
	p := New(gen, newFakePublisher(), nil, nil, testOptions())

	report, err := p.Run(context.Background(), Hint{})
	require.NoError(t, err)
	require.Len(t, report.Stages, 3)
	assert.Equal(t, StateResearching, report.Stages[0].Stage)
	assert.Equal(t, StateBuilding, report.Stages[1].Stage)
	assert.Equal(t, StatePublishing, report.Stages[2].Stage)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Research: config.StageConfig{Provider: "Gemini", Model: "gemini-2.5-flash", Temperature: 1, MaxTokens: 2048, MaxAttempts: 4},
		Build:    config.StageConfig{Provider: "bedrock", Temperature: 0.7, MaxTokens: 16000},
		Outreach: config.OutreachConfig{AutoSend: true},
		Sender:   config.SenderConfig{Name: "Sam", Email: "sam@example.com", PaymentLink: "https://pay.example.com"},
	}

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderGemini, opts.Research.Provider)
	assert.Equal(t, "gemini-2.5-flash", opts.Research.Model)
	assert.Equal(t, llm.ProviderBedrock, opts.Build.Provider)
	assert.Equal(t, 4, opts.MaxResearchAttempts)
	assert.True(t, opts.AutoSend)
	assert.Equal(t, "https://pay.example.com", opts.Sender.PaymentLink)

	cfg.Build.Provider = "cohere"
	_, err = OptionsFromConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build stage")
}

func TestNew_DefaultsResearchAttempts(t *testing.T) {
	p := New(newScriptedGen(), newFakePublisher(), nil, nil, Options{})
	assert.Equal(t, DefaultMaxResearchAttempts, p.opts.MaxResearchAttempts)
}

func TestRun_ReportsUsageAndCost(t *testing.T) {
	gen := newScriptedGen().
		on(llm.ProviderAnthropic,
			reply{text: leadResponse("Ghost Roofing", "unknown", ""), model: "claude-sonnet-4-5-20250929", in: 1_000_000},
			reply{text: leadResponse("Acme Plumbing", "owner@acme.test", ""), model: "claude-sonnet-4-5-20250929", out: 100_000},
		).
		on(llm.ProviderOpenAI, reply{text: page, model: "gpt-4o", in: 100_000, out: 100_000})
	p := New(gen, newFakePublisher(), nil, nil, testOptions())

	report, err := p.Run(context.Background(), Hint{})
	require.NoError(t, err)
	require.Len(t, report.Usage, 3)
	assert.Equal(t, StateResearching, report.Usage[0].Stage)
	assert.Equal(t, StateBuilding, report.Usage[2].Stage)
	assert.InDelta(t, 3.00, report.Usage[0].CostUSD, 1e-9)
	assert.InDelta(t, 1.50, report.Usage[1].CostUSD, 1e-9)
	assert.InDelta(t, 1.25, report.Usage[2].CostUSD, 1e-9)
	assert.InDelta(t, 5.75, report.EstimatedCostUSD, 1e-9)
}

func TestRun_CostLogMatchesReport(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	gen := newScriptedGen().
		on(llm.ProviderAnthropic, reply{text: leadResponse("Acme Plumbing", "owner@acme.test", ""), model: "claude-sonnet-4-5-20250929", in: 1_000_000}).
		on(llm.ProviderOpenAI, reply{text: page, model: "gpt-4o", in: 100_000, out: 100_000})
	p := New(gen, newFakePublisher(), nil, nil, testOptions())

	report, err := p.Run(context.Background(), Hint{})
	require.NoError(t, err)
	require.Len(t, report.Usage, 2)

	entries := logs.FilterMessage("pipeline: cost attribution").All()
	require.Len(t, entries, 2)
	for i, e := range entries {
		fields := e.ContextMap()
		assert.Equal(t, string(report.Usage[i].Stage), fields["stage"])
		assert.InDelta(t, report.Usage[i].CostUSD, fields["estimated_cost_usd"], 1e-9)
	}
}

package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/compose"
	"github.com/sells-group/leadgen-cli/internal/leadlog"
	"github.com/sells-group/leadgen-cli/internal/llm"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/outreach"
)

// scriptedGen answers each provider's calls from a queue of replies.
type scriptedGen struct {
	mu      sync.Mutex
	replies map[llm.Provider][]reply
	prompts map[llm.Provider][]string
}

type reply struct {
	text  string
	err   error
	model string
	in    int64
	out   int64
}

func newScriptedGen() *scriptedGen {
	return &scriptedGen{
		replies: map[llm.Provider][]reply{},
		prompts: map[llm.Provider][]string{},
	}
}

func (g *scriptedGen) on(p llm.Provider, replies ...reply) *scriptedGen {
	g.replies[p] = append(g.replies[p], replies...)
	return g
}

func (g *scriptedGen) calls(p llm.Provider) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts[p])
}

func (g *scriptedGen) Generate(_ context.Context, p llm.Provider, req model.GenerationRequest) (model.GenerationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts[p] = append(g.prompts[p], req.Prompt)
	queue := g.replies[p]
	if len(queue) == 0 {
		return model.GenerationResult{}, model.NewError(model.KindUpstreamCall, "llm: "+string(p), "no scripted reply")
	}
	r := queue[0]
	g.replies[p] = queue[1:]
	if r.err != nil {
		return model.GenerationResult{}, r.err
	}
	return model.GenerationResult{
		Text:         r.text,
		Provider:     string(p),
		Model:        r.model,
		Attempts:     1,
		InputTokens:  r.in,
		OutputTokens: r.out,
	}, nil
}

// fakePublisher stores the latest content per key.
type fakePublisher struct {
	objects map[string][]byte
	calls   int
	err     error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{objects: map[string][]byte{}}
}

func (f *fakePublisher) Publish(_ context.Context, key string, content []byte) (model.PublishResult, error) {
	f.calls++
	if f.err != nil {
		return model.PublishResult{}, f.err
	}
	_, existed := f.objects[key]
	f.objects[key] = content
	return model.PublishResult{
		Success:  true,
		LiveURL:  "https://leads.example.com/sites/" + key + "/",
		Revision: fmt.Sprintf("rev-%d", f.calls),
		Created:  !existed,
	}, nil
}

type recordingMailer struct {
	sent []outreach.Email
	err  error
}

func (m *recordingMailer) SendEmail(_ context.Context, e outreach.Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}

type recordingSMS struct {
	mu   sync.Mutex
	to   []string
	at   []time.Time
	fail map[string]error
}

func (s *recordingSMS) SendSMS(_ context.Context, to, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[to]; err != nil {
		return err
	}
	s.to = append(s.to, to)
	s.at = append(s.at, time.Now())
	return nil
}

// mockLog is a testify mock of leadlog.Log.
type mockLog struct {
	mock.Mock
}

var _ leadlog.Log = (*mockLog)(nil)

func (m *mockLog) Append(ctx context.Context, lead model.LeadRecord, liveURL, revision string) (string, error) {
	args := m.Called(ctx, lead, liveURL, revision)
	return args.String(0), args.Error(1)
}

func (m *mockLog) ListByStatus(ctx context.Context, status model.LeadStatus) ([]model.LogEntry, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LogEntry), args.Error(1)
}

func (m *mockLog) MarkSent(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockLog) Close() error { return nil }

func newSQLiteLog(t *testing.T) *leadlog.SQLiteLog {
	t.Helper()
	l, err := leadlog.NewSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() }) //nolint:errcheck
	require.NoError(t, l.Migrate(context.Background()))
	return l
}

// leadResponse renders a research answer in the tagged format.
func leadResponse(name, email, phone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is a lead.\n[NAME]%s[/NAME]\n", name)
	b.WriteString("[NICHE]plumbing[/NICHE]\n")
	b.WriteString("[AREA]Tulsa, OK[/AREA]\n")
	fmt.Fprintf(&b, "[EMAIL]%s[/EMAIL]\n", email)
	fmt.Fprintf(&b, "[PHONE]%s[/PHONE]\n", phone)
	b.WriteString("[SERVICES]drain cleaning, water heaters[/SERVICES]\n")
	b.WriteString("[MESSAGE]Hi! I built you a new site: {{LIVE_URL}}[/MESSAGE]\n")
	return b.String()
}

const page = "```html\n<!DOCTYPE html>\n<html><body><h1>Acme</h1></body></html>\n```"

func testOptions() Options {
	return Options{
		Research:            StageSettings{Provider: llm.ProviderAnthropic, Temperature: 1, MaxTokens: 2048},
		Build:               StageSettings{Provider: llm.ProviderOpenAI, Temperature: 0.7, MaxTokens: 16000},
		MaxResearchAttempts: 5,
		Sender:              testSender,
	}
}

var testSender = compose.Sender{Name: "Sam Carter", Email: "sam@example.com"}

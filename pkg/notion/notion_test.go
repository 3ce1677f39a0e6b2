package notion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

func TestNewClientReturnsClient(t *testing.T) {
	c := NewClient("secret", WithRateLimit(0))
	assert.NotNil(t, c)
}

func TestQueryAll_SinglePage(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{{ID: "p1"}, {ID: "p2"}},
		}, nil).Once()

	pages, err := QueryAll(ctx, mc, "db-1", nil)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
	mc.AssertExpectations(t)
}

func TestQueryAll_FollowsCursor(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.StartCursor == ""
	})).Return(&notionapi.DatabaseQueryResponse{
		Results:    []notionapi.Page{{ID: "p1"}},
		HasMore:    true,
		NextCursor: notionapi.Cursor("cursor-abc"),
	}, nil).Once()

	mc.On("QueryDatabase", ctx, "db-1", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.StartCursor == notionapi.Cursor("cursor-abc")
	})).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{{ID: "p2"}},
	}, nil).Once()

	pages, err := QueryAll(ctx, mc, "db-1", nil)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, notionapi.ObjectID("p1"), pages[0].ID)
	assert.Equal(t, notionapi.ObjectID("p2"), pages[1].ID)
	mc.AssertExpectations(t)
}

func TestQueryAll_ErrorOnSecondPage(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.StartCursor == ""
	})).Return(&notionapi.DatabaseQueryResponse{
		Results:    []notionapi.Page{{ID: "p1"}},
		HasMore:    true,
		NextCursor: "c2",
	}, nil).Once()
	mc.On("QueryDatabase", ctx, "db-1", mock.Anything).
		Return(nil, errors.New("boom")).Once()

	_, err := QueryAll(ctx, mc, "db-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestQueryByStatus(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		f, ok := req.Filter.(notionapi.PropertyFilter)
		return ok && f.Property == "Status" && f.Status != nil && f.Status.Equals == "awaiting send"
	})).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{{ID: "p1"}},
	}, nil).Once()

	pages, err := QueryByStatus(ctx, mc, "db-1", "Status", "awaiting send")
	require.NoError(t, err)
	assert.Len(t, pages, 1)
	mc.AssertExpectations(t)
}

func TestProperties_RoundTrip(t *testing.T) {
	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	props := notionapi.Properties{
		"Name":   Title("Acme"),
		"Notes":  Text("slow site"),
		"Live":   URL("https://example.com/acme/"),
		"Status": Status("sent"),
		"When":   Date(when),
	}

	assert.Equal(t, "Acme", ReadText(props, "Name"))
	assert.Equal(t, "slow site", ReadText(props, "Notes"))
	assert.Equal(t, "https://example.com/acme/", ReadText(props, "Live"))
	assert.Equal(t, "sent", ReadText(props, "Status"))
	assert.Empty(t, ReadText(props, "Missing"))

	got := ReadDate(props, "When")
	require.NotNil(t, got)
	assert.True(t, when.Equal(*got))
	assert.Nil(t, ReadDate(props, "Missing"))
}

func TestReadText_PointerProperties(t *testing.T) {
	props := notionapi.Properties{
		"Name": &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: "Acme "}, {PlainText: "Co"}}},
		"Slug": &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "acme-co"}}},
	}
	assert.Equal(t, "Acme Co", ReadText(props, "Name"))
	assert.Equal(t, "acme-co", ReadText(props, "Slug"))
}

func TestText_ChunksLongValues(t *testing.T) {
	long := strings.Repeat("a", 4500)
	p := Text(long)
	assert.Len(t, p.RichText, 3)
	assert.Equal(t, long, ReadText(notionapi.Properties{"x": p}, "x"))
}

func fastRetryClient(attempts int) *notionClient {
	return &notionClient{retry: resilience.RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		Multiplier:     1,
	}}
}

func TestCall_RetriesRateLimited(t *testing.T) {
	c := fastRetryClient(3)
	calls := 0

	page, err := call(context.Background(), c, "create page", func(context.Context) (*notionapi.Page, error) {
		calls++
		if calls < 3 {
			return nil, &notionapi.Error{Status: 429, Code: "rate_limited", Message: "slow down"}
		}
		return &notionapi.Page{ID: "p1"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, notionapi.ObjectID("p1"), page.ID)
	assert.Equal(t, 3, calls)
}

func TestCall_DoesNotRetryValidationErrors(t *testing.T) {
	c := fastRetryClient(3)
	calls := 0

	_, err := call(context.Background(), c, "update page p1", func(context.Context) (*notionapi.Page, error) {
		calls++
		return nil, &notionapi.Error{Status: 400, Code: "validation_error", Message: "bad property"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "notion: update page p1")
}

func TestCall_ExhaustsRetries(t *testing.T) {
	c := fastRetryClient(2)
	calls := 0

	_, err := call(context.Background(), c, "query database db-1", func(context.Context) (*notionapi.DatabaseQueryResponse, error) {
		calls++
		return nil, &notionapi.Error{Status: 409, Code: "conflict_error", Message: "conflict"}
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)

	var exhausted *resilience.ExhaustedError
	assert.ErrorAs(t, err, &exhausted)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(&notionapi.Error{Status: 429}))
	assert.True(t, Retryable(&notionapi.Error{Status: 409}))
	assert.True(t, Retryable(&notionapi.Error{Status: 503}))
	assert.False(t, Retryable(&notionapi.Error{Status: 400}))
	assert.False(t, Retryable(errors.New("dial tcp: refused")))
}

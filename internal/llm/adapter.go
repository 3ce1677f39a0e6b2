package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// upstreamError converts an adapter failure into a KindUpstreamCall error.
func upstreamError(op string, err error, status int, detail string) *model.Error {
	msg := "call failed"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "call timed out"
	}
	e := model.WrapError(model.KindUpstreamCall, op, msg, err).WithStatus(status)
	if detail != "" {
		e.WithDetail(detail)
	}
	return e
}

// emptyAnswer is the error for a successful call with no answer text.
func emptyAnswer(op string) *model.Error {
	return model.NewError(model.KindUpstreamCall, op, "empty answer text")
}

// modelOr returns the request's model override, else fallback.
func modelOr(req model.GenerationRequest, fallback string) string {
	if m := strings.TrimSpace(req.ModelID); m != "" {
		return m
	}
	return fallback
}

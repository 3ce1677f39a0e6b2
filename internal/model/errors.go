package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind tags a failure with its place in the error taxonomy.
type ErrorKind string

const (
	// KindUpstreamCall is a network, HTTP or parse failure from an external call.
	KindUpstreamCall ErrorKind = "upstream_call"
	// KindExtraction means required narrative fields were missing from a response.
	KindExtraction ErrorKind = "extraction"
	// KindContactInsufficient means a valid lead had no usable contact channel.
	KindContactInsufficient ErrorKind = "contact_insufficient"
	// KindPublish is a non-success answer from the artifact store.
	KindPublish ErrorKind = "publish"
	// KindChannelUnavailable means the outreach channel lacks configuration or a recipient.
	KindChannelUnavailable ErrorKind = "channel_unavailable"
	// KindInvalidOutput is model output that does not have the expected structure.
	KindInvalidOutput ErrorKind = "invalid_output"
)

// MaxDetailLen bounds the diagnostic excerpt attached to an Error.
const MaxDetailLen = 300

// Error is the structured error returned across component boundaries.
// Message is short and human readable; Detail is a truncated diagnostic
// excerpt such as an upstream response body.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Detail  string
	Status  int
	Missing []string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// WrapError builds an Error of the given kind around cause.
func WrapError(kind ErrorKind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

// WithDetail attaches a truncated diagnostic excerpt.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = Truncate(strings.TrimSpace(detail), MaxDetailLen)
	return e
}

// WithStatus attaches an HTTP status code.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// KindOf returns the ErrorKind of the first *Error in err's chain, or "" when
// err carries no classification.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err's chain contains an *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	return KindOf(err) == k
}

// Truncate shortens s to at most n bytes, cutting on a rune boundary and
// appending an ellipsis when anything was dropped.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Package contact classifies model-extracted contact fields as usable or not.
package contact

import (
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// sentinels are literal values the model returns instead of a real contact.
var sentinels = map[string]struct{}{
	"no email found": {},
	"none":           {},
	"n/a":            {},
	"unknown":        {},
}

func isSentinel(s string) bool {
	_, ok := sentinels[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// IsUsableEmail reports whether s can be used as an email recipient. The
// check is deliberately loose: anything non-sentinel containing "@" passes.
func IsUsableEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || isSentinel(s) {
		return false
	}
	return strings.Contains(s, "@")
}

// IsUsablePhone reports whether s has at least ten digits and is not a
// sentinel value.
func IsUsablePhone(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || isSentinel(s) {
		return false
	}
	return len(digits(s)) >= 10
}

// NormalizePhone converts s to E.164 assuming North American numbering:
// non-digits are dropped, a bare ten-digit number gets a leading 1, and the
// result is prefixed with "+".
func NormalizePhone(s string) string {
	d := digits(s)
	if len(d) == 10 {
		d = "1" + d
	}
	return "+" + d
}

// DeriveChannel picks the outreach channel for a lead: email when the email
// is usable, otherwise sms when the phone is usable. ok is false when
// neither can be used.
func DeriveChannel(email, phone string) (ch model.Channel, ok bool) {
	switch {
	case IsUsableEmail(email):
		return model.ChannelEmail, true
	case IsUsablePhone(phone):
		return model.ChannelSMS, true
	default:
		return "", false
	}
}

func digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Package compose renders outreach messages from a lead and its live page
// URL. Everything here is pure: no I/O, no clock, no randomness.
package compose

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Placeholders the research prompt may leave in the drafted message for the
// live page URL.
var Placeholders = []string{"{{LIVE_URL}}", "{LIVE_URL}", "[LIVE_URL]"}

// maxShortLen keeps the short form within two SMS segments.
const maxShortLen = 320

// Sender identifies who the outreach comes from.
type Sender struct {
	Name        string
	Email       string
	PaymentLink string
}

// Compose renders every variant of the outreach message for lead.
func Compose(lead model.LeadRecord, liveURL string, sender Sender) model.ChannelMessage {
	plain := PlainBody(lead, liveURL, sender)

	rich, err := richBody(lead, liveURL, sender)
	if err != nil {
		zap.L().Warn("compose: rich body fell back to plain text", zap.Error(err))
		rich = plainToHTML(plain)
	}

	return model.ChannelMessage{
		Subject:   Subject(lead),
		RichBody:  rich,
		PlainBody: plain,
		ShortBody: ShortBody(lead, liveURL, sender),
	}
}

// Subject is the email subject line.
func Subject(lead model.LeadRecord) string {
	return "A new website preview for " + businessOr(lead, "your business")
}

// Body substitutes liveURL into the drafted message, appending it when the
// draft carries no placeholder. An empty draft yields a generic body.
func Body(lead model.LeadRecord, liveURL string) string {
	draft := strings.TrimSpace(lead.MessageDraft)
	if draft == "" {
		draft = "Hi " + businessOr(lead, "there") + ",\n\nI put together a preview of a new website for you."
	}

	replaced := false
	for _, p := range Placeholders {
		if strings.Contains(draft, p) {
			draft = strings.ReplaceAll(draft, p, liveURL)
			replaced = true
		}
	}
	if !replaced && liveURL != "" && !strings.Contains(draft, liveURL) {
		draft += "\n\nYou can see it here: " + liveURL
	}
	return draft
}

// PlainBody is the full plain-text message with payment line and signature.
func PlainBody(lead model.LeadRecord, liveURL string, sender Sender) string {
	var b strings.Builder
	b.WriteString(Body(lead, liveURL))

	if link := strings.TrimSpace(sender.PaymentLink); link != "" {
		b.WriteString("\n\nIf you'd like to keep it, you can claim it here: ")
		b.WriteString(link)
	}
	if sig := signature(sender); sig != "" {
		b.WriteString("\n\n")
		b.WriteString(sig)
	}
	return b.String()
}

// ShortBody is the SMS form: one line naming the business, the URL and the
// sender, capped at maxShortLen runes.
func ShortBody(lead model.LeadRecord, liveURL string, sender Sender) string {
	var b strings.Builder
	b.WriteString("Hi ")
	b.WriteString(businessOr(lead, "there"))
	b.WriteString(", I built a free preview of a new website for you")
	if liveURL != "" {
		b.WriteString(": ")
		b.WriteString(liveURL)
	} else {
		b.WriteString(".")
	}
	if name := strings.TrimSpace(sender.Name); name != "" {
		b.WriteString(" - ")
		b.WriteString(name)
	}
	b.WriteString(". Reply STOP to opt out.")

	s := b.String()
	if r := []rune(s); len(r) > maxShortLen {
		s = string(r[:maxShortLen-3]) + "..."
	}
	return s
}

func signature(sender Sender) string {
	name := strings.TrimSpace(sender.Name)
	email := strings.TrimSpace(sender.Email)
	switch {
	case name != "" && email != "":
		return "Best,\n" + name + "\n" + email
	case name != "":
		return "Best,\n" + name
	case email != "":
		return "Best,\n" + email
	}
	return ""
}

func businessOr(lead model.LeadRecord, fallback string) string {
	if n := strings.TrimSpace(lead.BusinessName); n != "" {
		return n
	}
	return fallback
}

var richTmpl = template.Must(template.New("rich").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,Helvetica,sans-serif;line-height:1.5;color:#222">
{{range .Paragraphs}}<p>{{range $i, $l := .}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p>
{{end}}{{if .LiveURL}}<p><a href="{{.LiveURL}}" style="display:inline-block;padding:10px 18px;background:#1a73e8;color:#fff;text-decoration:none;border-radius:4px">View your website preview</a></p>
{{end}}{{if .PaymentLink}}<p><a href="{{.PaymentLink}}">Claim this site</a></p>
{{end}}{{if .Signature}}<p>{{range $i, $l := .Signature}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p>
{{end}}</body></html>`))

type richData struct {
	Paragraphs  [][]string
	LiveURL     string
	PaymentLink string
	Signature   []string
}

func richBody(lead model.LeadRecord, liveURL string, sender Sender) (string, error) {
	data := richData{
		Paragraphs:  paragraphs(Body(lead, liveURL)),
		LiveURL:     liveURL,
		PaymentLink: strings.TrimSpace(sender.PaymentLink),
	}
	if sig := signature(sender); sig != "" {
		data.Signature = strings.Split(sig, "\n")
	}

	var buf bytes.Buffer
	if err := richTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// paragraphs splits text on blank lines, then each paragraph into lines.
func paragraphs(text string) [][]string {
	var out [][]string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, strings.Split(p, "\n"))
	}
	return out
}

// plainToHTML escapes plain text into minimal HTML.
func plainToHTML(plain string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, p := range paragraphs(plain) {
		b.WriteString("<p>")
		for i, l := range p {
			if i > 0 {
				b.WriteString("<br>")
			}
			b.WriteString(html.EscapeString(l))
		}
		b.WriteString("</p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

package notion

import (
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}, PlainText: s},
	}
}

// Title builds a title property.
func Title(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{Type: notionapi.PropertyTypeTitle, Title: richText(s)}
}

// Text builds a rich_text property. Notion caps a single text object at
// 2000 characters, so longer values are chunked.
func Text(s string) notionapi.RichTextProperty {
	const chunk = 2000
	var rts []notionapi.RichText
	r := []rune(s)
	for len(r) > chunk {
		rts = append(rts, richText(string(r[:chunk]))...)
		r = r[chunk:]
	}
	rts = append(rts, richText(string(r))...)
	return notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: rts}
}

// URL builds a url property.
func URL(s string) notionapi.URLProperty {
	return notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: s}
}

// Status builds a status property.
func Status(name string) notionapi.StatusProperty {
	return notionapi.StatusProperty{Type: notionapi.PropertyTypeStatus, Status: notionapi.Status{Name: name}}
}

// Date builds a date property.
func Date(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t)
	return notionapi.DateProperty{Type: notionapi.PropertyTypeDate, Date: &notionapi.DateObject{Start: &d}}
}

func plainText(rts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		switch {
		case rt.PlainText != "":
			b.WriteString(rt.PlainText)
		case rt.Text != nil:
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}

// ReadText returns the plain-text value of a title, rich_text, url, or status
// property. Pages decoded from the API carry pointer property types, pages
// built locally carry values; both are handled.
func ReadText(p notionapi.Properties, name string) string {
	switch v := p[name].(type) {
	case *notionapi.TitleProperty:
		return plainText(v.Title)
	case notionapi.TitleProperty:
		return plainText(v.Title)
	case *notionapi.RichTextProperty:
		return plainText(v.RichText)
	case notionapi.RichTextProperty:
		return plainText(v.RichText)
	case *notionapi.URLProperty:
		return v.URL
	case notionapi.URLProperty:
		return v.URL
	case *notionapi.StatusProperty:
		return v.Status.Name
	case notionapi.StatusProperty:
		return v.Status.Name
	}
	return ""
}

// ReadDate returns the start of a date property, or nil when unset.
func ReadDate(p notionapi.Properties, name string) *time.Time {
	var obj *notionapi.DateObject
	switch v := p[name].(type) {
	case *notionapi.DateProperty:
		obj = v.Date
	case notionapi.DateProperty:
		obj = v.Date
	}
	if obj == nil || obj.Start == nil {
		return nil
	}
	t := time.Time(*obj.Start)
	return &t
}

package pipeline

import (
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// CleanDocument strips markdown code fences and any chatter around the
// generated page, then checks that a complete HTML document remains.
func CleanDocument(raw string) (string, error) {
	s := stripFences(strings.TrimSpace(raw))
	lower := strings.ToLower(s)

	start := strings.Index(lower, "<!doctype")
	if start < 0 {
		start = strings.Index(lower, "<html")
	}
	end := strings.LastIndex(lower, "</html>")
	if start < 0 || end < 0 || end < start || !strings.Contains(lower, "<html") {
		return "", model.NewError(model.KindInvalidOutput, "build", "generated document is not a complete page").
			WithDetail(s)
	}
	return s[start : end+len("</html>")], nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

package ai

import (
	"regexp"
	"strings"
)

type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Headings recognized in the "Name:" form. Markdown and bold headings are
// accepted with any title.
var knownSections = map[string]bool{
	"summary":            true,
	"overview":           true,
	"key findings":       true,
	"findings":           true,
	"medical history":    true,
	"injuries":           true,
	"diagnosis":          true,
	"treatment":          true,
	"prognosis":          true,
	"causation":          true,
	"recommendations":    true,
	"concerns":           true,
	"red flags":          true,
	"missing information": true,
	"conclusion":         true,
}

var (
	markdownHeading = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*#*$`)
	boldHeading     = regexp.MustCompile(`^\*\*(.+?)\*\*:?$`)
	labelHeading    = regexp.MustCompile(`^([A-Za-z][A-Za-z ]{2,40}):\s*(.*)$`)
)

// ParseSections splits a free-text analysis into titled sections. Text before
// the first heading becomes an "Overview" section. An analysis without any
// heading yields a single section.
func ParseSections(analysis string) []Section {
	sections := make([]Section, 0)
	current := Section{Title: "Overview"}
	var body []string

	flush := func() {
		current.Content = strings.TrimSpace(strings.Join(body, "\n"))
		if current.Content != "" || current.Title != "Overview" {
			sections = append(sections, current)
		}
		body = body[:0]
	}

	for _, raw := range strings.Split(strings.ReplaceAll(analysis, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		title, rest, ok := heading(line)
		if !ok {
			body = append(body, raw)
			continue
		}
		flush()
		current = Section{Title: title}
		if rest != "" {
			body = append(body, rest)
		}
	}
	flush()

	return sections
}

func heading(line string) (title, rest string, ok bool) {
	if m := markdownHeading.FindStringSubmatch(line); m != nil {
		return strings.TrimSuffix(m[1], ":"), "", true
	}
	if m := boldHeading.FindStringSubmatch(line); m != nil {
		return strings.TrimSuffix(strings.TrimSpace(m[1]), ":"), "", true
	}
	if m := labelHeading.FindStringSubmatch(line); m != nil && knownSections[strings.ToLower(strings.TrimSpace(m[1]))] {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

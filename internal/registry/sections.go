package registry

import (
	"strings"
)

// Section is a markdown slice rooted at a level-2 or level-3 heading.
type Section struct {
	ID      int
	Level   int
	Heading string
	Body    string
}

// Sections splits a markdown document by "## " and "### " headings.
// Headings inside fenced code blocks are ignored, YAML frontmatter is skipped,
// and text before the first heading is dropped.
func Sections(doc string) []Section {
	lines := splitLines(doc)
	lines = skipYAMLFrontmatter(lines)

	sections := make([]Section, 0)
	nextID := 1

	var current *Section
	currentBody := make([]string, 0)
	inFence := false
	fence := ""

	emit := func() {
		if current == nil {
			return
		}
		current.ID = nextID
		current.Body = strings.Join(currentBody, "\n")
		sections = append(sections, *current)
		nextID++
	}

	for _, line := range lines {
		trimmedLeft := strings.TrimLeft(line, " \t")

		if !inFence {
			if level, heading, ok := headingOf(trimmedLeft); ok {
				emit()
				current = &Section{Level: level, Heading: heading}
				currentBody = make([]string, 0)
				continue
			}
		}

		currentBody = append(currentBody, line)

		if marker := fenceMarker(trimmedLeft); marker != "" {
			if !inFence {
				inFence = true
				fence = marker
			} else if marker == fence {
				inFence = false
				fence = ""
			}
		}
	}

	emit()
	return sections
}

func headingOf(line string) (int, string, bool) {
	switch {
	case strings.HasPrefix(line, "### "):
		return 3, strings.TrimSpace(strings.TrimPrefix(line, "### ")), true
	case strings.HasPrefix(line, "## "):
		return 2, strings.TrimSpace(strings.TrimPrefix(line, "## ")), true
	}
	return 0, "", false
}

func splitLines(doc string) []string {
	if doc == "" {
		return []string{}
	}
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	return strings.Split(doc, "\n")
}

func skipYAMLFrontmatter(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	if strings.TrimSpace(lines[0]) != "---" {
		return lines
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return lines[i+1:]
		}
	}

	// Unclosed frontmatter swallows the whole document.
	return []string{}
}

func fenceMarker(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "```") {
		return "```"
	}
	if strings.HasPrefix(trimmed, "~~~") {
		return "~~~"
	}
	return ""
}

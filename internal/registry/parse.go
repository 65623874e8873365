package registry

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// sectionKeywords maps a heading phrase to the category of its entries.
var sectionKeywords = []struct {
	phrase string
	kind   string
}{
	{"reference servers", TypeReference},
	{"official integrations", TypeOfficial},
	{"community servers", TypeCommunity},
	{"frameworks", TypeFramework},
	{"resources", TypeResource},
}

var entryPattern = regexp.MustCompile(`^[-*]\s+(?:<img[^>]*>\s*)*\*\*\[(.+?)\]\((.+?)\)\*\*\s*[-–—]\s*(.*)$`)

// TypeOfHeading classifies a section heading, ignoring emoji and other
// decoration. Unrecognized headings return "".
func TypeOfHeading(heading string) string {
	h := strings.ToLower(norm.NFKC.String(heading))
	for _, kw := range sectionKeywords {
		if strings.Contains(h, kw.phrase) {
			return kw.kind
		}
	}
	return ""
}

// Parse extracts server listings from the MCP servers README. When only is
// non-empty, sections of other categories are skipped. A ### section whose
// heading names no category inherits the category of its ## parent.
func Parse(doc string, only string) []Server {
	only = NormalizeType(only)
	servers := make([]Server, 0)

	parent := ""
	for _, section := range Sections(doc) {
		kind := TypeOfHeading(section.Heading)
		if section.Level <= 2 {
			parent = kind
		} else if kind == "" {
			kind = parent
		}
		if kind == "" {
			continue
		}
		if only != "" && kind != only {
			continue
		}
		for _, entry := range entries(section.Body) {
			if server, ok := parseEntry(entry, kind); ok {
				servers = append(servers, server)
			}
		}
	}
	return servers
}

// entries groups list items with their continuation lines.
func entries(body string) []string {
	out := make([]string, 0)
	var current []string

	flush := func() {
		if len(current) > 0 {
			out = append(out, strings.Join(current, " "))
			current = nil
		}
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			flush()
			current = []string{trimmed}
		case current != nil:
			current = append(current, trimmed)
		}
	}
	flush()
	return out
}

func parseEntry(entry string, kind string) (Server, bool) {
	m := entryPattern.FindStringSubmatch(entry)
	if m == nil {
		return Server{}, false
	}

	name := clean(m[1])
	url := strings.TrimSpace(m[2])
	description := clean(m[3])
	if name == "" || url == "" {
		return Server{}, false
	}

	server := Server{
		Name:        name,
		Description: description,
		Type:        kind,
	}
	if strings.HasPrefix(url, "http") {
		server.Repository = url
	} else {
		path := strings.TrimPrefix(url, "./")
		server.Path = path
		server.Repository = monorepoTreeURL + strings.TrimPrefix(path, "/")
	}
	return server, true
}

func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

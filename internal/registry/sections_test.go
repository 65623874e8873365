package registry

import (
	"strings"
	"testing"
)

func TestSectionsBasic(t *testing.T) {
	doc := "Intro text\n## A\nalpha\n### B\nbeta"

	sections := Sections(doc)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Heading != "A" || sections[0].Level != 2 {
		t.Fatalf("unexpected first section: %+v", sections[0])
	}
	if sections[1].Heading != "B" || sections[1].Level != 3 {
		t.Fatalf("unexpected second section: %+v", sections[1])
	}
	if sections[1].ID != 2 {
		t.Fatalf("expected sequential ids, got %d", sections[1].ID)
	}
}

func TestSectionsCodeBlockIgnoresHashes(t *testing.T) {
	doc := "## A\n```md\n## inside code\n### also inside\n```\noutside\n## B\nbody"

	sections := Sections(doc)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if !strings.Contains(sections[0].Body, "## inside code") {
		t.Fatalf("expected fenced heading-like text to remain in section body")
	}
}

func TestSectionsTildeFenceAndUnclosedFence(t *testing.T) {
	doc := "## A\n~~~txt\n## still code\n~~~\n## B\n```\n## not a heading"

	sections := Sections(doc)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[1].Heading != "B" {
		t.Fatalf("unexpected heading %q", sections[1].Heading)
	}
}

func TestSectionsSkipsYAMLFrontmatter(t *testing.T) {
	doc := "---\ntitle: Example\n## not-a-heading: yaml\n---\n\n## A\nbody"

	sections := Sections(doc)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section after frontmatter removal, got %d", len(sections))
	}
	if sections[0].Heading != "A" {
		t.Fatalf("expected heading A, got %q", sections[0].Heading)
	}
}

func TestSectionsHandlesCRLF(t *testing.T) {
	sections := Sections("## A\r\nbody\r\n## B\r\n")
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Body != "body" {
		t.Fatalf("expected CR stripped from body, got %q", sections[0].Body)
	}
}

func TestSectionsEmptyDocument(t *testing.T) {
	if got := Sections(""); len(got) != 0 {
		t.Fatalf("expected no sections, got %d", len(got))
	}
}

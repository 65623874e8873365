package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReadme = `# Model Context Protocol servers

Some intro.

## 🌟 Reference Servers

These servers demonstrate MCP features.

- **[Filesystem](src/filesystem)** - Secure file operations with configurable access controls
- **[Git](src/git)** - Tools to read, search, and manipulate Git repositories
- **[Fetch](src/fetch)** - Web content fetching and conversion
  for efficient LLM usage

## 🤝 Third-Party Servers

### 🎖️ Official Integrations

- <img height="12" width="12" src="https://example.com/logo.png" alt="Acme" /> **[Acme](https://github.com/acme/mcp)** - Acme platform tools
- **[Broken entry without description](https://example.com)**

### 🌎 Community Servers

* **[Weather](https://github.com/someone/weather-mcp)** – Forecasts from public APIs

## 📚 Frameworks

- **[FastMCP](https://github.com/jlowin/fastmcp)** - Pythonic framework

## 📚 Resources

- **[Awesome MCP](https://github.com/punkpeye/awesome-mcp-servers)** - Curated list

## 🚀 Getting Started

- **[Not a server](https://example.com/start)** - Should be ignored
`

func TestParseExtractsAllCategories(t *testing.T) {
	servers := Parse(sampleReadme, "")
	require.Len(t, servers, 7)

	assert.Equal(t, "Filesystem", servers[0].Name)
	assert.Equal(t, TypeReference, servers[0].Type)
	assert.Equal(t, "src/filesystem", servers[0].Path)
	assert.Equal(t, "https://github.com/modelcontextprotocol/servers/tree/main/src/filesystem", servers[0].Repository)

	assert.Equal(t, "Web content fetching and conversion for efficient LLM usage", servers[2].Description)

	assert.Equal(t, "Acme", servers[3].Name)
	assert.Equal(t, TypeOfficial, servers[3].Type)
	assert.Equal(t, "https://github.com/acme/mcp", servers[3].Repository)
	assert.Empty(t, servers[3].Path)

	assert.Equal(t, "Weather", servers[4].Name)
	assert.Equal(t, TypeCommunity, servers[4].Type)

	assert.Equal(t, TypeFramework, servers[5].Type)
	assert.Equal(t, TypeResource, servers[6].Type)
}

func TestParseFiltersByType(t *testing.T) {
	servers := Parse(sampleReadme, "community")
	require.Len(t, servers, 1)
	assert.Equal(t, "Weather", servers[0].Name)
}

func TestParseUnknownTypeFilterReturnsEverything(t *testing.T) {
	assert.Len(t, Parse(sampleReadme, "bogus"), 7)
}

func TestParseNestedSubsectionsInheritCategory(t *testing.T) {
	doc := `## 📚 Frameworks

### For servers

* **[FastMCP](https://github.com/jlowin/fastmcp)** - Pythonic framework

### For clients

* **[codemirror-mcp](https://github.com/marimo-team/codemirror-mcp)** - CodeMirror extension

## 🚀 Getting Started

### Using MCP Servers

- **[Not a server](https://example.com/start)** - Should be ignored
`

	servers := Parse(doc, "framework")
	require.Len(t, servers, 2)
	assert.Equal(t, "FastMCP", servers[0].Name)
	assert.Equal(t, "codemirror-mcp", servers[1].Name)
	for _, s := range servers {
		assert.Equal(t, TypeFramework, s.Type)
	}

	assert.Len(t, Parse(doc, ""), 2, "a new ## heading resets the inherited category")
}

func TestParseEmptyDocument(t *testing.T) {
	servers := Parse("", "")
	assert.NotNil(t, servers)
	assert.Empty(t, servers)
}

func TestTypeOfHeading(t *testing.T) {
	tests := []struct {
		heading string
		want    string
	}{
		{"🌟 Reference Servers", TypeReference},
		{"ðŸŒŸ Reference Servers", TypeReference},
		{"🎖️ Official Integrations", TypeOfficial},
		{"Community Servers", TypeCommunity},
		{"📚 Frameworks", TypeFramework},
		{"📚 Resources", TypeResource},
		{"Getting Started", ""},
	}
	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOfHeading(tt.heading))
		})
	}
}

func TestNormalizeTypeAndSkeleton(t *testing.T) {
	assert.Equal(t, TypeOfficial, NormalizeType(" OFFICIAL "))
	assert.Equal(t, "", NormalizeType("unknown"))

	assert.True(t, IsSkeletonQuery("Skeleton"))
	assert.True(t, IsSkeletonQuery("mcpskeleton"))
	assert.False(t, IsSkeletonQuery("skeletons"))
	assert.Equal(t, TypeReference, Skeleton().Type)
}

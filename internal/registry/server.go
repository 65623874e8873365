package registry

import "strings"

// Server categories, named after the README sections they come from.
const (
	TypeReference = "Reference"
	TypeOfficial  = "Official"
	TypeCommunity = "Community"
	TypeFramework = "Framework"
	TypeResource  = "Resource"
)

const monorepoTreeURL = "https://github.com/modelcontextprotocol/servers/tree/main/"

// Server is one MCP server listing parsed from the README.
type Server struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Repository  string `json:"repository"`
	Path        string `json:"path,omitempty"`
}

// Types lists every known category in README order.
func Types() []string {
	return []string{TypeReference, TypeOfficial, TypeCommunity, TypeFramework, TypeResource}
}

// NormalizeType maps user input like "community" to its canonical form.
// Unknown input returns "".
func NormalizeType(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, t := range Types() {
		if strings.EqualFold(raw, t) {
			return t
		}
	}
	return ""
}

// Skeleton is the built-in record answered for "skeleton" queries.
func Skeleton() Server {
	return Server{
		Name:        "MCP Skeleton Server",
		Description: "A bare-bones MCP server implementation",
		Type:        TypeReference,
		Repository:  "https://github.com/modelcontextprotocol/skeleton",
	}
}

// IsSkeletonQuery reports whether query asks for the skeleton server.
func IsSkeletonQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return q == "skeleton" || q == "mcpskeleton"
}

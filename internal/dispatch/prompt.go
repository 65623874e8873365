package dispatch

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the instruction handed to the coding agent when a new
// MCP tool is requested.
func BuildPrompt(toolName, toolDescription string) string {
	var b strings.Builder

	b.WriteString("You create and organize MCP tools for the interscout server.\n")
	b.WriteString("Your goal is to:\n")
	b.WriteString("1. Add the new tool as a package under internal/ with its own handler\n")
	b.WriteString("2. Register it in internal/tools so the MCP server exposes it\n")
	b.WriteString("3. Make sure the server still starts with the tool registered\n\n")

	b.WriteString("Guidelines:\n")
	b.WriteString("- Only touch internal/ and cmd/\n")
	b.WriteString("- Check for an existing similar tool before writing a new one\n")
	b.WriteString("- Follow the established patterns: explicit errors, structured logging\n")
	b.WriteString("- Add dependencies with go get, never vendor them by hand\n")
	b.WriteString("- Call the start_coding tool when you begin and done_coding when you finish\n\n")

	fmt.Fprintf(&b, "Build a tool named %s that %s\n", strings.TrimSpace(toolName), strings.TrimSpace(toolDescription))
	return b.String()
}

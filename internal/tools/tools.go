package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mistakeknot/interscout/internal/catalog"
	"github.com/mistakeknot/interscout/internal/dispatch"
	"github.com/mistakeknot/interscout/internal/keepgoing"
	"github.com/mistakeknot/interscout/internal/logger"
	"github.com/mistakeknot/interscout/internal/mcpjson"
	"github.com/mistakeknot/interscout/internal/rank"
	"github.com/mistakeknot/interscout/internal/registry"
)

// Deps carries everything the tools need. DispatchPath may be empty, in which
// case create_tool reports an error instead of dispatching.
type Deps struct {
	Finder       *catalog.Finder
	Flag         keepgoing.Store
	MCPJSONPath  string
	DispatchPath string
	Logger       logger.Logger
}

// RegisterAll registers all interscout MCP tools.
func RegisterAll(s *server.MCPServer, deps Deps) {
	s.AddTools(All(deps)...)
}

// All returns every tool in registration order.
func All(deps Deps) []server.ServerTool {
	return []server.ServerTool{
		searchServersTool(deps),
		installServerTool(deps),
		startCodingTool(deps),
		doneCodingTool(deps),
		codingStatusTool(deps),
		createToolTool(deps),
		listFilesTool(),
	}
}

type searchResponse struct {
	Query   string        `json:"query"`
	Count   int           `json:"count"`
	Servers []rank.Scored `json:"servers"`
}

func searchServersTool(deps Deps) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool("search_servers",
			mcp.WithDescription("Search the MCP servers README and rank listings by relevance to a query."),
			mcp.WithString("query",
				mcp.Description("Free-text search term. Empty lists every server by name."),
			),
			mcp.WithString("type",
				mcp.Description("Optional category filter"),
				mcp.Enum("reference", "official", "community", "framework", "resource"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 10)"),
			),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			query := optionalString(args, "query")
			limit, errText := optionalLimit(args, "limit")
			if errText != "" {
				return mcp.NewToolResultError(errText), nil
			}

			results, err := deps.Finder.Find(ctx, catalog.Options{
				Query: query,
				Type:  optionalString(args, "type"),
				Limit: limit,
			})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(searchResponse{Query: query, Count: len(results), Servers: results})
		},
	}
}

type InstallResult struct {
	Status  string                `json:"status"`
	Message string                `json:"message"`
	Server  *registry.Server      `json:"server,omitempty"`
	Config  *mcpjson.ServerConfig `json:"config,omitempty"`

	// Server names configured in mcp.json before and after the update.
	Previous []string `json:"previous_servers,omitempty"`
	Current  []string `json:"current_servers,omitempty"`
}

func installServerTool(deps Deps) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool("install_server",
			mcp.WithDescription("Find the best-matching MCP server and add its launch config to mcp.json."),
			mcp.WithString("name",
				mcp.Description("Server name or search term"),
				mcp.Required(),
			),
			mcp.WithString("json_path",
				mcp.Description("Optional mcp.json path override"),
			),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			name, errText := requiredString(args, "name")
			if errText != "" {
				return mcp.NewToolResultError(errText), nil
			}
			path := optionalString(args, "json_path")
			if path == "" {
				path = deps.MCPJSONPath
			}
			return jsonResult(Install(ctx, deps.Finder, path, name))
		},
	}
}

// Install resolves name to a server and writes it into the mcp.json at path.
// Failures are reported in the response, never as a Go error.
func Install(ctx context.Context, finder *catalog.Finder, path string, name string) InstallResult {
	best, ok, err := finder.Best(ctx, name)
	if err != nil {
		return InstallResult{Status: "error", Message: err.Error()}
	}
	if !ok {
		return InstallResult{Status: "error", Message: fmt.Sprintf("no MCP servers found matching %q", name)}
	}

	srv := best.Server
	cfg, err := mcpjson.Resolve(srv)
	if err != nil {
		return InstallResult{Status: "error", Message: fmt.Sprintf("no configuration found for %s", srv.Repository), Server: &srv}
	}
	previous, err := mcpjson.Servers(path)
	if err != nil {
		return InstallResult{Status: "error", Message: fmt.Sprintf("failed to install %s: %v", srv.Name, err), Server: &srv}
	}
	if err := mcpjson.Update(path, srv.Name, cfg); err != nil {
		return InstallResult{Status: "error", Message: fmt.Sprintf("failed to install %s: %v", srv.Name, err), Server: &srv, Previous: previous}
	}
	current, err := mcpjson.Servers(path)
	if err != nil {
		return InstallResult{Status: "error", Message: fmt.Sprintf("re-read %s: %v", path, err), Server: &srv, Previous: previous}
	}
	return InstallResult{
		Status:   "success",
		Message:  fmt.Sprintf("installed %s MCP server into %s", srv.Name, path),
		Server:   &srv,
		Config:   &cfg,
		Previous: previous,
		Current:  current,
	}
}

func startCodingTool(deps Deps) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool("start_coding",
			mcp.WithDescription("Signal the start of a coding session by setting the keep-going flag to True."),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return setFlag(deps, true), nil
		},
	}
}

func doneCodingTool(deps Deps) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool("done_coding",
			mcp.WithDescription("Signal the end of a coding session by setting the keep-going flag to False."),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return setFlag(deps, false), nil
		},
	}
}

func setFlag(deps Deps, active bool) *mcp.CallToolResult {
	if err := keepgoing.SetFlag(deps.Flag, active); err != nil {
		deps.Logger.Error("flag update failed", map[string]interface{}{"error": err.Error()})
		return mcp.NewToolResultError(fmt.Sprintf("error updating status: %v", err))
	}
	return mcp.NewToolResultText(fmt.Sprintf("Coding status set to %s", keepgoing.Format(active)))
}

type statusResponse struct {
	Active      bool   `json:"active"`
	Initialized bool   `json:"initialized"`
	Error       string `json:"error,omitempty"`
}

func codingStatusTool(deps Deps) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool("coding_status",
			mcp.WithDescription("Report whether the keep-going flag is currently True."),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			active, err := keepgoing.ReadFlag(deps.Flag)
			if err != nil {
				return jsonResult(statusResponse{Error: err.Error()})
			}
			return jsonResult(statusResponse{Active: active, Initialized: true})
		},
	}
}

type createToolResponse struct {
	Status          string `json:"status"`
	Message         string `json:"message"`
	ToolName        string `json:"received_tool_name"`
	ToolDescription string `json:"received_tool_description"`
	Output          string `json:"output,omitempty"`
}

func createToolTool(deps Deps) server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool("create_tool",
			mcp.WithDescription("Ask the coding agent to build a new MCP tool via the dispatch script."),
			mcp.WithString("tool_name",
				mcp.Description("Name of the tool to build"),
				mcp.Required(),
			),
			mcp.WithString("tool_description",
				mcp.Description("What the tool should do"),
				mcp.Required(),
			),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			name, errText := requiredString(args, "tool_name")
			if errText != "" {
				return mcp.NewToolResultError(errText), nil
			}
			description, errText := requiredString(args, "tool_description")
			if errText != "" {
				return mcp.NewToolResultError(errText), nil
			}

			deps.Logger.Info("create_tool requested", map[string]interface{}{"tool": name})
			response := createToolResponse{ToolName: name, ToolDescription: description}

			if err := keepgoing.SetFlag(deps.Flag, true); err != nil {
				response.Status = "error"
				response.Message = fmt.Sprintf("error updating status: %v", err)
				return jsonResult(response)
			}

			result := dispatch.Run(ctx, deps.DispatchPath, dispatch.BuildPrompt(name, description))
			response.Status = result.Status
			response.Output = result.Output
			if result.Status == dispatch.StatusSuccess {
				response.Message = fmt.Sprintf("initiated creation of tool %q", name)
			} else {
				response.Message = fmt.Sprintf("error creating tool: %s", result.Error)
			}
			return jsonResult(response)
		},
	}
}

type FileList struct {
	Status    string   `json:"status"`
	Directory string   `json:"directory"`
	Files     []string `json:"files"`
	Error     string   `json:"error,omitempty"`
}

func listFilesTool() server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool("list_files",
			mcp.WithDescription("List files with a given extension in a directory (non-recursive)."),
			mcp.WithString("directory",
				mcp.Description("Directory to list (default: working directory)"),
			),
			mcp.WithString("extension",
				mcp.Description("File extension including the dot (default .go)"),
			),
		),
		Handler: func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			return jsonResult(ListFiles(optionalString(args, "directory"), optionalString(args, "extension")))
		},
	}
}

// ListFiles lists regular files in dir ending in ext, sorted by name.
func ListFiles(dir string, ext string) FileList {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return FileList{Status: "error", Files: []string{}, Error: err.Error()}
		}
		dir = wd
	}
	if ext == "" {
		ext = ".go"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return FileList{Status: "error", Directory: dir, Files: []string{}, Error: fmt.Sprintf("list %s: %v", dir, err)}
	}
	files := make([]string, 0)
	for _, e := range entries {
		if e.Type().IsRegular() && filepath.Ext(e.Name()) == ext {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return FileList{Status: "success", Directory: dir, Files: files}
}

func requiredString(args map[string]any, key string) (string, string) {
	value, _ := args[key].(string)
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Sprintf("%s is required", key)
	}
	return value, ""
}

func optionalString(args map[string]any, key string) string {
	value, _ := args[key].(string)
	return strings.TrimSpace(value)
}

const maxLimit = 1000

func optionalLimit(args map[string]any, key string) (int, string) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, ""
	}
	n, ok := raw.(float64)
	if !ok {
		return 0, fmt.Sprintf("%s must be a number", key)
	}
	if n != math.Trunc(n) {
		return 0, fmt.Sprintf("%s must be a whole number", key)
	}
	if n < 1 || n > maxLimit {
		return 0, fmt.Sprintf("%s must be between 1 and %d", key, maxLimit)
	}
	return int(n), ""
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal tool response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(encoded)), nil
}

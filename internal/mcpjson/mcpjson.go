package mcpjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mistakeknot/interscout/internal/registry"
)

const serversKey = "mcpServers"

var ErrNoConfig = errors.New("no launch configuration known for server")

// ServerConfig is one entry under "mcpServers".
type ServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

var entrySchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"required": ["command", "args"],
	"properties": {
		"command": {"type": "string", "minLength": 1},
		"args": {"type": "array", "items": {"type": "string"}},
		"env": {"type": "object", "additionalProperties": {"type": "string"}}
	}
}`)

// Validate checks cfg against the mcp.json entry schema.
func Validate(cfg ServerConfig) error {
	result, err := gojsonschema.Validate(entrySchema, gojsonschema.NewGoLoader(cfg))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid server config: %s", strings.Join(msgs, "; "))
}

// Resolve derives a launch config for servers that live in the
// modelcontextprotocol/servers monorepo under src/<name>.
func Resolve(s registry.Server) (ServerConfig, error) {
	path := strings.Trim(s.Path, "/")
	if path == "" {
		const prefix = "https://github.com/modelcontextprotocol/servers/tree/main/"
		if !strings.HasPrefix(s.Repository, prefix) {
			return ServerConfig{}, fmt.Errorf("%w: %s", ErrNoConfig, s.Repository)
		}
		path = strings.Trim(strings.TrimPrefix(s.Repository, prefix), "/")
	}

	name, ok := strings.CutPrefix(path, "src/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return ServerConfig{}, fmt.Errorf("%w: %s", ErrNoConfig, s.Repository)
	}

	return ServerConfig{
		Command: "npx",
		Args:    []string{"-y", "@modelcontextprotocol/server-" + name},
	}, nil
}

// Servers lists the configured server names in sorted order.
func Servers(path string) ([]string, error) {
	doc, err := load(path)
	if err != nil {
		return nil, err
	}
	servers, err := serverMap(doc)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Update sets mcpServers[name] = cfg in the file at path, keeping every other
// key intact. A missing file starts from an empty document.
func Update(path string, name string, cfg ServerConfig) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("server name is required")
	}
	if err := Validate(cfg); err != nil {
		return err
	}

	doc, err := load(path)
	if err != nil {
		return err
	}
	servers, err := serverMap(doc)
	if err != nil {
		return err
	}

	entry, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal server config: %w", err)
	}
	servers[name] = entry

	encodedServers, err := json.Marshal(servers)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", serversKey, err)
	}
	doc[serversKey] = encodedServers

	out, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, out, "", "    "); err != nil {
		return fmt.Errorf("indent config: %w", err)
	}
	pretty.WriteByte('\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, pretty.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func load(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}
	return doc, nil
}

func serverMap(doc map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	servers := map[string]json.RawMessage{}
	raw, ok := doc[serversKey]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return servers, nil
	}
	if err := json.Unmarshal(raw, &servers); err != nil {
		return nil, fmt.Errorf("parse %s: %w", serversKey, err)
	}
	if servers == nil {
		servers = map[string]json.RawMessage{}
	}
	return servers, nil
}

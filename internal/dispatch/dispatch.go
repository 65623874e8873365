package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mistakeknot/interscout/internal/keepgoing"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the MCP-facing payload of a dispatch run.
type Result struct {
	Status string `json:"status"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Run writes prompt to a temp file and hands it to the dispatch script:
//
//	bash <dispatchPath> --prompt-file <prompt> -o <output>
//
// The script's output file wins over its combined stdout/stderr.
func Run(ctx context.Context, dispatchPath string, prompt string) Result {
	if strings.TrimSpace(dispatchPath) == "" {
		return Result{Status: StatusError, Error: "dispatch path is not configured"}
	}
	if strings.TrimSpace(prompt) == "" {
		return Result{Status: StatusError, Error: "prompt is empty"}
	}

	promptFile, err := os.CreateTemp("", "interscout-prompt-*.txt")
	if err != nil {
		return dispatchError(err, "create prompt temp file")
	}
	promptPath := promptFile.Name()
	defer os.Remove(promptPath)

	if _, err := promptFile.WriteString(prompt); err != nil {
		_ = promptFile.Close()
		return dispatchError(err, "write prompt temp file")
	}
	if err := promptFile.Close(); err != nil {
		return dispatchError(err, "close prompt temp file")
	}

	outputFile, err := os.CreateTemp("", "interscout-output-*.txt")
	if err != nil {
		return dispatchError(err, "create output temp file")
	}
	outputPath := outputFile.Name()
	if err := outputFile.Close(); err != nil {
		return dispatchError(err, "close output temp file")
	}
	defer os.Remove(outputPath)

	cmd := exec.CommandContext(
		ctx,
		"bash",
		dispatchPath,
		"--prompt-file", promptPath,
		"-o", outputPath,
	)
	combined, err := cmd.CombinedOutput()
	if err != nil {
		stderr := strings.TrimSpace(string(combined))
		if stderr == "" {
			stderr = err.Error()
		}
		return Result{Status: StatusError, Error: fmt.Sprintf("dispatch failed: %s", stderr)}
	}

	rawOutput, err := os.ReadFile(outputPath)
	if err != nil {
		return dispatchError(err, "read dispatch output")
	}

	output := strings.TrimSpace(string(rawOutput))
	if output == "" {
		output = strings.TrimSpace(string(combined))
	}
	return Result{Status: StatusSuccess, Output: stripCodeFences(output)}
}

func dispatchError(err error, context string) Result {
	return Result{Status: StatusError, Error: fmt.Sprintf("%s: %v", context, err)}
}

// Command returns a keep-going action that runs argv once per tick. A non-zero
// exit fails the action, which stops the loop.
func Command(argv []string) (keepgoing.Action, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("action command is empty")
	}
	name, args := argv[0], append([]string(nil), argv[1:]...)

	return func(ctx context.Context) error {
		out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
		if err != nil {
			detail := strings.TrimSpace(string(out))
			if detail == "" {
				return fmt.Errorf("%s: %w", name, err)
			}
			return fmt.Errorf("%s: %w: %s", name, err, detail)
		}
		return nil
	}, nil
}

// stripCodeFences removes a leading ```<lang> line and a trailing ``` line.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	lines := strings.Split(trimmed, "\n")
	lines = lines[1:]
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

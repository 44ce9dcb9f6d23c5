// Package cli provides a direct command-line interface to the pricing tools,
// bypassing the MCP server entirely. Tools are invoked in-process via the
// registry, so no server or network round-trip is needed.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ratiohq/mcp-aws-pricing/internal/registry"
	"github.com/sirupsen/logrus"
)

// OutputFormat controls how tool results are rendered.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Runner executes CLI commands against the tool registry.
type Runner struct {
	logger *logrus.Logger
	cache  *sync.Map
	output OutputFormat
}

// NewRunner creates a Runner that uses the given logger, cache, and output format.
func NewRunner(logger *logrus.Logger, cache *sync.Map, output OutputFormat) *Runner {
	return &Runner{logger: logger, cache: cache, output: output}
}

// ListTools prints all registered tools with their descriptions.
func (r *Runner) ListTools() error {
	names := registry.GetToolNames()

	if r.output == OutputJSON {
		type jsonEntry struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		out := make([]jsonEntry, 0, len(names))
		for _, name := range names {
			tool, ok := registry.GetTool(name)
			if !ok {
				continue
			}
			out = append(out, jsonEntry{Name: name, Description: firstLine(tool.Definition().Description)})
		}
		return writeJSON(os.Stdout, out)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		tool, ok := registry.GetTool(name)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", name, firstLine(tool.Definition().Description))
	}
	return w.Flush()
}

// HelpTool prints the schema for a single tool.
func (r *Runner) HelpTool(name string) error {
	tool, ok := registry.GetTool(resolveToolName(name))
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}

	def := tool.Definition()

	if r.output == OutputJSON {
		return writeJSON(os.Stdout, def)
	}

	fmt.Fprintf(os.Stdout, "Tool: %s\n\n", def.Name)
	if def.Description != "" {
		fmt.Fprintf(os.Stdout, "%s\n\n", def.Description)
	}

	props := def.InputSchema.Properties
	if len(props) == 0 {
		fmt.Fprintln(os.Stdout, "No parameters.")
		return nil
	}

	required := make(map[string]bool, len(def.InputSchema.Required))
	for _, name := range def.InputSchema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stdout, "Parameters:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, paramName := range names {
		propMap, ok := props[paramName].(map[string]any)
		if !ok {
			continue
		}

		propType, _ := propMap["type"].(string)
		propDesc, _ := propMap["description"].(string)

		reqMark := ""
		if required[paramName] {
			reqMark = " (required)"
		}

		fmt.Fprintf(w, "  --%s\t%s\t%s%s\n", strings.ReplaceAll(paramName, "_", "-"), propType, firstLine(propDesc), reqMark)
	}
	return w.Flush()
}

// RunTool executes a tool by name with the given arguments.
// args can be:
//   - A single JSON object: '{"service_code": "AmazonEC2"}'
//   - Flag-style arguments: --service-code AmazonEC2 --max-records 10
//   - Mixed (flags take precedence over JSON values)
func (r *Runner) RunTool(ctx context.Context, name string, args []string) error {
	resolved := resolveToolName(name)
	tool, ok := registry.GetTool(resolved)
	if !ok {
		return fmt.Errorf("unknown tool: %s (run 'mcp-aws-pricing tools' to see available tools)", name)
	}

	params, err := parseArgs(args, tool.Definition())
	if err != nil {
		return fmt.Errorf("argument error: %w", err)
	}

	result, err := tool.Execute(ctx, r.logger, r.cache, params)
	if err != nil {
		return fmt.Errorf("tool error: %w", err)
	}

	return r.renderResult(result)
}

// parseArgs converts CLI arguments into the map a tool's Execute expects.
func parseArgs(args []string, def mcp.Tool) (map[string]any, error) {
	params := make(map[string]any)
	types := paramTypes(def)

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// JSON object argument; flags set earlier win
		if strings.HasPrefix(arg, "{") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(arg), &obj); err != nil {
				return nil, fmt.Errorf("invalid JSON argument: %w", err)
			}
			for k, v := range obj {
				if _, exists := params[k]; !exists {
					params[k] = v
				}
			}
			continue
		}

		if !strings.HasPrefix(arg, "--") {
			return nil, fmt.Errorf("unexpected argument: %s (use --key value flags or pass a JSON object)", arg)
		}

		key := strings.TrimPrefix(arg, "--")
		var rawValue string
		if flagKey, inline, found := strings.Cut(key, "="); found {
			key, rawValue = flagKey, inline
		} else {
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("flag --%s requires a value", key)
			}
			rawValue = args[i]
		}

		paramName := strings.ReplaceAll(key, "-", "_")
		params[paramName] = coerceValue(rawValue, types[paramName])
	}

	return params, nil
}

// paramTypes extracts parameter JSON Schema types from the tool definition.
func paramTypes(def mcp.Tool) map[string]string {
	types := make(map[string]string, len(def.InputSchema.Properties))
	for name, prop := range def.InputSchema.Properties {
		if propMap, ok := prop.(map[string]any); ok {
			if t, ok := propMap["type"].(string); ok {
				types[name] = t
			}
		}
	}
	return types
}

// coerceValue converts a raw flag value to the Go type the schema asks for.
func coerceValue(raw, schemaType string) any {
	switch schemaType {
	case "number", "integer":
		var i int64
		if _, err := fmt.Sscanf(raw, "%d", &i); err == nil && fmt.Sprintf("%d", i) == raw {
			return i
		}
		return raw
	case "array":
		var arr []any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			return arr
		}
		// Comma-separated fallback
		return strings.Split(raw, ",")
	case "object":
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err == nil {
			return obj
		}
		return raw
	default:
		return raw
	}
}

// renderResult formats a CallToolResult for terminal output.
func (r *Runner) renderResult(result *mcp.CallToolResult) error {
	if result == nil {
		return nil
	}

	if r.output == OutputJSON {
		return writeJSON(os.Stdout, result)
	}

	for _, content := range result.Content {
		switch c := content.(type) {
		case mcp.TextContent:
			fmt.Fprintln(os.Stdout, c.Text)
		default:
			data, err := json.MarshalIndent(c, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stdout, "%+v\n", c)
			} else {
				fmt.Fprintln(os.Stdout, string(data))
			}
		}
	}

	if result.IsError {
		return fmt.Errorf("tool returned an error")
	}
	return nil
}

// resolveToolName accepts kebab-case names from the shell and resolves them
// to the snake_case names tools register under.
func resolveToolName(name string) string {
	if _, ok := registry.GetTool(name); ok {
		return name
	}
	return strings.ReplaceAll(name, "-", "_")
}

func writeJSON(w *os.File, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstLine(s string) string {
	if before, _, found := strings.Cut(s, "\n"); found {
		return before
	}
	return s
}

package pricing

import (
	"github.com/ratiohq/mcp-aws-pricing/internal/pricelist"
)

// requiredStringArg extracts a non-empty string argument.
func requiredStringArg(args map[string]any, name string) (string, error) {
	value, ok := args[name].(string)
	if !ok || value == "" {
		return "", pricelist.NewInvalidArgument("missing required parameter: %s", name)
	}
	return value, nil
}

// stringSliceArg extracts an optional array-of-strings argument. MCP clients
// deliver arrays as []any; the direct CLI path may deliver []string.
func stringSliceArg(args map[string]any, name string) ([]string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}

	switch typed := raw.(type) {
	case []string:
		return typed, nil
	case []any:
		values := make([]string, 0, len(typed))
		for i, item := range typed {
			s, ok := item.(string)
			if !ok {
				return nil, pricelist.NewInvalidArgument("%s[%d] must be a string, got %T", name, i, item)
			}
			values = append(values, s)
		}
		return values, nil
	default:
		return nil, pricelist.NewInvalidArgument("%s must be an array of strings, got %T", name, raw)
	}
}

// stringMapArg extracts an optional string-to-string object argument.
func stringMapArg(args map[string]any, name string) (map[string]string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}

	switch typed := raw.(type) {
	case map[string]string:
		return typed, nil
	case map[string]any:
		values := make(map[string]string, len(typed))
		for key, item := range typed {
			s, ok := item.(string)
			if !ok {
				return nil, pricelist.NewInvalidArgument("%s.%s must be a string value, got %T", name, key, item)
			}
			values[key] = s
		}
		return values, nil
	default:
		return nil, pricelist.NewInvalidArgument("%s must be an object of string values, got %T", name, raw)
	}
}

// intArg extracts an optional numeric argument. JSON numbers decode as
// float64; the CLI path produces int64.
func intArg(args map[string]any, name string, defaultValue int) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return defaultValue, nil
	}

	switch typed := raw.(type) {
	case float64:
		if typed != float64(int(typed)) {
			return 0, pricelist.NewInvalidArgument("%s must be an integer, got %v", name, typed)
		}
		return int(typed), nil
	case int64:
		return int(typed), nil
	case int:
		return typed, nil
	default:
		return 0, pricelist.NewInvalidArgument("%s must be a number, got %T", name, raw)
	}
}

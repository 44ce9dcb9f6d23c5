package cli

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefinition() mcp.Tool {
	return mcp.NewTool(
		"aws_pricing",
		mcp.WithString("service_code", mcp.Required()),
		mcp.WithArray("regions"),
		mcp.WithObject("filters"),
		mcp.WithNumber("max_records"),
	)
}

func TestParseArgsFlags(t *testing.T) {
	params, err := parseArgs([]string{
		"--service-code", "AmazonEC2",
		"--max-records", "25",
		"--regions", "us-east-1,eu-west-1",
	}, testDefinition())
	require.NoError(t, err)

	assert.Equal(t, "AmazonEC2", params["service_code"])
	assert.Equal(t, int64(25), params["max_records"])
	assert.Equal(t, []string{"us-east-1", "eu-west-1"}, params["regions"])
}

func TestParseArgsEqualsForm(t *testing.T) {
	params, err := parseArgs([]string{"--service-code=AmazonS3"}, testDefinition())
	require.NoError(t, err)
	assert.Equal(t, "AmazonS3", params["service_code"])
}

func TestParseArgsJSONObject(t *testing.T) {
	params, err := parseArgs([]string{
		`{"service_code": "AmazonRDS", "filters": {"database_engine": "MySQL"}}`,
	}, testDefinition())
	require.NoError(t, err)

	assert.Equal(t, "AmazonRDS", params["service_code"])
	assert.Equal(t, map[string]any{"database_engine": "MySQL"}, params["filters"])
}

func TestParseArgsFlagsWinOverJSON(t *testing.T) {
	params, err := parseArgs([]string{
		"--service-code", "AmazonEC2",
		`{"service_code": "AmazonS3", "max_records": 10}`,
	}, testDefinition())
	require.NoError(t, err)

	assert.Equal(t, "AmazonEC2", params["service_code"])
	assert.Equal(t, float64(10), params["max_records"])
}

func TestParseArgsErrors(t *testing.T) {
	_, err := parseArgs([]string{"--service-code"}, testDefinition())
	assert.Error(t, err)

	_, err = parseArgs([]string{"positional"}, testDefinition())
	assert.Error(t, err)

	_, err = parseArgs([]string{"{bad json"}, testDefinition())
	assert.Error(t, err)
}

func TestCoerceValue(t *testing.T) {
	assert.Equal(t, int64(42), coerceValue("42", "number"))
	assert.Equal(t, "4x", coerceValue("4x", "number"))
	assert.Equal(t, []any{"a", "b"}, coerceValue(`["a","b"]`, "array"))
	assert.Equal(t, []string{"a", "b"}, coerceValue("a,b", "array"))
	assert.Equal(t, map[string]any{"k": "v"}, coerceValue(`{"k":"v"}`, "object"))
	assert.Equal(t, "plain", coerceValue("plain", ""))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "first", firstLine("first\nsecond"))
	assert.Equal(t, "only", firstLine("only"))
}

package pricing

import (
	"context"
	"sync"
	"testing"

	"github.com/ratiohq/mcp-aws-pricing/internal/pricelist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeValuesToolDefinition(t *testing.T) {
	tool := &AttributeValuesTool{}
	def := tool.Definition()

	assert.Equal(t, "aws_pricing_attribute_values", def.Name)
	assert.ElementsMatch(t, []string{"service_code", "attribute_name"}, def.InputSchema.Required)
}

func TestAttributeValuesExecute(t *testing.T) {
	api := &fakeAPI{
		attributeValues: map[string][]string{
			"instanceType": {"m5.large", "m5.xlarge"},
		},
	}
	tool := NewAttributeValuesToolWithClient(testClient(api))

	result, err := tool.Execute(context.Background(), testLogger(), &sync.Map{}, map[string]any{
		"service_code":   "AmazonEC2",
		"attribute_name": "instance_type",
	})
	require.NoError(t, err)

	response := parseResponse(t, result)
	assert.Equal(t, "AmazonEC2", response["service_code"])
	// Friendly name resolved to the native attribute name.
	assert.Equal(t, "instanceType", response["attribute_name"])
	assert.Equal(t, float64(2), response["value_count"])
	assert.Equal(t, []any{"m5.large", "m5.xlarge"}, response["values"])
}

func TestAttributeValuesExecuteNoMatches(t *testing.T) {
	tool := NewAttributeValuesToolWithClient(testClient(&fakeAPI{}))

	result, err := tool.Execute(context.Background(), testLogger(), &sync.Map{}, map[string]any{
		"service_code":   "AmazonEC2",
		"attribute_name": "instanceType",
	})
	require.NoError(t, err)

	response := parseResponse(t, result)
	assert.Equal(t, float64(0), response["value_count"])
	assert.Equal(t, []any{}, response["values"])
}

func TestAttributeValuesExecuteMissingArgs(t *testing.T) {
	tool := NewAttributeValuesToolWithClient(testClient(&fakeAPI{}))

	_, err := tool.Execute(context.Background(), testLogger(), &sync.Map{}, map[string]any{
		"service_code": "AmazonEC2",
	})
	require.Error(t, err)
	assert.True(t, pricelist.IsInvalidArgument(err))
}

package pricing

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ratiohq/mcp-aws-pricing/internal/pricelist"
	"github.com/sirupsen/logrus"
)

// AttributeValuesTool lists the valid values of a filterable attribute, so
// callers can construct filters that actually match catalog entries.
type AttributeValuesTool struct {
	mu     sync.Mutex
	client *pricelist.Client
}

// NewAttributeValuesToolWithClient builds the tool around an existing client.
func NewAttributeValuesToolWithClient(client *pricelist.Client) *AttributeValuesTool {
	return &AttributeValuesTool{client: client}
}

// Definition returns the tool's definition for MCP registration
func (t *AttributeValuesTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"aws_pricing_attribute_values",
		mcp.WithDescription("List the valid values of a filterable attribute for an AWS service (e.g. all instanceType values for AmazonEC2). Friendly snake_case attribute names are translated like aws_pricing filters."),
		mcp.WithString("service_code",
			mcp.Required(),
			mcp.Description("AWS service code (e.g. 'AmazonEC2')"),
		),
		mcp.WithString("attribute_name",
			mcp.Required(),
			mcp.Description("Attribute to enumerate, friendly or native name (e.g. 'instance_type' or 'instanceType')"),
		),
	)
}

// Execute lists attribute values for the requested service attribute
func (t *AttributeValuesTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	serviceCode, err := requiredStringArg(args, "service_code")
	if err != nil {
		return nil, err
	}

	attributeName, err := requiredStringArg(args, "attribute_name")
	if err != nil {
		return nil, err
	}

	client, err := t.pricingClient(ctx, logger)
	if err != nil {
		return nil, err
	}

	values, err := client.AttributeValues(ctx, serviceCode, attributeName)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}

	resolvedName := attributeName
	if apiName, ok := pricelist.FriendlyFilterName(attributeName); ok {
		resolvedName = apiName
	}

	response := map[string]any{
		"service_code":   serviceCode,
		"attribute_name": resolvedName,
		"values":         values,
		"value_count":    len(values),
	}

	return newToolResultJSON(response)
}

func (t *AttributeValuesTool) pricingClient(ctx context.Context, logger *logrus.Logger) (*pricelist.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		client, err := pricelist.New(ctx, logger)
		if err != nil {
			return nil, err
		}
		t.client = client
	}
	return t.client, nil
}

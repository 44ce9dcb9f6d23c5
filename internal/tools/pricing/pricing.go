// Package pricing implements the AWS pricing agent tools: the pricing query
// itself plus the catalog lookups callers use to build valid filters.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ratiohq/mcp-aws-pricing/internal/config"
	"github.com/ratiohq/mcp-aws-pricing/internal/pricelist"
	"github.com/ratiohq/mcp-aws-pricing/internal/registry"
	"github.com/ratiohq/mcp-aws-pricing/internal/tools"
	"github.com/sirupsen/logrus"
)

// QueryTool implements the pricing query: it validates arguments, queries the
// Price List API per region, writes the result file, and returns the summary
// response.
type QueryTool struct {
	mu     sync.Mutex
	client *pricelist.Client
}

// init registers the pricing tools with the registry
func init() {
	registry.Register(&QueryTool{})
	registry.Register(&ServiceCodesTool{})
	registry.Register(&AttributeValuesTool{})
}

// NewQueryToolWithClient builds a QueryTool around an existing client. Tests
// inject fakes through here.
func NewQueryToolWithClient(client *pricelist.Client) *QueryTool {
	return &QueryTool{client: client}
}

// Definition returns the tool's definition for MCP registration
func (t *QueryTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"aws_pricing",
		mcp.WithDescription("Query the AWS Price List API for service pricing. Filters accept friendly snake_case names (e.g. 'instance_type') which are translated to the API's native attribute names. Results are written to a JSON result file and returned with a summary."),
		mcp.WithString("service_code",
			mcp.Required(),
			mcp.Description("AWS service code to query (e.g. 'AmazonEC2', 'AmazonRDS', 'AmazonS3')"),
		),
		mcp.WithArray("regions",
			mcp.Description("Region codes to query (default: [\"us-east-1\"])"),
			mcp.Items(map[string]any{
				"type": "string",
			}),
		),
		mcp.WithObject("filters",
			mcp.Description("Attribute filters as string key/value pairs; friendly names like 'instance_type' or 'operating_system' are translated automatically"),
		),
		mcp.WithNumber("max_records",
			mcp.Description("Maximum records to return across all regions (1-100, default: 50)"),
		),
		mcp.WithString("result_file_path",
			mcp.Description("Where to write the result file (Optional; generated under the working directory if omitted)"),
		),
	)
}

// Execute executes the pricing query
func (t *QueryTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	serviceCode, err := requiredStringArg(args, "service_code")
	if err != nil {
		return nil, err
	}

	regions, err := stringSliceArg(args, "regions")
	if err != nil {
		return nil, err
	}

	filters, err := stringMapArg(args, "filters")
	if err != nil {
		return nil, err
	}

	maxRecords, err := intArg(args, "max_records", pricelist.DefaultMaxRecords)
	if err != nil {
		return nil, err
	}

	resultFilePath, _ := args["result_file_path"].(string)

	logger.WithFields(logrus.Fields{
		"service_code": serviceCode,
		"regions":      regions,
		"max_records":  maxRecords,
	}).Info("Executing pricing query")

	emitter := tools.GetGlobalEmitter()
	emitter.Emit(tools.ExecutionEvent{
		Status:      tools.EventStarted,
		Tool:        "aws_pricing",
		ServiceCode: serviceCode,
		Regions:     regions,
	})

	client, err := t.pricingClient(ctx, logger)
	if err != nil {
		emitFailure(emitter, serviceCode, regions, err)
		return nil, err
	}

	result, err := client.Query(ctx, pricelist.QueryRequest{
		ServiceCode:   serviceCode,
		Regions:       regions,
		Filters:       filters,
		FilterAliases: config.Load().FilterAliases,
		MaxRecords:    maxRecords,
	})
	if err != nil {
		emitFailure(emitter, serviceCode, regions, err)
		return nil, err
	}

	if resultFilePath == "" {
		resultFilePath, err = defaultResultFilePath(serviceCode)
		if err != nil {
			emitFailure(emitter, serviceCode, regions, err)
			return nil, err
		}
	}

	doc := &resultDocument{
		ServiceCode:    result.ServiceCode,
		RegionsQueried: result.RegionsQueried,
		FiltersApplied: result.FiltersApplied,
		RecordCount:    len(result.Records),
		PricingRecords: result.Records,
	}

	if err := writeResultFile(resultFilePath, doc); err != nil {
		emitFailure(emitter, serviceCode, regions, err)
		return nil, err
	}

	emitter.Emit(tools.ExecutionEvent{
		Status:      tools.EventSucceeded,
		Tool:        "aws_pricing",
		ServiceCode: serviceCode,
		Regions:     result.RegionsQueried,
		RecordCount: len(result.Records),
		ResultFile:  resultFilePath,
	})

	response := map[string]any{
		"pricing_records":  result.Records,
		"result_file_path": resultFilePath,
		"service_code":     result.ServiceCode,
		"regions_queried":  result.RegionsQueried,
		"record_count":     len(result.Records),
		"filters_applied":  result.FiltersApplied,
	}

	return newToolResultJSON(response)
}

// pricingClient returns the shared Price List client, constructing it on
// first use so credential loading happens inside the tool call's context.
func (t *QueryTool) pricingClient(ctx context.Context, logger *logrus.Logger) (*pricelist.Client, error) {
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

func emitFailure(emitter *tools.ExecutionEmitter, serviceCode string, regions []string, err error) {
	emitter.Emit(tools.ExecutionEvent{
		Status:      tools.EventFailed,
		Tool:        "aws_pricing",
		ServiceCode: serviceCode,
		Regions:     regions,
		Error:       err.Error(),
	})
}

// ProvideExtendedInfo implements the ExtendedHelpProvider interface
func (t *QueryTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description: "Price an EC2 instance type in one region",
				Arguments: map[string]any{
					"service_code": "AmazonEC2",
					"regions":      []string{"us-east-1"},
					"filters":      map[string]string{"instance_type": "m5.large", "operating_system": "Linux"},
					"max_records":  10,
				},
				ExpectedResult: "Up to 10 pricing records for m5.large Linux instances, plus the path of the result file",
			},
			{
				Description: "Compare S3 storage pricing across regions",
				Arguments: map[string]any{
					"service_code": "AmazonS3",
					"regions":      []string{"us-east-1", "eu-west-1"},
					"filters":      map[string]string{"storage_class": "General Purpose"},
				},
				ExpectedResult: "Records for both regions concatenated in request order, capped at 50 overall",
			},
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "Query returns zero records for a known service",
				Solution: "Filter values must match the catalog exactly; use aws_pricing_attribute_values to list valid values for an attribute",
			},
			{
				Problem:  "Error about an unknown region",
				Solution: "Only region codes with a Price List location mapping are supported; check the region code spelling",
			},
		},
		ParameterDetails: map[string]string{
			"service_code": "Required - find valid codes with aws_pricing_service_codes",
			"filters":      "Keys may be friendly snake_case names or native attribute names; unrecognised keys are passed to the API unchanged",
			"max_records":  "Global cap across all requested regions, applied after concatenation in region order",
		},
		WhenToUse:    "Use when you need current AWS list pricing for a service, optionally narrowed by attribute filters",
		WhenNotToUse: "Don't use for account-specific billing, negotiated discounts, or Spot prices - the Price List API only carries list prices",
	}
}

// newToolResultJSON marshals a response into a text tool result
func newToolResultJSON(response map[string]any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

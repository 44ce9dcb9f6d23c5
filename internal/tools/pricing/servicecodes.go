package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ratiohq/mcp-aws-pricing/internal/pricelist"
	"github.com/sirupsen/logrus"
)

// catalogCacheTTL bounds how long DescribeServices results are reused. The
// catalog changes rarely and the full listing is a slow, paginated call.
const catalogCacheTTL = 24 * time.Hour

type catalogCacheEntry struct {
	entries   []pricelist.ServiceEntry
	expiresAt time.Time
}

// ServiceCodesTool lists the billable service catalog so callers can find
// valid service codes and their filterable attributes.
type ServiceCodesTool struct {
	mu     sync.Mutex
	client *pricelist.Client
}

// NewServiceCodesToolWithClient builds the tool around an existing client.
func NewServiceCodesToolWithClient(client *pricelist.Client) *ServiceCodesTool {
	return &ServiceCodesTool{client: client}
}

// Definition returns the tool's definition for MCP registration
func (t *ServiceCodesTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"aws_pricing_service_codes",
		mcp.WithDescription("List AWS billable service codes and their filterable attribute names from the Price List catalog. Use before aws_pricing to discover valid service codes and filter fields."),
		mcp.WithString("service_code",
			mcp.Description("Narrow the listing to a single service code (Optional)"),
		),
	)
}

// Execute lists the service catalog, serving from the shared cache when fresh
func (t *ServiceCodesTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	serviceCode, _ := args["service_code"].(string)

	cacheKey := "aws_pricing:service_codes:" + serviceCode
	if cached, ok := cache.Load(cacheKey); ok {
		if entry, ok := cached.(catalogCacheEntry); ok && time.Now().Before(entry.expiresAt) {
			logger.WithField("service_code", serviceCode).Debug("Serving service catalog from cache")
			return serviceCatalogResponse(serviceCode, entry.entries)
		}
	}

	client, err := t.pricingClient(ctx, logger)
	if err != nil {
		return nil, err
	}

	entries, err := client.ServiceCodes(ctx, serviceCode)
	if err != nil {
		return nil, err
	}

	cache.Store(cacheKey, catalogCacheEntry{
		entries:   entries,
		expiresAt: time.Now().Add(catalogCacheTTL),
	})

	return serviceCatalogResponse(serviceCode, entries)
}

func serviceCatalogResponse(serviceCode string, entries []pricelist.ServiceEntry) (*mcp.CallToolResult, error) {
	if entries == nil {
		entries = []pricelist.ServiceEntry{}
	}
	response := map[string]any{
		"services":      entries,
		"service_count": len(entries),
	}
	if serviceCode != "" {
		response["service_code"] = serviceCode
	}
	return newToolResultJSON(response)
}

func (t *ServiceCodesTool) pricingClient(ctx context.Context, logger *logrus.Logger) (*pricelist.Client, error) {
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

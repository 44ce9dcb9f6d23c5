package pricing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/ratiohq/mcp-aws-pricing/internal/pricelist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCodesToolDefinition(t *testing.T) {
	tool := &ServiceCodesTool{}
	def := tool.Definition()

	assert.Equal(t, "aws_pricing_service_codes", def.Name)
	assert.Empty(t, def.InputSchema.Required)
	assert.Contains(t, def.InputSchema.Properties, "service_code")
}

func TestServiceCodesExecute(t *testing.T) {
	api := &fakeAPI{
		services: []types.Service{
			{ServiceCode: aws.String("AmazonEC2"), AttributeNames: []string{"instanceType"}},
			{ServiceCode: aws.String("AmazonS3"), AttributeNames: []string{"storageClass"}},
		},
	}
	tool := NewServiceCodesToolWithClient(testClient(api))

	result, err := tool.Execute(context.Background(), testLogger(), &sync.Map{}, map[string]any{})
	require.NoError(t, err)

	response := parseResponse(t, result)
	assert.Equal(t, float64(2), response["service_count"])

	services, ok := response["services"].([]any)
	require.True(t, ok)
	require.Len(t, services, 2)

	first := services[0].(map[string]any)
	assert.Equal(t, "AmazonEC2", first["service_code"])
	assert.Equal(t, []any{"instanceType"}, first["attribute_names"])
}

func TestServiceCodesExecuteUsesCache(t *testing.T) {
	api := &fakeAPI{
		services: []types.Service{
			{ServiceCode: aws.String("AmazonEC2")},
		},
	}
	tool := NewServiceCodesToolWithClient(testClient(api))
	cache := &sync.Map{}

	_, err := tool.Execute(context.Background(), testLogger(), cache, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 1, api.describeCalls)

	_, err = tool.Execute(context.Background(), testLogger(), cache, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 1, api.describeCalls, "second call should be served from cache")
}

func TestServiceCodesExecuteExpiredCacheRefetches(t *testing.T) {
	api := &fakeAPI{
		services: []types.Service{
			{ServiceCode: aws.String("AmazonEC2")},
		},
	}
	tool := NewServiceCodesToolWithClient(testClient(api))

	cache := &sync.Map{}
	cache.Store("aws_pricing:service_codes:", catalogCacheEntry{
		entries:   []pricelist.ServiceEntry{{ServiceCode: "stale"}},
		expiresAt: time.Now().Add(-time.Minute),
	})

	result, err := tool.Execute(context.Background(), testLogger(), cache, map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, 1, api.describeCalls)
	response := parseResponse(t, result)
	services := response["services"].([]any)
	require.Len(t, services, 1)
	assert.Equal(t, "AmazonEC2", services[0].(map[string]any)["service_code"])
}

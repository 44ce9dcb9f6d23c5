// Package pricelist wraps the AWS Price List API (the pricing service) behind
// a small client that understands friendly filter names, region codes, and
// the record cap applied across multi-region queries.
package pricelist

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// MaxRecordsLimit is the hard cap on records per invocation. It matches
	// the API's per-page maximum, so a capped query never needs more pages
	// than records.
	MaxRecordsLimit = 100

	// DefaultMaxRecords is used when the caller does not ask for a cap.
	DefaultMaxRecords = 50

	// The Price List API is only served from us-east-1 and ap-south-1,
	// regardless of which region's prices are being queried.
	defaultEndpointRegion = "us-east-1"

	// Conservative client-side throttle; the API's rate limits are shared
	// account-wide.
	requestsPerSecond = 8
)

// API is the subset of the pricing service client this package uses. The
// SDK's generated paginator client interfaces compose to exactly the three
// operations the agent's IAM policy grants.
type API interface {
	pricing.GetProductsAPIClient
	pricing.DescribeServicesAPIClient
	pricing.GetAttributeValuesAPIClient
}

// Record is a single pricing record as returned by the API: an opaque JSON
// document, decoded but not otherwise modelled.
type Record map[string]any

// QueryRequest describes one pricing query.
type QueryRequest struct {
	ServiceCode string
	Regions     []string
	Filters     map[string]string
	// FilterAliases extends the builtin friendly-name table; loaded from
	// user configuration by the caller.
	FilterAliases map[string]string
	MaxRecords    int
}

// QueryResult is the outcome of a successful query.
type QueryResult struct {
	ServiceCode    string
	RegionsQueried []string
	FiltersApplied map[string]string
	Records        []Record
}

// ServiceEntry describes one billable service from the catalog.
type ServiceEntry struct {
	ServiceCode    string   `json:"service_code"`
	AttributeNames []string `json:"attribute_names"`
}

// Option customises client construction.
type Option func(*options)

type options struct {
	profile string
	region  string
}

// WithProfile sets the shared config profile. Defaults to the AWS_PROFILE/env
// chain.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithEndpointRegion overrides the Price List endpoint region. Only us-east-1
// and ap-south-1 serve the API.
func WithEndpointRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// Client issues Price List API calls with client-side rate limiting.
type Client struct {
	api     API
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// New loads AWS configuration from the default chain (env, shared config,
// IMDS) and returns a client pinned to a Price List endpoint region.
func New(ctx context.Context, logger *logrus.Logger, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	region := o.region
	if region == "" {
		region = defaultEndpointRegion
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, &UpstreamError{Op: "config load", Err: err}
	}

	return NewWithAPI(pricing.NewFromConfig(cfg), logger), nil
}

// NewWithAPI wraps an existing pricing API implementation. Tests inject fakes
// through here.
func NewWithAPI(api API, logger *logrus.Logger) *Client {
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger,
	}
}

// Query runs the pricing query: validates the cap, normalises filters,
// resolves regions to locations, then pages through GetProducts per region in
// input order until the global cap is reached. Records are tagged with the
// location they were queried under.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	if req.ServiceCode == "" {
		return nil, NewInvalidArgument("service_code is required")
	}
	if req.MaxRecords < 1 || req.MaxRecords > MaxRecordsLimit {
		return nil, NewInvalidArgument("max_records must be between 1 and %d, got %d", MaxRecordsLimit, req.MaxRecords)
	}

	regions := req.Regions
	if len(regions) == 0 {
		regions = []string{"us-east-1"}
	}

	locations, err := locationsForRegions(regions)
	if err != nil {
		return nil, err
	}

	applied := NormalizeFilters(req.Filters, req.FilterAliases)

	// Single-region queries carry the location in filters_applied so the
	// response documents the effective query.
	if len(locations) == 1 {
		applied["location"] = locations[0]
	}

	records := make([]Record, 0, req.MaxRecords)
	for _, location := range locations {
		if len(records) >= req.MaxRecords {
			break
		}

		regionRecords, err := c.queryLocation(ctx, req.ServiceCode, applied, location, req.MaxRecords-len(records))
		if err != nil {
			return nil, err
		}
		records = append(records, regionRecords...)

		c.logger.WithFields(logrus.Fields{
			"service_code": req.ServiceCode,
			"location":     location,
			"records":      len(regionRecords),
		}).Debug("Fetched pricing records")
	}

	return &QueryResult{
		ServiceCode:    req.ServiceCode,
		RegionsQueried: regions,
		FiltersApplied: applied,
		Records:        records,
	}, nil
}

// queryLocation pages through GetProducts for one location, stopping at
// remaining records.
func (c *Client) queryLocation(ctx context.Context, serviceCode string, filters map[string]string, location string, remaining int) ([]Record, error) {
	apiFilters := make([]types.Filter, 0, len(filters)+1)
	for field, value := range filters {
		if field == "location" {
			continue // set explicitly below
		}
		apiFilters = append(apiFilters, types.Filter{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String(field),
			Value: aws.String(value),
		})
	}
	apiFilters = append(apiFilters, types.Filter{
		Type:  types.FilterTypeTermMatch,
		Field: aws.String("location"),
		Value: aws.String(location),
	})

	input := &pricing.GetProductsInput{
		ServiceCode: aws.String(serviceCode),
		Filters:     apiFilters,
		MaxResults:  aws.Int32(int32(remaining)),
	}

	var records []Record
	paginator := pricing.NewGetProductsPaginator(c.api, input)
	for paginator.HasMorePages() && len(records) < remaining {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &UpstreamError{Op: "GetProducts", Err: err}
		}

		for _, priceJSON := range page.PriceList {
			if len(records) >= remaining {
				break
			}

			var record Record
			if err := json.Unmarshal([]byte(priceJSON), &record); err != nil {
				c.logger.WithError(err).Warn("Skipping unparseable pricing record")
				continue
			}
			record["queryRegion"] = location
			records = append(records, record)
		}
	}

	return records, nil
}

// ServiceCodes lists the billable service catalog. Passing a service code
// narrows the listing to that service; an empty string lists everything.
func (c *Client) ServiceCodes(ctx context.Context, serviceCode string) ([]ServiceEntry, error) {
	input := &pricing.DescribeServicesInput{
		MaxResults: aws.Int32(100),
	}
	if serviceCode != "" {
		input.ServiceCode = aws.String(serviceCode)
	}

	var entries []ServiceEntry
	paginator := pricing.NewDescribeServicesPaginator(c.api, input)
	for paginator.HasMorePages() {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &UpstreamError{Op: "DescribeServices", Err: err}
		}

		for _, svc := range page.Services {
			entries = append(entries, ServiceEntry{
				ServiceCode:    aws.ToString(svc.ServiceCode),
				AttributeNames: svc.AttributeNames,
			})
		}
	}

	return entries, nil
}

// AttributeValues lists the valid values of one filterable attribute for a
// service. The attribute name goes through the same friendly-name table as
// query filters.
func (c *Client) AttributeValues(ctx context.Context, serviceCode, attributeName string) ([]string, error) {
	if serviceCode == "" {
		return nil, NewInvalidArgument("service_code is required")
	}
	if attributeName == "" {
		return nil, NewInvalidArgument("attribute_name is required")
	}

	if apiName, ok := FriendlyFilterName(attributeName); ok {
		attributeName = apiName
	}

	input := &pricing.GetAttributeValuesInput{
		ServiceCode:   aws.String(serviceCode),
		AttributeName: aws.String(attributeName),
		MaxResults:    aws.Int32(100),
	}

	var values []string
	paginator := pricing.NewGetAttributeValuesPaginator(c.api, input)
	for paginator.HasMorePages() {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &UpstreamError{Op: "GetAttributeValues", Err: err}
		}

		for _, av := range page.AttributeValues {
			values = append(values, aws.ToString(av.Value))
		}
	}

	return values, nil
}

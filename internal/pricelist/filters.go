package pricelist

// friendlyFilterNames maps the snake_case filter keys this server accepts to
// the camelCase attribute names the Price List API expects. The mapping is a
// static table checked at call time -- keys not present here are passed
// through to the API unchanged, so callers who already know the native
// attribute name are not penalised.
var friendlyFilterNames = map[string]string{
	"service_code":          "ServiceCode",
	"location_type":         "locationType",
	"instance_type":         "instanceType",
	"instance_family":       "instanceFamily",
	"operating_system":      "operatingSystem",
	"capacity_status":       "capacitystatus",
	"pre_installed_sw":      "preInstalledSw",
	"license_model":         "licenseModel",
	"usage_type":            "usagetype",
	"product_family":        "productFamily",
	"volume_type":           "volumeType",
	"volume_api_name":       "volumeApiName",
	"storage_class":         "storageClass",
	"database_engine":       "databaseEngine",
	"database_edition":      "databaseEdition",
	"deployment_option":     "deploymentOption",
	"cache_engine":          "cacheEngine",
	"memory":                "memory",
	"vcpu":                  "vcpu",
	"tenancy":               "tenancy",
	"term_type":             "termType",
	"purchase_option":       "purchaseOption",
	"offering_class":        "offeringClass",
	"lease_contract_length": "leaseContractLength",
	"group":                 "group",
	"group_description":     "groupDescription",
}

// NormalizeFilters translates friendly filter keys to API attribute names.
// extra holds user-configured aliases, which take precedence over the builtin
// table; unrecognised keys pass through unchanged. The input map is never
// mutated.
func NormalizeFilters(filters map[string]string, extra map[string]string) map[string]string {
	normalized := make(map[string]string, len(filters))
	for key, value := range filters {
		if apiName, ok := extra[key]; ok {
			normalized[apiName] = value
			continue
		}
		if apiName, ok := friendlyFilterNames[key]; ok {
			normalized[apiName] = value
			continue
		}
		normalized[key] = value
	}
	return normalized
}

// FriendlyFilterName reports the API attribute name for a friendly key from
// the builtin table.
func FriendlyFilterName(key string) (string, bool) {
	name, ok := friendlyFilterNames[key]
	return name, ok
}

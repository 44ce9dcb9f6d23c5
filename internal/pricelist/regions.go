package pricelist

// The Price List API does not filter by region code -- it filters by the
// "location" attribute, which uses human-readable display names. This table
// maps the region codes callers actually know to those display names.
var regionLocations = map[string]string{
	"us-east-1":      "US East (N. Virginia)",
	"us-east-2":      "US East (Ohio)",
	"us-west-1":      "US West (N. California)",
	"us-west-2":      "US West (Oregon)",
	"eu-west-1":      "Europe (Ireland)",
	"eu-west-2":      "Europe (London)",
	"eu-west-3":      "Europe (Paris)",
	"eu-central-1":   "Europe (Frankfurt)",
	"eu-north-1":     "Europe (Stockholm)",
	"ap-southeast-1": "Asia Pacific (Singapore)",
	"ap-southeast-2": "Asia Pacific (Sydney)",
	"ap-northeast-1": "Asia Pacific (Tokyo)",
	"ap-northeast-2": "Asia Pacific (Seoul)",
	"ap-south-1":     "Asia Pacific (Mumbai)",
	"ca-central-1":   "Canada (Central)",
	"sa-east-1":      "South America (Sao Paulo)",
}

// LocationForRegion returns the Price List location display name for an AWS
// region code.
func LocationForRegion(region string) (string, bool) {
	location, ok := regionLocations[region]
	return location, ok
}

// locationsForRegions resolves every region code in input order. An unknown
// region code is rejected up front rather than producing a silent empty
// result from the API.
func locationsForRegions(regions []string) ([]string, error) {
	locations := make([]string, 0, len(regions))
	for _, region := range regions {
		location, ok := regionLocations[region]
		if !ok {
			return nil, NewInvalidArgument("unknown region: %s", region)
		}
		locations = append(locations, location)
	}
	return locations, nil
}

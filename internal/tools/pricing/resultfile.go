package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/ratiohq/mcp-aws-pricing/internal/config"
	"github.com/ratiohq/mcp-aws-pricing/internal/pricelist"
)

// resultDocument is the detail document persisted to the result file. It
// carries the same fields as the tool response so the file stands alone.
type resultDocument struct {
	ServiceCode    string             `json:"service_code"`
	RegionsQueried []string           `json:"regions_queried"`
	FiltersApplied map[string]string  `json:"filters_applied"`
	RecordCount    int                `json:"record_count"`
	PricingRecords []pricelist.Record `json:"pricing_records"`
}

// defaultResultFilePath generates a collision-resistant path under the
// working directory.
func defaultResultFilePath(serviceCode string) (string, error) {
	dir, err := config.Load().ResultFileDirectory()
	if err != nil {
		return "", &pricelist.IOError{Path: dir, Err: err}
	}
	return filepath.Join(dir, fmt.Sprintf("aws_pricing_%s_%s.json", serviceCode, uuid.New())), nil
}

// writeResultFile persists the detail document as indented JSON. Any failure
// here is fatal for the invocation.
func writeResultFile(path string, doc *resultDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &pricelist.IOError{Path: path, Err: err}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return &pricelist.IOError{Path: path, Err: err}
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return &pricelist.IOError{Path: path, Err: err}
	}

	return nil
}

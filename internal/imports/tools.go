// Package imports pulls in every tool package for its registration side
// effect.
package imports

import (
	_ "github.com/ratiohq/mcp-aws-pricing/internal/tools/pricing"
)

package registry

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ratiohq/mcp-aws-pricing/internal/tools"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTool struct {
	name string
}

func (m *mockTool) Definition() mcp.Tool {
	return mcp.NewTool(m.name, mcp.WithDescription("mock tool"))
}

func (m *mockTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("ok"), nil
}

func initTestRegistry(t *testing.T) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	Init(logger)

	toolRegistry = make(map[string]tools.Tool)
}

func TestRegisterAndGet(t *testing.T) {
	initTestRegistry(t)

	Register(&mockTool{name: "alpha"})
	Register(&mockTool{name: "beta"})

	tool, ok := GetTool("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", tool.Definition().Name)

	_, ok = GetTool("missing")
	assert.False(t, ok)

	assert.Len(t, GetTools(), 2)
}

func TestGetToolNamesSorted(t *testing.T) {
	initTestRegistry(t)

	Register(&mockTool{name: "zeta"})
	Register(&mockTool{name: "alpha"})
	Register(&mockTool{name: "mid"})

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, GetToolNames())
}

func TestDisabledToolsEnv(t *testing.T) {
	t.Setenv("DISABLED_TOOLS", "beta, gamma")
	initTestRegistry(t)

	Register(&mockTool{name: "alpha"})
	Register(&mockTool{name: "beta"})

	_, ok := GetTool("alpha")
	assert.True(t, ok)

	_, ok = GetTool("beta")
	assert.False(t, ok)

	assert.Equal(t, []string{"alpha"}, GetToolNames())
	assert.NotContains(t, GetTools(), "beta")
}

func TestInitSharedResources(t *testing.T) {
	initTestRegistry(t)

	assert.NotNil(t, GetLogger())
	assert.NotNil(t, GetCache())
}

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/ratiohq/mcp-aws-pricing/internal/cli"
	"github.com/ratiohq/mcp-aws-pricing/internal/registry"
	"github.com/ratiohq/mcp-aws-pricing/internal/tools"
	"github.com/sirupsen/logrus"
	urfavecli "github.com/urfave/cli/v3"

	// Import all tool packages to register them
	_ "github.com/ratiohq/mcp-aws-pricing/internal/imports"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Global resources that need cleanup. Atomic so signal-driven cleanup cannot
// race the main goroutine.
var (
	debugLogFile atomic.Pointer[os.File]
	isStdioMode  atomic.Bool
)

// parseLogLevel parses the LOG_LEVEL environment variable and returns the
// appropriate logrus level. Defaults to WarnLevel if not set or invalid.
func parseLogLevel() logrus.Level {
	logLevelStr := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))

	switch logLevelStr {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.WarnLevel
	}
}

func main() {
	// Create context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Discard output until the transport mode is known -- early logging
	// would corrupt the stdio protocol.
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(parseLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	registry.Init(logger)

	defer performCleanup(logger)

	app := &urfavecli.Command{
		Name:    "mcp-aws-pricing",
		Usage:   "MCP server for AWS Price List queries",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Value:   "stdio",
				Usage:   "Transport type (stdio, sse, or http)",
			},
			&urfavecli.StringFlag{
				Name:  "port",
				Value: "18080",
				Usage: "Port to use for HTTP transports (SSE and Streamable HTTP)",
			},
			&urfavecli.StringFlag{
				Name:  "base-url",
				Value: "http://localhost",
				Usage: "Base URL for HTTP transports",
			},
			&urfavecli.StringFlag{
				Name:    "auth-token",
				Usage:   "Authentication token for Streamable HTTP transport (optional)",
				Sources: urfavecli.EnvVars("MCP_AUTH_TOKEN"),
			},
			&urfavecli.StringFlag{
				Name:  "endpoint-path",
				Value: "/http",
				Usage: "Endpoint path for Streamable HTTP transport",
			},
		},
		Commands: []*urfavecli.Command{
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *urfavecli.Command) error {
					fmt.Printf("mcp-aws-pricing version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
			{
				Name:  "tools",
				Usage: "List the available tools",
				Flags: []urfavecli.Flag{
					&urfavecli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: func(ctx context.Context, cmd *urfavecli.Command) error {
					configureLogging(logger, "cli")
					runner := cli.NewRunner(logger, registry.GetCache(), outputFormat(cmd.Bool("json")))
					return runner.ListTools()
				},
			},
			{
				Name:      "help-tool",
				Usage:     "Show the argument schema for a tool",
				ArgsUsage: "<tool>",
				Flags: []urfavecli.Flag{
					&urfavecli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: func(ctx context.Context, cmd *urfavecli.Command) error {
					if cmd.Args().Len() < 1 {
						return fmt.Errorf("usage: mcp-aws-pricing help-tool <tool>")
					}
					configureLogging(logger, "cli")
					runner := cli.NewRunner(logger, registry.GetCache(), outputFormat(cmd.Bool("json")))
					return runner.HelpTool(cmd.Args().First())
				},
			},
			{
				Name:      "run",
				Usage:     "Run a tool directly without an MCP client",
				ArgsUsage: "<tool> [--flag value ... | JSON]",
				Flags: []urfavecli.Flag{
					&urfavecli.BoolFlag{
						Name:  "json",
						Usage: "Output the full tool result as JSON",
					},
				},
				Action: func(runCtx context.Context, cmd *urfavecli.Command) error {
					if cmd.Args().Len() < 1 {
						return fmt.Errorf("usage: mcp-aws-pricing run <tool> [--flag value ...]")
					}
					configureLogging(logger, "cli")
					if err := tools.InitGlobalEmitter(logger); err != nil {
						logger.WithError(err).Warn("Failed to initialise execution event emitter")
					}
					runner := cli.NewRunner(logger, registry.GetCache(), outputFormat(cmd.Bool("json")))
					return runner.RunTool(runCtx, cmd.Args().First(), cmd.Args().Slice()[1:])
				},
			},
		},
		Action: func(cliCtx context.Context, cmd *urfavecli.Command) error {
			transport := cmd.String("transport")
			port := cmd.String("port")
			baseURL := cmd.String("base-url")

			isStdioMode.Store(transport == "stdio")

			configureLogging(logger, transport)

			if err := tools.InitGlobalEmitter(logger); err != nil {
				logger.WithError(err).Debug("Failed to initialise execution event emitter")
				if transport != "stdio" {
					logger.WithError(err).Warn("Failed to initialise execution event emitter")
				}
			}

			if transport != "stdio" {
				logger.Infof("Starting mcp-aws-pricing version %s (commit: %s, built: %s)",
					Version, Commit, BuildDate)
			}

			logger.Debug("Creating MCP server")
			mcpSrv := mcpserver.NewMCPServer("mcp-aws-pricing", "AWS Price List MCP Server")

			registeredTools := registry.GetTools()
			logger.WithField("tool_count", len(registeredTools)).Debug("MCP server created, registering tools")

			for toolName, toolImpl := range registeredTools {
				name := toolName
				tool := toolImpl

				if transport != "stdio" {
					logger.Infof("Registering tool: %s", name)
				}

				mcpSrv.AddTool(tool.Definition(), func(toolCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
					currentTool, ok := registry.GetTool(name)
					if !ok {
						return nil, fmt.Errorf("tool not found: %s", name)
					}

					args, ok := request.Params.Arguments.(map[string]any)
					if !ok {
						return nil, fmt.Errorf("invalid arguments type: expected map[string]any, got %T", request.Params.Arguments)
					}

					result, err := currentTool.Execute(toolCtx, registry.GetLogger(), registry.GetCache(), args)
					if err != nil {
						if transport != "stdio" {
							logger.WithError(err).Errorf("Tool execution failed: %s", name)
						}
						return nil, fmt.Errorf("tool execution failed: %w", err)
					}

					return result, nil
				})
			}

			logger.WithField("transport", transport).Debug("Starting server")
			switch transport {
			case "stdio":
				return mcpserver.ServeStdio(mcpSrv)
			case "sse":
				logger.WithField("port", port).Debug("Starting SSE server")
				sseServer := mcpserver.NewSSEServer(mcpSrv, mcpserver.WithBaseURL(baseURL+"/sse"))
				return sseServer.Start(":" + port)
			case "http":
				logger.WithField("port", port).Debug("Starting HTTP server")
				return startStreamableHTTPServer(cmd, mcpSrv, logger)
			default:
				return fmt.Errorf("unsupported transport: %s", transport)
			}
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		// In stdio mode nothing may be written to stdout or stderr --
		// it would break the MCP protocol.
		if !isStdioMode.Load() {
			logger.Fatalf("Error: %v", err)
		}
		os.Exit(1)
	}
}

// configureLogging routes all log output to a file so the stdio transport
// stays protocol-clean. If the log file cannot be opened, stdio mode discards
// logs entirely and other modes fall back to stderr.
func configureLogging(logger *logrus.Logger, transport string) {
	logLevel := parseLogLevel()
	if transport == "stdio" && logLevel < logrus.WarnLevel {
		logLevel = logrus.WarnLevel
	}

	fallback := func() {
		if transport == "stdio" {
			logger.SetOutput(io.Discard)
			logrus.SetOutput(io.Discard)
		} else {
			logger.SetOutput(os.Stderr)
			logrus.SetOutput(os.Stderr)
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fallback()
	} else {
		logDir := filepath.Join(homeDir, ".mcp-aws-pricing", "logs")
		if err := os.MkdirAll(logDir, 0700); err != nil {
			fallback()
		} else {
			logFile := filepath.Join(logDir, "mcp-aws-pricing.log")
			file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
			if err != nil {
				fallback()
			} else {
				debugLogFile.Store(file)
				logger.SetOutput(file)
				logrus.SetOutput(file)
			}
		}
	}

	logger.SetLevel(logLevel)
	logrus.SetLevel(logLevel)
	logger.WithField("level", logLevel.String()).Debug("Logging configured")
}

// performCleanup handles cleanup of resources on shutdown
func performCleanup(logger *logrus.Logger) {
	// Close silently -- in stdio mode no output is allowed and in other
	// modes the logger may be writing to this very file.
	if file := debugLogFile.Load(); file != nil {
		_ = file.Close()
	}

	if emitter := tools.GetGlobalEmitter(); emitter != nil {
		if err := emitter.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close execution event emitter")
		}
	}
}

func outputFormat(asJSON bool) cli.OutputFormat {
	if asJSON {
		return cli.OutputJSON
	}
	return cli.OutputText
}

// startStreamableHTTPServer configures and starts the Streamable HTTP server
func startStreamableHTTPServer(cmd *urfavecli.Command, mcpServer *mcpserver.MCPServer, logger *logrus.Logger) error {
	port := cmd.String("port")
	authToken := cmd.String("auth-token")
	endpointPath := cmd.String("endpoint-path")

	logger.Infof("Starting Streamable HTTP server on port %s with endpoint %s", port, endpointPath)

	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(endpointPath),
		mcpserver.WithHeartbeatInterval(30 * time.Second),
		mcpserver.WithLogger(&logrusAdapter{logger: logger}),
	}

	if authToken != "" {
		opts = append(opts, mcpserver.WithHTTPContextFunc(createAuthMiddleware(authToken, logger)))
		logger.Info("Token authentication enabled")
	}

	httpServer := mcpserver.NewStreamableHTTPServer(mcpServer, opts...)
	return httpServer.Start(":" + port)
}

// createAuthMiddleware creates an HTTP context function for token authentication
func createAuthMiddleware(expectedToken string, logger *logrus.Logger) mcpserver.HTTPContextFunc {
	return func(ctx context.Context, req *http.Request) context.Context {
		authHeader := req.Header.Get("Authorization")
		if authHeader == "" {
			logger.Warn("Request missing Authorization header")
			return ctx
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			logger.Warn("Invalid authorization format, expected Bearer token")
			return ctx
		}

		if strings.TrimPrefix(authHeader, bearerPrefix) != expectedToken {
			logger.Warn("Invalid authentication token")
			return ctx
		}

		logger.Debug("Request authenticated successfully")
		return ctx
	}
}

// logrusAdapter adapts logrus.Logger to the mcp-go util.Logger interface
type logrusAdapter struct {
	logger *logrus.Logger
}

func (l *logrusAdapter) Debugf(format string, args ...any) {
	l.logger.Debugf(format, args...)
}

func (l *logrusAdapter) Infof(format string, args ...any) {
	l.logger.Infof(format, args...)
}

func (l *logrusAdapter) Warnf(format string, args ...any) {
	l.logger.Warnf(format, args...)
}

func (l *logrusAdapter) Errorf(format string, args ...any) {
	l.logger.Errorf(format, args...)
}

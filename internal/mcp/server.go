package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/habitual/internal/habit"
	"github.com/btouchard/habitual/internal/mcp/handlers"
)

// Deps holds shared dependencies injected into MCP handlers.
type Deps struct {
	Habits        *habit.Manager
	Events        handlers.EventReader
	Metrics       handlers.MutationRecorder // may be nil
	DefaultWindow int
	Version       string
}

// NewServer creates and configures the MCP server with all tools registered.
func NewServer(deps *Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"Habitual",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	registerTools(s, deps)

	return s
}

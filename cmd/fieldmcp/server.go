// Package main implements fieldmcp, an MCP tool server exposing the
// compose/invert/rebase/delta operators over HTTP, mirroring the
// teacher's server/mcp server+tools split.
package main

import (
	"fmt"
	"log"

	"github.com/kasuganosora/seqfield/pkg/compose"
	"github.com/kasuganosora/seqfield/pkg/invert"
	"github.com/kasuganosora/seqfield/pkg/rebase"
	"github.com/kasuganosora/seqfield/pkg/seqconfig"
	"github.com/kasuganosora/seqfield/pkg/telemetry"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP tool registrations for the change algebra.
type Server struct {
	cfg *seqconfig.Config
}

// NewServer builds a Server from cfg, wiring the operator packages'
// logger and tracer the same way cmd/fieldctl does.
func NewServer(cfg *seqconfig.Config) (*Server, error) {
	logger, err := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("fieldmcp: building logger: %w", err)
	}
	compose.SetLogger(logger)
	invert.SetLogger(logger)
	rebase.SetLogger(logger)

	tracer, err := telemetry.NewTracer("seqfield/fieldmcp")
	if err != nil {
		return nil, fmt.Errorf("fieldmcp: building tracer: %w", err)
	}
	compose.SetTracer(tracer)
	invert.SetTracer(tracer)
	rebase.SetTracer(tracer)

	return &Server{cfg: cfg}, nil
}

// Start runs the MCP server over streamable HTTP (blocking).
func (s *Server) Start(addr string) error {
	deps := &ToolDeps{}

	mcpSrv := mcpserver.NewMCPServer(
		"seqfield",
		"0.1.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	composeTool := mcp.NewTool("compose",
		mcp.WithDescription("Compose two changesets built from insert/remove edits over a shared field and return the resulting marks"),
		mcp.WithNumber("insert_count", mcp.Description("cells inserted by the base revision"), mcp.Required()),
		mcp.WithNumber("remove_offset", mcp.Description("offset into the base's inserted cells where the next revision removes"), mcp.Required()),
		mcp.WithNumber("remove_count", mcp.Description("cells removed by the next revision"), mcp.Required()),
	)

	invertTool := mcp.NewTool("invert",
		mcp.WithDescription("Invert the composed changeset produced by the compose tool's same parameters"),
		mcp.WithNumber("insert_count", mcp.Description("cells inserted by the base revision"), mcp.Required()),
		mcp.WithNumber("remove_offset", mcp.Description("offset into the base's inserted cells where the next revision removes"), mcp.Required()),
		mcp.WithNumber("remove_count", mcp.Description("cells removed by the next revision"), mcp.Required()),
		mcp.WithBoolean("is_rollback", mcp.Description("tag the inverse as a rollback")),
	)

	rebaseTool := mcp.NewTool("rebase",
		mcp.WithDescription("Rebase the base revision's insert over the next revision's remove"),
		mcp.WithNumber("insert_count", mcp.Description("cells inserted by the base revision"), mcp.Required()),
		mcp.WithNumber("remove_offset", mcp.Description("offset into the base's inserted cells where the next revision removes"), mcp.Required()),
		mcp.WithNumber("remove_count", mcp.Description("cells removed by the next revision"), mcp.Required()),
	)

	deltaTool := mcp.NewTool("delta",
		mcp.WithDescription("Lower the composed changeset to a field delta and report its build/rename/global entries"),
		mcp.WithNumber("insert_count", mcp.Description("cells inserted by the base revision"), mcp.Required()),
		mcp.WithNumber("remove_offset", mcp.Description("offset into the base's inserted cells where the next revision removes"), mcp.Required()),
		mcp.WithNumber("remove_count", mcp.Description("cells removed by the next revision"), mcp.Required()),
	)

	mcpSrv.AddTool(composeTool, deps.HandleCompose)
	mcpSrv.AddTool(invertTool, deps.HandleInvert)
	mcpSrv.AddTool(rebaseTool, deps.HandleRebase)
	mcpSrv.AddTool(deltaTool, deps.HandleDelta)

	httpServer := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath("/mcp"),
	)

	log.Printf("[fieldmcp] listening on %s", addr)
	return httpServer.Start(addr)
}

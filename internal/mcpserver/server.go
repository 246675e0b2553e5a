// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the training history and plan tooling via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/carvtrainer/carvtrainer/internal/progress"
	"github.com/carvtrainer/carvtrainer/internal/report"
	"github.com/carvtrainer/carvtrainer/internal/storage"
)

// Server wraps the MCP server with trainer tools.
type Server struct {
	mcp   *server.MCPServer
	log   progress.Log
	store storage.Provider
}

// New creates a new MCP server with all trainer tools registered.
func New(log progress.Log, store storage.Provider) *Server {
	s := &Server{log: log, store: store}

	s.mcp = server.NewMCPServer(
		"CARV Trainer",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List recorded training sessions newest first."),
		mcp.WithNumber("limit", mcp.Description("Max sessions to return (default 20)")),
	), s.listSessions)

	s.mcp.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Read one training session: Ski:IQ, analysis, plan, and screenshots."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session entry ID")),
	), s.getSession)

	s.mcp.AddTool(mcp.NewTool("get_training_plan",
		mcp.WithDescription("Read the Markdown training plan of a session."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Session entry ID")),
	), s.getTrainingPlan)

	s.mcp.AddTool(mcp.NewTool("parse_training_plan",
		mcp.WithDescription("Break a Markdown training plan into structured fields "+
			"(drills, schedule, priorities, cues). Plans following the plan format "+
			"contract parse cleanly; read it first via the get_plan_contract tool or "+
			"the carvtrainer://plan-format resource."),
		mcp.WithString("plan", mcp.Required(), mcp.Description("Training plan Markdown")),
	), s.parseTrainingPlan)

	s.mcp.AddTool(mcp.NewTool("get_plan_contract",
		mcp.WithDescription("Returns the canonical training plan format contract. "+
			"Call this before writing or editing plans to ensure correct structure."),
	), s.getPlanContract)

	s.mcp.AddTool(mcp.NewTool("list_screenshots",
		mcp.WithDescription("List stored CARV screenshots in the library."),
		mcp.WithString("folder", mcp.Description("Optional library folder (empty for all)")),
	), s.listScreenshots)

	// Resource: training plan format contract.
	s.mcp.AddResource(
		mcp.NewResource("carvtrainer://plan-format", "Training Plan Format Contract",
			mcp.WithResourceDescription("Canonical Markdown training plan format."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPlanFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	entries, total, err := s.log.ListEntries(limit, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"sessions": entries,
		"total":    total,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.log.GetEntry(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(entry, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getTrainingPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.log.GetEntry(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if entry.Plan == "" {
		return mcp.NewToolResultError(fmt.Sprintf("session %s has no training plan", id)), nil
	}
	return mcp.NewToolResultText(entry.Plan), nil
}

func (s *Server) parseTrainingPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plan, err := req.RequireString("plan")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parsed := report.Parse(plan)
	out, _ := json.MarshalIndent(parsed, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listScreenshots(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := req.GetString("folder", "")
	files, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("no screenshots found"), nil
	}
	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getPlanContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PlanFormatContract), nil
}

func (s *Server) readPlanFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "carvtrainer://plan-format",
			MIMEType: "text/markdown",
			Text:     PlanFormatContract,
		},
	}, nil
}

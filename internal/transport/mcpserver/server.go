package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"strings"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/pkg/log"
)

type DirectorySource interface {
	Get(ctx context.Context) (core.Directory, error)
}

type RecordLookup interface {
	GetByID(ctx context.Context, id, partitionKey string) (*core.Company, error)
	GetByName(ctx context.Context, name string) (*core.Company, error)
}

// ReportTools renders report sections for a company id.
type ReportTools interface {
	Definitions() []core.Tool
	Call(ctx context.Context, name, arguments string) (string, error)
}

// Server exposes the company directory, raw records and report tools over MCP stdio.
type Server struct {
	mcp       *server.MCPServer
	directory DirectorySource
	records   RecordLookup
	tools     ReportTools

	in  io.Reader
	out io.Writer
}

func New(directory DirectorySource, records RecordLookup, tools ReportTools, in io.Reader, out io.Writer) *Server {
	s := &Server{
		mcp:       server.NewMCPServer(core.AppName, core.AppVersion, server.WithToolCapabilities(false)),
		directory: directory,
		records:   records,
		tools:     tools,
		in:        in,
		out:       out,
	}
	s.register()
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting mcp stdio server")

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(log.NewPrintf(ctx, "mcp", zerolog.WarnLevel), "", 0))

	if err := stdio.Listen(ctx, s.in, s.out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}

func (s *Server) register() {
	s.mcp.AddTool(mcpproto.NewTool("list_companies",
		mcpproto.WithDescription("List known companies with their ids. Optionally filter by a name fragment."),
		mcpproto.WithString("filter", mcpproto.Description("Case-insensitive name fragment")),
	), s.listCompanies)

	s.mcp.AddTool(mcpproto.NewTool("get_company",
		mcpproto.WithDescription("Get the full company record by id or by exact name."),
		mcpproto.WithString("company_id", mcpproto.Description("Company id")),
		mcpproto.WithString("company_name", mcpproto.Description("Company name, used when no id is given")),
	), s.getCompany)

	for _, def := range s.tools.Definitions() {
		name := def.Function.Name
		tool := mcpproto.NewToolWithRawSchema(name, def.Function.Description, def.Function.Parameters)
		s.mcp.AddTool(tool, s.reportTool(name))
	}
}

func (s *Server) listCompanies(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	dir, err := s.directory.Get(ctx)
	if err != nil {
		return nil, err
	}

	filter := strings.ToLower(req.GetString("filter", ""))
	refs := make([]core.CompanyRef, 0, dir.Len())
	for _, ref := range dir.Entries() {
		if filter == "" || strings.Contains(strings.ToLower(ref.Name), filter) {
			refs = append(refs, ref)
		}
	}
	return jsonResult(refs)
}

func (s *Server) getCompany(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	id := req.GetString("company_id", "")
	name := req.GetString("company_name", "")

	var (
		company *core.Company
		err     error
	)
	switch {
	case id != "":
		company, err = s.records.GetByID(ctx, id, name)
	case name != "":
		company, err = s.records.GetByName(ctx, name)
	default:
		return mcpproto.NewToolResultError("company_id or company_name is required"), nil
	}

	if err != nil {
		return toolError(err)
	}
	return jsonResult(company)
}

func (s *Server) reportTool(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return nil, fmt.Errorf("encode arguments: %w", err)
		}

		out, err := s.tools.Call(ctx, name, string(args))
		if err != nil {
			return toolError(err)
		}
		return mcpproto.NewToolResultText(out), nil
	}
}

// toolError returns client errors as tool results and everything else as a protocol error.
func toolError(err error) (*mcpproto.CallToolResult, error) {
	if core.IsClientError(err) {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

func jsonResult(v any) (*mcpproto.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcpproto.NewToolResultText(string(data)), nil
}

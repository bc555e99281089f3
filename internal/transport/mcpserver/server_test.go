package mcpserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/internal/service/cache"
	"github.com/sandevgo/reportgen/internal/service/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	companies map[string]*core.Company
}

func (s *memStore) GetIDNameMap(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s.companies))
	for id, c := range s.companies {
		out[id] = c.CompanyName
	}
	return out, nil
}

func (s *memStore) GetByID(ctx context.Context, id, partitionKey string) (*core.Company, error) {
	c, ok := s.companies[id]
	if !ok || (partitionKey != "" && partitionKey != c.CompanyName) {
		return nil, core.ErrCompanyNotFound
	}
	return c, nil
}

func (s *memStore) GetByName(ctx context.Context, name string) (*core.Company, error) {
	for _, c := range s.companies {
		if c.CompanyName == name {
			return c, nil
		}
	}
	return nil, core.ErrCompanyNotFound
}

func newTestClient(t *testing.T) *client.Client {
	t.Helper()

	revenue := int64(211915000000)
	store := &memStore{companies: map[string]*core.Company{
		"1": {ID: "1", CompanyName: "AAS"},
		"2": {ID: "2", CompanyName: "AAS, Inc"},
		"3": {ID: "3", CompanyName: "Microsoft", Revenue: &revenue},
	}}

	tools := report.NewToolset(cache.NewRecordCache(store, time.Hour))
	srv := New(cache.NewDirectoryCache(store, time.Hour), store, tools, strings.NewReader(""), &strings.Builder{})

	c, err := client.NewInProcessClient(srv.MCP())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	initReq := mcpproto.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpproto.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpproto.Implementation{Name: "test", Version: "1.0.0"}
	_, err = c.Initialize(ctx, initReq)
	require.NoError(t, err)

	return c
}

func callTool(t *testing.T, c *client.Client, name string, args map[string]any) (string, bool) {
	t.Helper()

	req := mcpproto.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := c.CallTool(context.Background(), req)
	require.NoError(t, err)

	var sb strings.Builder
	for _, content := range res.Content {
		if text, ok := content.(mcpproto.TextContent); ok {
			sb.WriteString(text.Text)
		} else if textPtr, ok := content.(*mcpproto.TextContent); ok {
			sb.WriteString(textPtr.Text)
		}
	}
	return sb.String(), res.IsError
}

func TestServer_ListTools(t *testing.T) {
	c := newTestClient(t)

	res, err := c.ListTools(context.Background(), mcpproto.ListToolsRequest{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"list_companies",
		"get_company",
		"get_company_overview",
		"summarize_executive_board_changes",
		"summarize_engagement_activity",
		"confirm_asn",
		"summarize_financials",
		"summarize_corporate_timelines",
		"get_full_summary",
	}, names)
}

func TestServer_ListCompanies(t *testing.T) {
	c := newTestClient(t)

	out, isErr := callTool(t, c, "list_companies", nil)
	require.False(t, isErr)
	assert.JSONEq(t, `[
		{"company_id":"1","company_name":"AAS"},
		{"company_id":"2","company_name":"AAS, Inc"},
		{"company_id":"3","company_name":"Microsoft"}
	]`, out)

	out, isErr = callTool(t, c, "list_companies", map[string]any{"filter": "micro"})
	require.False(t, isErr)
	assert.JSONEq(t, `[{"company_id":"3","company_name":"Microsoft"}]`, out)
}

func TestServer_GetCompany(t *testing.T) {
	c := newTestClient(t)

	tests := []struct {
		name     string
		args     map[string]any
		isErr    bool
		contains string
	}{
		{name: "by id", args: map[string]any{"company_id": "3"}, contains: `"CompanyName": "Microsoft"`},
		{name: "by name", args: map[string]any{"company_name": "AAS, Inc"}, contains: `"id": "2"`},
		{name: "wrong partition", args: map[string]any{"company_id": "3", "company_name": "AAS"}, isErr: true, contains: "company not found"},
		{name: "no arguments", args: map[string]any{}, isErr: true, contains: "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, isErr := callTool(t, c, "get_company", tt.args)
			assert.Equal(t, tt.isErr, isErr)
			assert.Contains(t, out, tt.contains)
		})
	}
}

func TestServer_ReportTool(t *testing.T) {
	c := newTestClient(t)

	out, isErr := callTool(t, c, "get_company_overview", map[string]any{"company_id": "3"})
	require.False(t, isErr)
	assert.Contains(t, out, "## Microsoft overview")
	assert.Contains(t, out, "211,915,000,000")

	out, isErr = callTool(t, c, "get_company_overview", map[string]any{})
	assert.True(t, isErr)
	assert.Contains(t, out, "company_id is required")
}

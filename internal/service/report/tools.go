package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sandevgo/reportgen/internal/core"
)

type RecordSource interface {
	Ensure(ctx context.Context, ref core.CompanyRef) (*core.Company, error)
}

type toolArgs struct {
	CompanyID string `json:"company_id"`
	Years     []int  `json:"years,omitempty"`
	Category  string `json:"category,omitempty"`
}

type renderFunc func(c *core.Company, args toolArgs, now time.Time) string

type reportTool struct {
	def    core.Tool
	render renderFunc
}

// Toolset holds the report functions the oracle may call. Every function reads the
// company record through the record cache.
type Toolset struct {
	records RecordSource
	now     func() time.Time
	tools   map[string]reportTool
	order   []string
}

const companySchema = `{
	"type": "object",
	"properties": {
		"company_id": {"type": "string", "description": "The company_id of the active company"}
	},
	"required": ["company_id"]
}`

func NewToolset(records RecordSource) *Toolset {
	t := &Toolset{
		records: records,
		now:     time.Now,
		tools:   make(map[string]reportTool),
	}

	t.register("get_company_overview", "Get the company overview: description, revenue, market cap and recent news.", companySchema, renderOverview)
	t.register("summarize_executive_board_changes", "Summarize the executive team and board members.", companySchema, renderLeadership)
	t.register("summarize_engagement_activity", "Summarize engagement activity, optionally for one category.", `{
	"type": "object",
	"properties": {
		"company_id": {"type": "string", "description": "The company_id of the active company"},
		"category": {"type": "string", "description": "Only include this activity category"}
	},
	"required": ["company_id"]
}`, renderEngagement)
	t.register("confirm_asn", "Confirm whether ASN (new assignments) were conducted with the client. Defaults to the last three years.", `{
	"type": "object",
	"properties": {
		"company_id": {"type": "string", "description": "The company_id of the active company"},
		"years": {"type": "array", "items": {"type": "integer"}, "description": "Fiscal years to report"}
	},
	"required": ["company_id"]
}`, renderASN)
	t.register("summarize_financials", "Summarize financial data by fiscal period.", companySchema, renderFinancials)
	t.register("summarize_corporate_timelines", "Summarize corporate timeline events.", companySchema, renderTimeline)
	t.register("get_full_summary", "Get a full summary covering every section.", companySchema, renderFull)

	return t
}

func (t *Toolset) register(name, description, schema string, render renderFunc) {
	t.tools[name] = reportTool{
		def: core.Tool{
			Type: "function",
			Function: core.Function{
				Name:        name,
				Description: description,
				Parameters:  json.RawMessage(schema),
			},
		},
		render: render,
	}
	t.order = append(t.order, name)
}

// Definitions returns the tool schemas in registration order.
func (t *Toolset) Definitions() []core.Tool {
	defs := make([]core.Tool, 0, len(t.order))
	for _, name := range t.order {
		defs = append(defs, t.tools[name].def)
	}
	return defs
}

func (t *Toolset) Has(name string) bool {
	_, ok := t.tools[name]
	return ok
}

// Call runs a report function with JSON arguments and returns its Markdown output.
func (t *Toolset) Call(ctx context.Context, name, arguments string) (string, error) {
	tool, ok := t.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	var args toolArgs
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", fmt.Errorf("%w: invalid arguments for %s: %v", core.ErrInvalidInput, name, err)
		}
	}
	if args.CompanyID == "" {
		return "", fmt.Errorf("%w: company_id is required", core.ErrInvalidInput)
	}

	company, err := t.records.Ensure(ctx, core.CompanyRef{ID: args.CompanyID})
	if err != nil {
		return "", err
	}

	return tool.render(company, args, t.now()), nil
}

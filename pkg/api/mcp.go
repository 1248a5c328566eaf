package api

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/labelcheck/pkg/kit"
	"github.com/hazyhaar/labelcheck/pkg/report"
)

// RegisterMCPTools registers the labelcheck MCP tools on the server. They
// dispatch to the same endpoints as the HTTP routes.
func RegisterMCPTools(srv *server.MCPServer, svc *Service) {
	ep := newEndpoints(svc)

	kit.RegisterMCPTool(srv, mcp.NewTool("check_ingredients",
		mcp.WithDescription("Run allergen, GRAS and NDI/ODI compliance checks over a label's ingredient list. "+
			"Returns the three reports plus narrative summaries."),
		ingredientsParam(),
		mcp.WithString("checks", mcp.Description("Comma-separated subset of allergen,gras,ndi (default: all)")),
	), ep.check, decodeCheck(true))

	kit.RegisterMCPTool(srv, mcp.NewTool("check_allergens",
		mcp.WithDescription("Detect the nine major food allergens (FALCPA / FASTER Act) in an ingredient list."),
		ingredientsParam(),
	), ep.allergens, decodeCheck(false))

	kit.RegisterMCPTool(srv, mcp.NewTool("check_gras",
		mcp.WithDescription("Check each ingredient against the FDA GRAS list (21 CFR 170.3) for conventional foods."),
		ingredientsParam(),
	), ep.gras, decodeCheck(false))

	kit.RegisterMCPTool(srv, mcp.NewTool("check_ndi",
		mcp.WithDescription("Classify dietary-supplement ingredients as NDI-notified, grandfathered old dietary "+
			"ingredients, or requiring NDI verification. Informational, not a violation finding."),
		ingredientsParam(),
	), ep.ndi, decodeCheck(false))

	kit.RegisterMCPTool(srv, mcp.NewTool("refdata_stats",
		mcp.WithDescription("Report the cache state of each reference corpus (records, load time, last error)."),
	), ep.refdata, func(mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}

func ingredientsParam() mcp.ToolOption {
	return mcp.WithString("ingredients", mcp.Required(),
		mcp.Description("Comma-separated ingredient list as printed on the label"))
}

func decodeCheck(withChecks bool) func(mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	return func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var ings []string
		if list, ok := req.GetArguments()["ingredients"].(string); ok {
			ings = report.Split(list)
		} else {
			ings = kit.StringsArg(req, "ingredients")
		}
		if len(ings) == 0 {
			return nil, fmt.Errorf("ingredients is required")
		}
		r := &checkReq{Ingredients: ings}
		if withChecks {
			names, _ := req.GetArguments()["checks"].(string)
			checks, err := report.ParseChecks(names)
			if err != nil {
				return nil, err
			}
			r.Checks = checks
		}
		return &kit.MCPDecodeResult{Request: r}, nil
	}
}

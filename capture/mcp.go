// CLAUDE:SUMMARY Registers the pagesnap MCP tools: capture, list, get.
package capture

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/pagesnap/capture/internal/kit"
	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// RegisterMCP registers the capture tools on an MCP server.
func (c *Capturer) RegisterMCP(srv *mcp.Server) {
	c.registerCaptureTool(srv)
	c.registerListTool(srv)
	c.registerGetTool(srv)
}

// CaptureSummary is the compact result of a capture returned by the MCP
// tool and the HTTP API.
type CaptureSummary struct {
	ID                   string `json:"id"`
	URL                  string `json:"url"`
	FinalURL             string `json:"final_url"`
	Title                string `json:"title"`
	Status               string `json:"status"`
	OutputDir            string `json:"output_dir"`
	Assets               int    `json:"assets"`
	Failed               int    `json:"failed"`
	Entries              int    `json:"entries"`
	NavigationIncomplete bool   `json:"navigation_incomplete"`
	Error                string `json:"error,omitempty"`
}

// Summarize reduces a report to a CaptureSummary.
func Summarize(r *snapshot.CaptureReport) CaptureSummary {
	return CaptureSummary{
		ID:                   r.ID,
		URL:                  r.URL,
		FinalURL:             r.FinalURL,
		Title:                r.Title,
		Status:               r.Status(),
		OutputDir:            r.OutputDir,
		Assets:               r.Assets.Total,
		Failed:               len(r.Assets.Failed),
		Entries:              len(r.Network),
		NavigationIncomplete: r.NavigationIncomplete,
		Error:                r.Error,
	}
}

func decodeJSON[T any](req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r T
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}

// --- capture ---

type captureToolRequest struct {
	URL       string   `json:"url"`
	OutputDir string   `json:"output_dir,omitempty"`
	Viewports []string `json:"viewports,omitempty"`
	PDF       bool     `json:"pdf,omitempty"`
}

func (c *Capturer) registerCaptureTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pagesnap_capture",
		Description: "Capture a web page: rendered HTML, design tokens, computed styles, assets and screenshots. Returns a summary of the capture.",
		InputSchema: kit.InputSchema(map[string]any{
			"url":        map[string]any{"type": "string", "description": "Absolute http(s) URL to capture"},
			"output_dir": map[string]any{"type": "string", "description": "Capture root (default pagesnap_<host>_<timestamp>)"},
			"viewports":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Screenshot sizes as name=WIDTHxHEIGHT"},
			"pdf":        map[string]any{"type": "boolean", "description": "Also print page.pdf"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*captureToolRequest)
		if r.URL == "" {
			return nil, errors.New("url is required")
		}
		creq := Request{URL: r.URL, OutputDir: r.OutputDir, PDF: r.PDF}
		for _, s := range r.Viewports {
			vp, err := ParseViewport(s)
			if err != nil {
				return nil, err
			}
			creq.Viewports = append(creq.Viewports, vp)
		}
		rep, err := c.Capture(ctx, creq)
		if err != nil {
			return nil, err
		}
		return Summarize(rep), nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Logging(c.logger, tool.Name)(endpoint), decodeJSON[captureToolRequest])
}

// --- list ---

type listToolRequest struct {
	Limit int `json:"limit,omitempty"`
}

func (c *Capturer) registerListTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pagesnap_list",
		Description: "List recent captures, newest first.",
		InputSchema: kit.InputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Max results (default 50)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*listToolRequest)
		return c.List(ctx, r.Limit)
	}

	kit.RegisterMCPTool(srv, tool, kit.Logging(c.logger, tool.Name)(endpoint), decodeJSON[listToolRequest])
}

// --- get ---

type getToolRequest struct {
	ID string `json:"id"`
}

func (c *Capturer) registerGetTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pagesnap_get",
		Description: "Return the full capture report for a capture ID.",
		InputSchema: kit.InputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Capture ID"},
		}, []string{"id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*getToolRequest)
		if r.ID == "" {
			return nil, errors.New("id is required")
		}
		return c.Get(ctx, r.ID)
	}

	kit.RegisterMCPTool(srv, tool, kit.Logging(c.logger, tool.Name)(endpoint), decodeJSON[getToolRequest])
}

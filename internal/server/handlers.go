package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/a11y-lens/internal/output"
	"github.com/mj1618/a11y-lens/internal/pipeline"
)

func (s *Server) registerTools() {
	// analyze
	s.mcp.AddTool(
		mcp.NewTool("analyze",
			mcp.WithDescription("Audit a web page for accessibility problems. Loads the page in a headless browser, extracts headings, images, links, forms, ARIA and landmark facts, flags problematic elements with their selectors and bounding boxes, and returns an AI-written WCAG report with an annotated screenshot."),
			mcp.WithString("url", mcp.Description("Absolute http(s) URL to analyze"), mcp.Required()),
			mcp.WithNumber("max-retries", mcp.Description("Navigation attempts before giving up (default 3)")),
			mcp.WithNumber("timeout-ms", mcp.Description("Per-attempt navigation timeout in milliseconds")),
			mcp.WithBoolean("no-ai", mcp.Description("Skip the AI report and return extracted facts only")),
			mcp.WithBoolean("stream", mcp.Description("Use the streaming model endpoint; the report is still returned whole")),
			mcp.WithBoolean("numbered", mcp.Description("Number screenshot badges to match the problem list")),
			mcp.WithBoolean("page", mcp.Description("Include all extracted page facts in the response")),
			mcp.WithBoolean("refresh", mcp.Description("Ignore cached results for this URL and analyze again")),
			mcp.WithBoolean("screenshot", mcp.Description("Attach the annotated screenshot (default true)")),
		),
		s.handleAnalyze,
	)

	// screenshot
	s.mcp.AddTool(
		mcp.NewTool("screenshot",
			mcp.WithDescription("Capture a full-page screenshot with problematic elements outlined in red (high), amber (medium) or green (low) priority colors"),
			mcp.WithString("url", mcp.Description("Absolute http(s) URL to capture"), mcp.Required()),
			mcp.WithNumber("max-retries", mcp.Description("Navigation attempts before giving up (default 3)")),
			mcp.WithNumber("timeout-ms", mcp.Description("Per-attempt navigation timeout in milliseconds")),
			mcp.WithBoolean("numbered", mcp.Description("Number badges in problem-list order")),
			mcp.WithBoolean("refresh", mcp.Description("Ignore cached results for this URL and capture again")),
		),
		s.handleScreenshot,
	)
}

func requestFrom(params map[string]interface{}) Request {
	return Request{
		URL:        stringParam(params, "url", ""),
		MaxRetries: intParam(params, "max-retries", 0),
		Timeout:    time.Duration(intParam(params, "timeout-ms", 0)) * time.Millisecond,
		SkipAI:     boolParam(params, "no-ai", false),
		Stream:     boolParam(params, "stream", false),
		Refresh:    boolParam(params, "refresh", false),
		Numbered:   boolParam(params, "numbered", false),
	}
}

func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	req := requestFrom(params)

	out, err := s.Analyze(ctx, req, nil)
	if err != nil {
		s.log.Warn("analyze failed", zap.String("url", req.URL), zap.Error(err))
		return mcp.NewToolResultError(pipeline.UserMessage(err)), nil
	}

	location, err := s.Upload(ctx, out.Result)
	if err != nil {
		s.log.Warn("screenshot upload failed", zap.Error(err))
	}

	doc := output.NewAnalysisResult(out.Result, boolParam(params, "page", false), location)
	b, err := yaml.Marshal(doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}

	content := []mcp.Content{
		mcp.TextContent{Type: "text", Text: string(b)},
	}
	if boolParam(params, "screenshot", true) && len(out.Result.Screenshot) > 0 {
		content = append(content, imageContent(out.Result.Screenshot))
	}
	return &mcp.CallToolResult{Content: content}, nil
}

func (s *Server) handleScreenshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := requestFrom(request.GetArguments())
	req.SkipAI = true

	out, err := s.Analyze(ctx, req, nil)
	if err != nil {
		return mcp.NewToolResultError(pipeline.UserMessage(err)), nil
	}
	if len(out.Result.Screenshot) == 0 {
		return mcp.NewToolResultError("screenshot could not be captured"), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{imageContent(out.Result.Screenshot)},
	}, nil
}

func imageContent(png []byte) mcp.ImageContent {
	return mcp.ImageContent{
		Type:     "image",
		Data:     base64.StdEncoding.EncodeToString(png),
		MIMEType: "image/png",
	}
}

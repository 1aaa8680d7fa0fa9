package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/iceiceblakey1/atelier/internal/prompt"
	"github.com/iceiceblakey1/atelier/internal/routes"
)

// NewMCPServer creates an MCP server exposing the studio's generation tools
// and state resources to agent hosts.
func NewMCPServer(d Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"atelier",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("atelier — creative studio gateway for chat, image synthesis, and speech."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("enhance_prompt",
			mcp.WithDescription("Rewrite a rough idea into a detailed, photographic image prompt."),
			mcp.WithString("prompt", mcp.Description("The rough prompt to enhance"), mcp.Required()),
		),
		mcpEnhancePrompt(d),
	)

	s.AddTool(
		mcp.NewTool("generate_image",
			mcp.WithDescription("Synthesize an image from a text prompt and store it in the session gallery."),
			mcp.WithString("prompt", mcp.Description("Image description"), mcp.Required()),
			mcp.WithString("aspect_ratio", mcp.Description("Aspect ratio such as 1:1, 16:9, 9:16 (default 1:1)")),
		),
		mcpGenerateImage(d),
	)

	s.AddTool(
		mcp.NewTool("synthesize_speech",
			mcp.WithDescription("Render text as speech and return the audio as base64 PCM (s16le, 24kHz, mono)."),
			mcp.WithString("text", mcp.Description("Text to read aloud"), mcp.Required()),
			mcp.WithString("voice", mcp.Description("Prebuilt voice name (default Zephyr)")),
		),
		mcpSynthesizeSpeech(d),
	)

	s.AddTool(
		mcp.NewTool("set_route",
			mcp.WithDescription("Point a feature (chat, vision, studio, tts) at a local engine, or back to the cloud."),
			mcp.WithString("feature", mcp.Description("Feature to reroute"), mcp.Required()),
			mcp.WithBoolean("enabled", mcp.Description("True routes the feature to the local endpoint"), mcp.Required()),
			mcp.WithString("endpoint", mcp.Description("Local engine URL (kept from current route when omitted)")),
			mcp.WithString("model", mcp.Description("Local model name (kept from current route when omitted)")),
		),
		mcpSetRoute(d),
	)

	s.AddResource(
		mcp.NewResource(
			"atelier://routes",
			"Feature Routes",
			mcp.WithResourceDescription("Current per-feature route table as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRoutes(d),
	)

	s.AddResource(
		mcp.NewResource(
			"atelier://gallery",
			"Session Gallery",
			mcp.WithResourceDescription("Artifacts generated this session, newest first"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceGallery(d),
	)

	return s
}

func mcpEnhancePrompt(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("prompt")
		if err != nil {
			return mcpError("prompt is required"), nil
		}
		enhanced := d.Router.Enhance(ctx, raw, d.Shaper.Enhance(raw))
		return mcpText(enhanced), nil
	}
}

func mcpGenerateImage(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("prompt")
		if err != nil {
			return mcpError("prompt is required"), nil
		}
		aspect := req.GetString("aspect_ratio", "")

		p, err := d.Shaper.Studio(text, nil, prompt.ModeCreate, prompt.StudioOptions{AspectRatio: aspect})
		if err != nil {
			return mcpError(err.Error()), nil
		}

		res := d.Router.GenerateImage(ctx, d.Routes.Load(), p)
		if !res.Success {
			return mcpError(fmt.Sprintf("%s: %s", res.Error.Reason, res.Error.Suggestion)), nil
		}

		a := d.Gallery.Add(res.Data, text)
		return mcpText(fmt.Sprintf("Stored artifact %s (%d bytes of data URL)", a.ID, len(a.Data))), nil
	}
}

func mcpSynthesizeSpeech(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		voice := req.GetString("voice", "")

		var opts prompt.SpeechOptions
		if voice != "" {
			opts.Speakers = []prompt.Speaker{{Name: "Speaker", Voice: voice}}
		}
		p, err := d.Shaper.Speech(text, opts)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		res := d.Router.GenerateSpeech(ctx, d.Routes.Load(), p)
		if !res.Success {
			return mcpError(fmt.Sprintf("%s: %s", res.Error.Reason, res.Error.Suggestion)), nil
		}
		return mcpText(res.Data), nil
	}
}

func mcpSetRoute(d Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("feature")
		if err != nil {
			return mcpError("feature is required"), nil
		}
		feature := routes.Feature(name)
		if !feature.Valid() {
			return mcpError(fmt.Sprintf("unknown feature %q", name)), nil
		}
		enabled, err := req.RequireBool("enabled")
		if err != nil {
			return mcpError("enabled is required"), nil
		}

		rec := d.Routes.Load()
		rt := rec.Get(feature)
		rt.Enabled = enabled
		if v := req.GetString("endpoint", ""); v != "" {
			rt.Endpoint = v
		}
		if v := req.GetString("model", ""); v != "" {
			rt.ModelName = v
		}
		rec.Set(feature, rt)

		if err := d.Routes.Save(rec); err != nil {
			return mcpError(fmt.Sprintf("failed to save routes: %v", err)), nil
		}

		state := "cloud"
		if rt.Enabled {
			state = fmt.Sprintf("local (%s @ %s)", rt.ModelName, rt.Endpoint)
		}
		return mcpText(fmt.Sprintf("%s now routes to %s", feature, state)), nil
	}
}

func mcpResourceRoutes(d Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(d.Routes.Load())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal routes: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceGallery(d Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		type artifactSummary struct {
			ID        string `json:"id"`
			Prompt    string `json:"prompt"`
			CreatedAt string `json:"created_at"`
		}

		items := d.Gallery.List()
		summaries := make([]artifactSummary, len(items))
		for i, a := range items {
			summaries[i] = artifactSummary{
				ID:        a.ID,
				Prompt:    a.Prompt,
				CreatedAt: a.CreatedAt.Format(time.RFC3339),
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal gallery: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

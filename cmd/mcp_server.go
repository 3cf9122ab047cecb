package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/louis030195/bigbrother/internal/locator"
	"github.com/louis030195/bigbrother/internal/platform"
	"github.com/louis030195/bigbrother/internal/replay"
	"github.com/louis030195/bigbrother/internal/version"
	"github.com/louis030195/bigbrother/internal/workflow"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server exposing automation tools",
	Long: "Run a Model Context Protocol server so AI agents can find elements,\n" +
		"drive input, and replay workflows over stdio or HTTP.",
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or streamable-http")
	mcpCmd.Flags().Int("port", 8377, "Port for the streamable-http transport")
}

// mcpServer wraps the MCP server with the platform provider. Input
// injection is serialized; concurrent tool calls would interleave
// synthetic events.
type mcpServer struct {
	provider   *platform.Provider
	providerMu sync.Mutex
	mcp        *mcpserver.MCPServer
}

func runMCP(cmd *cobra.Command, args []string) error {
	provider, err := newProvider()
	if err != nil {
		return err
	}

	s := &mcpServer{provider: provider}
	s.mcp = mcpserver.NewMCPServer("bigbrother", version.Version)
	s.registerTools()

	transport, _ := cmd.Flags().GetString("transport")
	switch transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		port, _ := cmd.Flags().GetInt("port")
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", transport)
	}
}

func (s *mcpServer) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("find",
			mcp.WithDescription("Find UI elements matching a selector like \"role:button AND title:Submit\". Polls until a match appears or the timeout elapses."),
			mcp.WithString("selector", mcp.Description("Selector expression"), mcp.Required()),
			mcp.WithString("app", mcp.Description("Limit the search to this application")),
			mcp.WithNumber("timeout", mcp.Description("Max seconds to wait (default: 5)")),
			mcp.WithBoolean("all", mcp.Description("Return all matches from one traversal")),
		),
		s.handleFind,
	)

	s.mcp.AddTool(
		mcp.NewTool("click",
			mcp.WithDescription("Click a UI element matched by a selector, or absolute coordinates"),
			mcp.WithString("selector", mcp.Description("Selector of the element to click")),
			mcp.WithNumber("x", mcp.Description("Click at X coordinate")),
			mcp.WithNumber("y", mcp.Description("Click at Y coordinate")),
			mcp.WithString("app", mcp.Description("Limit the search to this application")),
			mcp.WithString("button", mcp.Description("Mouse button: left, right, middle")),
			mcp.WithBoolean("double", mcp.Description("Double-click")),
			mcp.WithNumber("timeout", mcp.Description("Max seconds to wait for the element")),
		),
		s.handleClick,
	)

	s.mcp.AddTool(
		mcp.NewTool("type",
			mcp.WithDescription("Type text or press a key combo, optionally focusing a target element first"),
			mcp.WithString("text", mcp.Description("Text to type")),
			mcp.WithString("key", mcp.Description("Key combo (e.g. 'cmd+c', 'enter')")),
			mcp.WithString("target", mcp.Description("Selector of the element to focus before typing")),
			mcp.WithString("app", mcp.Description("Limit the search to this application")),
			mcp.WithNumber("delay", mcp.Description("Delay between keystrokes in ms")),
		),
		s.handleType,
	)

	s.mcp.AddTool(
		mcp.NewTool("wait",
			mcp.WithDescription("Wait for an element matching a selector to appear"),
			mcp.WithString("selector", mcp.Description("Selector expression"), mcp.Required()),
			mcp.WithString("app", mcp.Description("Limit the search to this application")),
			mcp.WithNumber("timeout", mcp.Description("Max seconds to wait (default: 30)")),
		),
		s.handleWait,
	)

	s.mcp.AddTool(
		mcp.NewTool("replay",
			mcp.WithDescription("Replay a saved workflow by name, preserving recorded pacing"),
			mcp.WithString("name", mcp.Description("Workflow name"), mcp.Required()),
			mcp.WithNumber("speed", mcp.Description("Pacing multiplier (default: 1.0)")),
			mcp.WithBoolean("fail-fast", mcp.Description("Abort on the first failed step")),
		),
		s.handleReplay,
	)

	s.mcp.AddTool(
		mcp.NewTool("list_workflows",
			mcp.WithDescription("List saved workflows"),
		),
		s.handleListWorkflows,
	)
}

func stringParam(params map[string]interface{}, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

func floatParam(params map[string]interface{}, key string, def float64) float64 {
	if v, ok := params[key].(float64); ok {
		return v
	}
	return def
}

func boolParam(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

func toYAML(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("marshal error: %v", err)
	}
	return string(b)
}

func (s *mcpServer) locatorFromParams(params map[string]interface{}, selKey string, defTimeout time.Duration) (*locator.Locator, error) {
	sel := stringParam(params, selKey, "")
	if sel == "" {
		return nil, fmt.Errorf("%s is required", selKey)
	}
	loc, err := locator.New(s.provider.Tree, s.provider.Inputter, sel)
	if err != nil {
		return nil, err
	}
	if app := stringParam(params, "app", ""); app != "" {
		loc.InApp(app)
	}
	timeout := defTimeout
	if secs := floatParam(params, "timeout", 0); secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}
	if timeout > 0 {
		loc.Timeout(timeout)
	}
	return loc.WithLogger(log), nil
}

func (s *mcpServer) handleFind(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	loc, err := s.locatorFromParams(params, "selector", 5*time.Second)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var infos []elementInfo
	if boolParam(params, "all", false) {
		nodes, err := loc.FindAll()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		for _, n := range nodes {
			infos = append(infos, elementInfoFromNode(n))
		}
	} else {
		n, err := loc.Wait()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		infos = append(infos, elementInfoFromNode(n))
	}
	if infos == nil {
		infos = []elementInfo{}
	}
	return mcp.NewToolResultText(toYAML(findResult{
		OK:       true,
		Selector: stringParam(params, "selector", ""),
		Matches:  infos,
		Total:    len(infos),
	})), nil
}

func (s *mcpServer) handleClick(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	buttonStr := stringParam(params, "button", "left")
	button, err := platform.ParseMouseButton(buttonStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	count := 1
	if boolParam(params, "double", false) {
		count = 2
	}

	sel := stringParam(params, "selector", "")
	if sel != "" {
		loc, err := s.locatorFromParams(params, "selector", 5*time.Second)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		n, err := loc.Wait()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		b, err := n.Bounds()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		x, y := b.Center()
		if err := s.provider.Inputter.Click(x, y, button, count); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(toYAML(clickResult{OK: true, X: x, Y: y, Button: buttonStr, Target: sel})), nil
	}

	x := int(floatParam(params, "x", -1))
	y := int(floatParam(params, "y", -1))
	if x < 0 || y < 0 {
		return mcp.NewToolResultError("selector or both x and y are required"), nil
	}
	if err := s.provider.Inputter.Click(x, y, button, count); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(toYAML(clickResult{OK: true, X: x, Y: y, Button: buttonStr})), nil
}

func (s *mcpServer) handleType(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	text := stringParam(params, "text", "")
	key := stringParam(params, "key", "")
	if text == "" && key == "" {
		return mcp.NewToolResultError("text or key is required"), nil
	}

	if target := stringParam(params, "target", ""); target != "" {
		loc, err := s.locatorFromParams(params, "target", 5*time.Second)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		n, err := loc.Wait()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := n.Focus(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	if text != "" {
		delay := int(floatParam(params, "delay", 0))
		if err := s.provider.Inputter.TypeText(text, delay); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if key != "" {
		if err := s.provider.Inputter.KeyCombo(strings.Split(key, "+")); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return mcp.NewToolResultText(toYAML(typeResult{
		OK:     true,
		Typed:  text,
		Key:    key,
		Target: stringParam(params, "target", ""),
	})), nil
}

func (s *mcpServer) handleWait(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	loc, err := s.locatorFromParams(params, "selector", 30*time.Second)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start := time.Now()
	n, err := loc.Wait()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info := elementInfoFromNode(n)
	return mcp.NewToolResultText(toYAML(waitResult{
		OK:      true,
		Waited:  time.Since(start).Round(time.Millisecond).String(),
		Element: &info,
	})), nil
}

func (s *mcpServer) handleReplay(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	name := stringParam(params, "name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	store, err := workflow.NewStore(workflow.DefaultDir())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	w, err := store.Load(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	r := replay.New(s.provider.Inputter, s.provider.Tree, s.provider.Focuser).WithLogger(log)
	if speed := floatParam(params, "speed", 0); speed > 0 {
		r.Speed(speed)
	}
	if boolParam(params, "fail-fast", false) {
		r.SetMode(replay.FailFast)
	}

	start := time.Now()
	stats, replayErr := r.Replay(w)
	result := replayResult{
		OK:       replayErr == nil,
		Name:     w.Name,
		Replayed: stats.Replayed,
		Skipped:  stats.Skipped,
		Failed:   stats.Failed,
		Duration: time.Since(start).Round(time.Millisecond).String(),
	}
	if replayErr != nil {
		return mcp.NewToolResultError(toYAML(result)), nil
	}
	return mcp.NewToolResultText(toYAML(result)), nil
}

func (s *mcpServer) handleListWorkflows(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := workflow.NewStore(workflow.DefaultDir())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	infos, err := store.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if infos == nil {
		infos = []workflow.Info{}
	}
	return mcp.NewToolResultText(toYAML(workflowsResult{
		OK:        true,
		Dir:       store.Dir(),
		Workflows: infos,
		Total:     len(infos),
	})), nil
}

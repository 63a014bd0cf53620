package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/goblinsan/gh-release-milestones/pkg/engine"
	"github.com/goblinsan/gh-release-milestones/pkg/types"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

// JSON-RPC 2.0 types for MCP protocol
type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MCP protocol types
type mcpInitializeResult struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    mcpCapabilities `json:"capabilities"`
	ServerInfo      mcpServerInfo   `json:"serverInfo"`
}

type mcpCapabilities struct {
	Tools *struct{} `json:"tools,omitempty"`
}

type mcpServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type mcpToolsListResult struct {
	Tools []mcpToolDef `json:"tools"`
}

type mcpToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type mcpToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type mcpToolCallResult struct {
	Content []mcpContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

type mcpContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var assignToolSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "branch": {"type": "string", "description": "Release branch the commits landed on (e.g. release-x.57.x)"},
    "messages": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Commit messages to scan for PR references such as (#12345)"
    },
    "dry_run": {"type": "boolean", "description": "Report what would change without changing it"}
  },
  "required": ["branch", "messages"]
}`)

var checkToolSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "version": {"type": "string", "description": "Release version, matching its milestone title (e.g. v0.50.7)"},
    "commit": {"type": "string", "description": "Commit the release was cut from"},
    "base": {"type": "string", "description": "Previous release ref; inferred from version when omitted"},
    "file": {"type": "boolean", "description": "File the gaps on the configured project board"},
    "dry_run": {"type": "boolean", "description": "Report what would be filed without filing it"}
  },
  "required": ["version", "commit"]
}`)

const (
	assignToolName = "assign_release_milestones"
	checkToolName  = "check_release_milestone"
)

func handleMCPRequest(req jsonRPCRequest) jsonRPCResponse {
	switch req.Method {
	case "initialize":
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: mcpInitializeResult{
				ProtocolVersion: "2024-11-05",
				Capabilities:    mcpCapabilities{Tools: &struct{}{}},
				ServerInfo:      mcpServerInfo{Name: "gh-release-milestones", Version: Version},
			},
		}

	case "notifications/initialized":
		// Client acknowledgment, no response needed (notification, no ID)
		return jsonRPCResponse{}

	case "tools/list":
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: mcpToolsListResult{
				Tools: []mcpToolDef{
					{
						Name:        assignToolName,
						Description: "Takes a release branch and its commit messages and tags the original issues behind the referenced PRs with the branch's next open milestone.",
						InputSchema: assignToolSchema,
					},
					{
						Name:        checkToolName,
						Description: "Compares a release's milestone with the issues behind its commits and reports (and optionally files) the issues missing from either side.",
						InputSchema: checkToolSchema,
					},
				},
			},
		}

	case "tools/call":
		return handleToolCall(req)

	default:
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &jsonRPCError{Code: -32601, Message: fmt.Sprintf("method not found: %s", req.Method)},
		}
	}
}

func handleToolCall(req jsonRPCRequest) jsonRPCResponse {
	var params mcpToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &jsonRPCError{Code: -32602, Message: fmt.Sprintf("invalid params: %v", err)},
		}
	}

	ctx, cancel := withTimeout(context.Background())
	defer cancel()

	var (
		result interface{}
		err    error
	)
	switch params.Name {
	case assignToolName:
		var assignReq types.AssignRequest
		if err := json.Unmarshal(params.Arguments, &assignReq); err != nil {
			return toolError(req.ID, "failed to parse arguments: %v", err)
		}
		var report *engine.AssignReport
		report, err = runAssign(ctx, assignReq)
		if report != nil {
			result = report
		}

	case checkToolName:
		var checkReq types.ReconcileRequest
		if err := json.Unmarshal(params.Arguments, &checkReq); err != nil {
			return toolError(req.ID, "failed to parse arguments: %v", err)
		}
		var report *reconcileResult
		report, err = runReconcile(ctx, checkReq)
		if report != nil {
			result = report
		}

	default:
		return toolError(req.ID, "unknown tool: %s", params.Name)
	}

	if err != nil {
		text := fmt.Sprintf("%s failed: %v", params.Name, err)
		if result != nil {
			partial, _ := json.Marshal(result)
			text += "\n" + string(partial)
		}
		return toolError(req.ID, "%s", text)
	}

	reportJSON, _ := json.Marshal(result)
	return jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: mcpToolCallResult{
			Content: []mcpContent{{Type: "text", Text: string(reportJSON)}},
		},
	}
}

func toolError(id json.RawMessage, format string, args ...interface{}) jsonRPCResponse {
	return jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: mcpToolCallResult{
			Content: []mcpContent{{Type: "text", Text: fmt.Sprintf(format, args...)}},
			IsError: true,
		},
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long:  `Run the MCP server to allow AI agents (Claude, Gemini, etc.) to interact with the tool via the Model Context Protocol over stdin/stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := bufio.NewScanner(os.Stdin)
		// Increase buffer for long lists of commit messages (1 MB)
		scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		encoder := json.NewEncoder(os.Stdout)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var req jsonRPCRequest
			if err := json.Unmarshal(line, &req); err != nil {
				resp := jsonRPCResponse{
					JSONRPC: "2.0",
					Error:   &jsonRPCError{Code: -32700, Message: fmt.Sprintf("parse error: %v", err)},
				}
				encoder.Encode(resp)
				continue
			}

			resp := handleMCPRequest(req)
			// Notifications (no ID) don't get a response
			if resp.JSONRPC == "" {
				continue
			}
			encoder.Encode(resp)
		}

		return scanner.Err()
	},
}

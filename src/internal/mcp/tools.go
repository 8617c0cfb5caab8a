// FILE: src/internal/mcp/tools.go
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pgmoneta-mcp/src/internal/response"
)

// BackupInfoFetcher retrieves the raw reply of the daemon's info command
type BackupInfoFetcher interface {
	FetchInfo(ctx context.Context, username, server, backupID string) (string, error)
}

// Tool is the advertised description of a callable tool
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Content is one block of a tool result
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallToolResult is the result of tools/call
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// toolFunc returns the text content of a successful call. Returning *Error
// selects the JSON-RPC code.
type toolFunc func(ctx context.Context, args json.RawMessage) (string, error)

type toolEntry struct {
	Tool
	call toolFunc
}

const helloText = "Hello from pgmoneta MCP server!"

// BackupInfoArgs are the arguments of get_backup_info
type BackupInfoArgs struct {
	Username string `json:"username"`
	Server   string `json:"server"`
	BackupID string `json:"backup_id"`
}

func (s *Server) registerTools() {
	s.tools = []toolEntry{
		{
			Tool: Tool{
				Name:        "say_hello",
				Description: "Say hello to the client",
				InputSchema: map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
			call: func(context.Context, json.RawMessage) (string, error) {
				return helloText, nil
			},
		},
		{
			Tool: Tool{
				Name: "get_backup_info",
				Description: "Get information of a backup using given backup ID and server name. " +
					"\"newest\", \"latest\" or \"oldest\" are also accepted as backup identifier. " +
					"The username has to be one of the pgmoneta admins to be able to access pgmoneta",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"username":  map[string]any{"type": "string"},
						"server":    map[string]any{"type": "string"},
						"backup_id": map[string]any{"type": "string"},
					},
					"required": []string{"username", "server", "backup_id"},
				},
			},
			call: s.getBackupInfo,
		},
	}
}

func (s *Server) findTool(name string) (*toolEntry, bool) {
	for i := range s.tools {
		if s.tools[i].Name == name {
			return &s.tools[i], true
		}
	}
	return nil, false
}

func (s *Server) getBackupInfo(ctx context.Context, raw json.RawMessage) (string, error) {
	var args BackupInfoArgs
	if len(raw) == 0 {
		return "", newError(CodeInvalidParams, "missing arguments")
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", newError(CodeInvalidParams, fmt.Sprintf("invalid arguments: %v", err))
	}

	var missing []string
	if args.Username == "" {
		missing = append(missing, "username")
	}
	if args.Server == "" {
		missing = append(missing, "server")
	}
	if args.BackupID == "" {
		missing = append(missing, "backup_id")
	}
	if len(missing) > 0 {
		return "", newError(CodeInvalidParams, "missing required arguments: "+strings.Join(missing, ", "))
	}

	reply, err := s.retry.Do(ctx, s.logger, func(ctx context.Context) (string, error) {
		return s.backups.FetchInfo(ctx, args.Username, args.Server, args.BackupID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to retrieve backup information: %w", err)
	}

	checked, err := response.CheckOutcome(reply)
	if err != nil {
		return "", err
	}
	translated, err := response.Translate(checked)
	if err != nil {
		return "", fmt.Errorf("failed to translate some of the result fields: %w", err)
	}

	text, err := json.Marshal(translated)
	if err != nil {
		return "", fmt.Errorf("failed to serialize result: %w", err)
	}
	return string(text), nil
}

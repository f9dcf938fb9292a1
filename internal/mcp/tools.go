package mcp

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zx06/credsafe/internal/app"
	"github.com/zx06/credsafe/internal/errors"
	"github.com/zx06/credsafe/internal/output"
)

// CredentialStatusInput represents the input for the credential_status tool
type CredentialStatusInput struct {
	Service string `json:"service" jsonschema:"Service identifier of the credential"`
	User    string `json:"user,omitempty" jsonschema:"User name of the credential"`
}

// ToolHandler manages MCP tools
type ToolHandler struct {
	session *app.Session
}

// NewToolHandler creates a new tool handler
func NewToolHandler(session *app.Session) *ToolHandler {
	return &ToolHandler{session: session}
}

// RegisterTools registers all tools with the MCP server
func (h *ToolHandler) RegisterTools(server *mcp.Server) {
	mcp.AddTool[struct{}, any](server, &mcp.Tool{
		Name:        "store_info",
		Description: "Show the configured credential store and whether it is active",
	}, h.StoreInfo)

	statusSchema := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"service"},
		Properties: map[string]*jsonschema.Schema{
			"service": {
				Type:        "string",
				Description: "Service identifier of the credential",
			},
			"user": {
				Type:        "string",
				Description: "User name of the credential",
			},
		},
	}
	server.AddTool(&mcp.Tool{
		Name:        "credential_status",
		Description: "Check whether a credential exists; never returns the password",
		InputSchema: statusSchema,
	}, h.credentialStatusHandler)
}

// credentialStatusHandler is the raw handler for credential_status tool
func (h *ToolHandler) credentialStatusHandler(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input CredentialStatusInput
	if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
		return errorResult(errors.Wrap(errors.CodeCfgInvalid, "invalid input", nil, err)), nil
	}
	result, _, err := h.CredentialStatus(ctx, req, input)
	return result, err
}

// StoreInfo reports the store without building it.
func (h *ToolHandler) StoreInfo(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	return okResult(h.session.Status(false)), nil, nil
}

// CredentialStatus reports presence of a credential
func (h *ToolHandler) CredentialStatus(ctx context.Context, req *mcp.CallToolRequest, input CredentialStatusInput) (*mcp.CallToolResult, any, error) {
	if input.Service == "" {
		return errorResult(errors.New(errors.CodeCfgInvalid, "service is required", nil)), nil, nil
	}
	st, err := h.session.CredentialStatus(input.Service, input.User)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return okResult(st), nil, nil
}

func okResult(data any) *mcp.CallToolResult {
	env := output.Envelope{OK: true, SchemaVersion: output.SchemaVersion, Data: data}
	jsonData, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return errorResult(errors.Wrap(errors.CodeInternal, "failed to marshal result", nil, err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonData)},
		},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: formatError(err)},
		},
	}
}

// formatError formats an error as JSON
func formatError(err error) string {
	var xe *errors.XError
	if err != nil {
		xe = errors.AsOrWrap(err)
	} else {
		xe = errors.New(errors.CodeInternal, "unknown error", nil)
	}
	env := output.Envelope{
		OK:            false,
		SchemaVersion: output.SchemaVersion,
		Error:         &output.ErrorObject{Code: xe.Code, Message: xe.Message, Details: xe.Details},
	}
	jsonData, _ := json.MarshalIndent(env, "", "  ")
	return string(jsonData)
}

// CreateServer creates a new MCP server
func CreateServer(version string, session *app.Session) (*mcp.Server, error) {
	if session == nil {
		return nil, errors.New(errors.CodeInternal, "session is nil", nil)
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "credsafe",
		Version: version,
	}, nil)

	NewToolHandler(session).RegisterTools(server)
	return server, nil
}

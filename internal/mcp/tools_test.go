package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zx06/credsafe/internal/app"
	"github.com/zx06/credsafe/internal/config"
	"github.com/zx06/credsafe/internal/credstore"
	"github.com/zx06/credsafe/internal/errors"
)

func newTestSession(t *testing.T) *app.Session {
	t.Helper()
	home := t.TempDir()
	f := config.Default(config.DefaultDir(home))
	f.Store.Kind = config.KindMemoryOnly
	return app.OpenSession(app.SessionOptions{
		Resolved:          config.Resolved{File: f},
		HomeDir:           home,
		KeychainFactories: []credstore.KeychainFactory{},
		MasterKeys:        credstore.NewMasterKeyStorage(nil),
	})
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	if r == nil || len(r.Content) != 1 {
		t.Fatalf("unexpected result: %+v", r)
	}
	tc, ok := r.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want *mcp.TextContent", r.Content[0])
	}
	return tc.Text
}

func TestCreateServer(t *testing.T) {
	server, err := CreateServer("test", newTestSession(t))
	if err != nil {
		t.Fatalf("CreateServer failed: %v", err)
	}
	if server == nil {
		t.Fatal("server is nil")
	}

	_, err = CreateServer("test", nil)
	if !errors.HasCode(err, errors.CodeInternal) {
		t.Fatalf("expected CodeInternal for nil session, got %v", err)
	}
}

func TestStoreInfo(t *testing.T) {
	h := NewToolHandler(newTestSession(t))
	r, _, err := h.StoreInfo(context.Background(), nil, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	var env struct {
		OK   bool            `json:"ok"`
		Data app.StoreStatus `json:"data"`
	}
	if err := json.Unmarshal([]byte(resultText(t, r)), &env); err != nil {
		t.Fatal(err)
	}
	if !env.OK || env.Data.Kind != config.KindMemoryOnly || !env.Data.MemoryOnly {
		t.Fatalf("unexpected store info: %+v", env)
	}
	if env.Data.Materialized {
		t.Fatalf("store_info must not build the store")
	}
}

func TestCredentialStatus(t *testing.T) {
	session := newTestSession(t)
	a := credstore.Attributes{Service: "git", UserName: "alice"}
	if err := session.Safe.Set(a, credstore.NewCredentials("alice", []byte("s3cr3t"))); err != nil {
		t.Fatal(err)
	}
	h := NewToolHandler(session)

	r, _, err := h.CredentialStatus(context.Background(), nil, CredentialStatusInput{Service: "git", User: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, r)
	if strings.Contains(text, "s3cr3t") {
		t.Fatalf("password leaked: %s", text)
	}
	var env struct {
		OK   bool                 `json:"ok"`
		Data app.CredentialStatus `json:"data"`
	}
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		t.Fatal(err)
	}
	if !env.Data.Found || !env.Data.HasPassword {
		t.Fatalf("unexpected status: %+v", env.Data)
	}
}

func TestCredentialStatus_RequiresService(t *testing.T) {
	h := NewToolHandler(newTestSession(t))
	r, _, err := h.CredentialStatus(context.Background(), nil, CredentialStatusInput{})
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(resultText(t, r), string(errors.CodeCfgInvalid)) {
		t.Fatalf("unexpected error text: %s", resultText(t, r))
	}
}

func TestCredentialStatusHandler_InvalidInput(t *testing.T) {
	h := NewToolHandler(newTestSession(t))
	req := &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(`{"service": 1}`)}}
	r, err := h.credentialStatusHandler(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsError {
		t.Fatal("expected error result")
	}
}

func TestFormatError(t *testing.T) {
	text := formatError(errors.New(errors.CodeMasterPasswordWrong, "master password is not correct", map[string]any{"path": "/x"}))
	var env map[string]any
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		t.Fatal(err)
	}
	if env["ok"] != false {
		t.Fatalf("ok=%v", env["ok"])
	}
	e := env["error"].(map[string]any)
	if e["code"] != string(errors.CodeMasterPasswordWrong) {
		t.Fatalf("code=%v", e["code"])
	}

	if !strings.Contains(formatError(nil), string(errors.CodeInternal)) {
		t.Fatal("nil error should format as internal")
	}
}

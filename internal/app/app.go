package app

import (
	"github.com/zx06/credsafe/internal/config"
	"github.com/zx06/credsafe/internal/errors"
	"github.com/zx06/credsafe/internal/log"
	"github.com/zx06/credsafe/internal/output"
	"github.com/zx06/credsafe/internal/spec"
)

type App struct {
	Version string
	Commit  string
	Date    string
}

func New(version, commit, date string) App {
	return App{Version: version, Commit: commit, Date: date}
}

func (a App) BuildSpec() spec.Spec {
	globalFlags := []spec.FlagSpec{
		{Name: "config", Default: "", Description: "Config file path (YAML); default: ./credsafe.yaml or $HOME/.config/credsafe/credsafe.yaml"},
		{Name: "format", Shorthand: "f", Env: "CREDSAFE_FORMAT", Default: "auto", Description: "Output format: json|yaml|table|csv|auto"},
		{Name: "store", Env: "CREDSAFE_STORE_KIND", Default: "", Description: "Override store kind for this run: keychain|encrypted_file|memory_only"},
		{Name: "log-level", Env: log.EnvLevel, Default: "warn", Description: "Log level on stderr: debug|info|warn|error"},
	}
	with := func(extra ...spec.FlagSpec) []spec.FlagSpec {
		return append(append([]spec.FlagSpec{}, globalFlags...), extra...)
	}
	service := spec.ArgSpec{Name: "service", Required: true, Description: "Service identifier of the credential"}
	userFlag := spec.FlagSpec{Name: "user", Shorthand: "u", Description: "User name (account) of the credential"}
	passwordFlag := spec.FlagSpec{Name: "password", Description: "Password reference: keyring:<account>|env:<NAME>|plaintext with --allow-plaintext; prompts when empty"}
	plaintextFlag := spec.FlagSpec{Name: "allow-plaintext", Default: "false", Description: "Allow a plaintext --password value"}

	return spec.Spec{
		SchemaVersion: output.SchemaVersion,
		StoreKinds:    []string{string(config.KindKeychain), string(config.KindEncryptedFile), string(config.KindMemoryOnly)},
		Commands: []spec.CommandSpec{
			{Name: "spec", Description: "Export tool spec for AI/agents", Flags: with()},
			{Name: "version", Description: "Print version information", Flags: with()},
			{
				Name:        "get",
				Description: "Read a credential; the password is shown only with --show",
				Args:        []spec.ArgSpec{service},
				Flags:       with(userFlag, spec.FlagSpec{Name: "show", Default: "false", Description: "Include the password in the output"}),
			},
			{
				Name:        "set",
				Description: "Store a credential",
				Args:        []spec.ArgSpec{service},
				Flags: with(userFlag, passwordFlag, plaintextFlag,
					spec.FlagSpec{Name: "password-stdin", Default: "false", Description: "Read the password from stdin"},
					spec.FlagSpec{Name: "memory-only", Default: "false", Description: "Keep the password in memory for this process only"},
				),
			},
			{Name: "remove", Description: "Remove a credential", Args: []spec.ArgSpec{service}, Flags: with(userFlag)},
			{Name: "status", Description: "Show the active store", Flags: with()},
			{
				Name:        "store use",
				Description: "Switch the credential store",
				Args:        []spec.ArgSpec{{Name: "kind", Required: true, Description: "keychain|encrypted_file|memory_only"}},
				Flags: with(
					spec.FlagSpec{Name: "file", Description: "Database file for encrypted_file"},
					spec.FlagSpec{Name: "migrate", Default: "false", Description: "Move encrypted file entries into the keychain"},
					spec.FlagSpec{Name: "yes", Default: "false", Description: "Confirm discarding the encrypted database"},
					passwordFlag, plaintextFlag,
				),
			},
			{Name: "master-password set", Description: "Change the master password of the encrypted file store", Flags: with(passwordFlag, plaintextFlag)},
			{
				Name:        "import",
				Description: "Import an encrypted database file",
				Args:        []spec.ArgSpec{{Name: "file", Required: true, Description: "Database file ending in " + config.DBFileExt}},
				Flags:       with(passwordFlag, plaintextFlag),
			},
			{
				Name:        "clear",
				Description: "Erase all entries of an encrypted database",
				Flags:       with(spec.FlagSpec{Name: "file", Description: "Database file; default: the configured one"}, spec.FlagSpec{Name: "yes", Default: "false", Description: "Confirm the destructive operation"}, passwordFlag, plaintextFlag),
				Destructive: true,
			},
			{
				Name:        "mcp server",
				Description: "Start MCP server for AI assistant integration",
				Flags: with(
					spec.FlagSpec{Name: "transport", Env: "CREDSAFE_MCP_TRANSPORT", Default: "stdio", Description: "MCP transport: stdio|streamable_http"},
					spec.FlagSpec{Name: "http-addr", Env: "CREDSAFE_MCP_HTTP_ADDR", Default: "127.0.0.1:8787", Description: "Streamable HTTP listen address"},
					spec.FlagSpec{Name: "http-auth-token", Env: "CREDSAFE_MCP_HTTP_AUTH_TOKEN", Description: "Streamable HTTP bearer token"},
				),
			},
		},
		ErrorCodes: exitCodes(),
	}
}

func exitCodes() []spec.ExitCodeSpec {
	codes := errors.AllCodes()
	out := make([]spec.ExitCodeSpec, 0, len(codes))
	for _, c := range codes {
		out = append(out, spec.ExitCodeSpec{Code: c, ExitCode: int(errors.ExitCodeFor(c))})
	}
	return out
}

type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

func (a App) VersionInfo() VersionInfo {
	return VersionInfo{Version: a.Version, Commit: a.Commit, Date: a.Date}
}

package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zx06/credsafe/internal/app"
	"github.com/zx06/credsafe/internal/config"
	"github.com/zx06/credsafe/internal/errors"
	"github.com/zx06/credsafe/internal/log"
	"github.com/zx06/credsafe/internal/output"
)

// Build-time variables (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	envFormat    = "CREDSAFE_FORMAT"
	envStoreKind = "CREDSAFE_STORE_KIND"
)

// Config holds the resolved configuration
type Config struct {
	FormatStr   string
	ConfigStr   string
	StoreStr    string
	LogLevelStr string
	Resolved    config.Resolved
}

// runOptions carries process I/O; tests replace all of it.
type runOptions struct {
	args    []string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	getenv  func(string) string
	homeDir string
	workDir string
	// session adjusts session options before the store is opened
	session func(*app.SessionOptions)
}

// cliEnv is shared by all commands of one run.
type cliEnv struct {
	opts    runOptions
	cfg     *Config
	app     *app.App
	w       *output.Writer
	logger  *slog.Logger
	session *app.Session
}

// openSession opens the store session once per run.
func (e *cliEnv) openSession() *app.Session {
	if e.session != nil {
		return e.session
	}
	so := app.SessionOptions{
		Resolved: e.cfg.Resolved,
		HomeDir:  e.opts.homeDir,
		Logger:   e.logger,
		Notifier: newColorNotifier(e.opts.stderr),
	}
	if e.opts.session != nil {
		e.opts.session(&so)
	}
	e.session = app.OpenSession(so)
	return e.session
}

// NewRootCommand creates the root command
func NewRootCommand(env *cliEnv) *cobra.Command {
	cfg := env.cfg
	root := &cobra.Command{
		Use:           "credsafe",
		Short:         "Store and retrieve credentials in the OS keychain, an encrypted file or memory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := cfg.LogLevelStr
			if !cmd.Flags().Changed("log-level") {
				if v := env.opts.getenv(log.EnvLevel); v != "" {
					level = v
				}
			}
			lv, ok := log.ParseLevel(level)
			if !ok {
				return errors.New(errors.CodeCfgInvalid, "invalid log level", map[string]any{"level": level})
			}
			env.logger = log.NewWithLevel(env.opts.stderr, lv)

			// CLI > ENV > Config
			configSet := cmd.Flags().Changed("config")
			if configSet && cfg.ConfigStr == "" {
				return errors.New(errors.CodeCfgInvalid, "config path is empty", nil)
			}
			r, xe := config.Resolve(config.Options{
				ConfigPath:      cfg.ConfigStr,
				CLIFormat:       cfg.FormatStr,
				CLIFormatSet:    cmd.Flags().Changed("format"),
				CLIStoreKind:    cfg.StoreStr,
				CLIStoreKindSet: cmd.Flags().Changed("store"),
				EnvFormat:       env.opts.getenv(envFormat),
				EnvStoreKind:    env.opts.getenv(envStoreKind),
				HomeDir:         env.opts.homeDir,
				WorkDir:         env.opts.workDir,
			})
			if xe != nil {
				return xe
			}
			cfg.Resolved = r
			cfg.FormatStr = r.Format
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfg.ConfigStr, "config", "", "Config file path (YAML); default: ./credsafe.yaml or $HOME/.config/credsafe/credsafe.yaml")
	root.PersistentFlags().StringVarP(&cfg.FormatStr, "format", "f", "auto", "Output format: json|yaml|table|csv|auto")
	root.PersistentFlags().StringVar(&cfg.StoreStr, "store", "", "Override store kind for this run: keychain|encrypted_file|memory_only")
	root.PersistentFlags().StringVar(&cfg.LogLevelStr, "log-level", "warn", "Log level on stderr: debug|info|warn|error")

	return root
}

func runWith(opts runOptions) int {
	if opts.getenv == nil {
		opts.getenv = func(string) string { return "" }
	}
	a := app.New(version, commit, date)
	w := output.New(opts.stdout, opts.stderr)
	env := &cliEnv{
		opts:   opts,
		cfg:    &Config{},
		app:    &a,
		w:      &w,
		logger: log.NewWithLevel(opts.stderr, slog.LevelWarn),
	}

	root := NewRootCommand(env)
	root.SetArgs(opts.args)
	root.SetIn(opts.stdin)
	root.SetOut(opts.stdout)
	root.SetErr(opts.stderr)

	root.AddCommand(NewSpecCommand(env))
	root.AddCommand(NewVersionCommand(env))
	root.AddCommand(NewGetCommand(env))
	root.AddCommand(NewSetCommand(env))
	root.AddCommand(NewRemoveCommand(env))
	root.AddCommand(NewStatusCommand(env))
	root.AddCommand(NewStoreCommand(env))
	root.AddCommand(NewMasterPasswordCommand(env))
	root.AddCommand(NewImportCommand(env))
	root.AddCommand(NewClearCommand(env))
	root.AddCommand(NewMCPCommand(env))

	if err := root.Execute(); err != nil {
		xe := normalizeErr(err)
		format := resolveFormatForError(env.cfg.FormatStr, opts.stdout)
		_ = w.WriteError(format, xe)
		return int(errors.ExitCodeFor(xe.Code))
	}
	return int(errors.ExitOK)
}

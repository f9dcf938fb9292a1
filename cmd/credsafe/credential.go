package main

import (
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zx06/credsafe/internal/credstore"
	"github.com/zx06/credsafe/internal/errors"
)

// CredentialView is the output of get and set. Password is only filled with --show.
type CredentialView struct {
	Service    string `json:"service" yaml:"service"`
	UserName   string `json:"user,omitempty" yaml:"user,omitempty"`
	Password   string `json:"password,omitempty" yaml:"password,omitempty"`
	MemoryOnly bool   `json:"memory_only" yaml:"memory_only"`
	Store      string `json:"store" yaml:"store"`
}

func (v CredentialView) Columns() []string {
	cols := []string{"service", "user", "memory_only", "store"}
	if v.Password != "" {
		cols = append(cols, "password")
	}
	return cols
}

func (v CredentialView) Rows() [][]string {
	row := []string{v.Service, v.UserName, strconv.FormatBool(v.MemoryOnly), v.Store}
	if v.Password != "" {
		row = append(row, v.Password)
	}
	return [][]string{row}
}

// NewGetCommand creates the get command
func NewGetCommand(env *cliEnv) *cobra.Command {
	var user string
	var show bool
	cmd := &cobra.Command{
		Use:   "get <service>",
		Short: "Read a credential; the password is shown only with --show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := env.parseOutputFormat()
			if err != nil {
				return err
			}
			s := env.openSession()
			attrs := credstore.Attributes{Service: args[0], UserName: user}
			c, err := s.Safe.Get(attrs)
			if err != nil {
				return err
			}
			if c.IsEmpty() {
				return errors.New(errors.CodeSecretNotFound, "credential not found", map[string]any{"service": args[0], "user": user})
			}
			view := CredentialView{
				Service:    args[0],
				UserName:   c.UserName,
				MemoryOnly: c.HasPassword() && s.Safe.IsPasswordStoredOnlyInMemory(attrs, c),
				Store:      string(s.Safe.Current().Kind()),
			}
			if show {
				view.Password = c.PasswordString()
			}
			return env.w.WriteOK(format, view)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "User name (account) of the credential")
	cmd.Flags().BoolVar(&show, "show", false, "Include the password in the output")
	return cmd
}

// NewSetCommand creates the set command
func NewSetCommand(env *cliEnv) *cobra.Command {
	var (
		user       string
		fromStdin  bool
		memoryOnly bool
		pf         passwordFlags
	)
	cmd := &cobra.Command{
		Use:   "set <service>",
		Short: "Store a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := env.parseOutputFormat()
			if err != nil {
				return err
			}
			if fromStdin && pf.ref != "" {
				return errors.New(errors.CodeCfgInvalid, "--password and --password-stdin are mutually exclusive", nil)
			}
			var pw []byte
			if fromStdin {
				pw, err = readAllTrimmed(env.opts.stdin)
			} else {
				pw, err = env.readPassword(pf, "Password for "+args[0]+": ")
			}
			if err != nil {
				return err
			}

			s := env.openSession()
			attrs := credstore.Attributes{Service: args[0], UserName: user}
			creds := credstore.NewCredentials(user, pw)
			if memoryOnly {
				err = s.Safe.SetMemoryOnly(attrs, creds, true)
			} else {
				err = s.Safe.Set(attrs, creds)
			}
			if err != nil {
				return err
			}
			if err := s.Flush(); err != nil {
				return err
			}
			return env.w.WriteOK(format, CredentialView{
				Service:    args[0],
				UserName:   user,
				MemoryOnly: s.Safe.IsPasswordStoredOnlyInMemory(attrs, creds),
				Store:      string(s.Safe.Current().Kind()),
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "User name (account) of the credential")
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().BoolVar(&memoryOnly, "memory-only", false, "Keep the password in memory for this process only")
	addPasswordFlags(cmd.Flags(), &pf)
	return cmd
}

// NewRemoveCommand creates the remove command
func NewRemoveCommand(env *cliEnv) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "remove <service>",
		Short: "Remove a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := env.parseOutputFormat()
			if err != nil {
				return err
			}
			s := env.openSession()
			if err := s.Safe.Set(credstore.Attributes{Service: args[0], UserName: user}, nil); err != nil {
				return err
			}
			if err := s.Flush(); err != nil {
				return err
			}
			return env.w.WriteOK(format, map[string]any{"service": args[0], "user": user, "removed": true})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "User name (account) of the credential")
	return cmd
}

func readAllTrimmed(r io.Reader) ([]byte, error) {
	if r == nil {
		return requirePassword(nil)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, "failed to read password from stdin", nil, err)
	}
	return requirePassword([]byte(strings.TrimRight(string(b), "\r\n")))
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/zx06/credsafe/internal/errors"
	"github.com/zx06/credsafe/internal/secret"
)

type passwordFlags struct {
	ref            string
	allowPlaintext bool
}

// readPassword resolves a --password reference. Without one it prompts on a
// TTY without echo, or reads one line from stdin.
func (e *cliEnv) readPassword(pf passwordFlags, prompt string) ([]byte, error) {
	if pf.ref != "" {
		v, xe := secret.Resolve(pf.ref, secret.Options{AllowPlaintext: pf.allowPlaintext})
		if xe != nil {
			return nil, xe
		}
		return []byte(v), nil
	}

	if f, ok := e.opts.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(e.opts.stderr, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(e.opts.stderr)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, "failed to read password", nil, err)
		}
		return requirePassword(b)
	}
	return e.readStdinLine()
}

func (e *cliEnv) readStdinLine() ([]byte, error) {
	if e.opts.stdin == nil {
		return requirePassword(nil)
	}
	line, err := bufio.NewReader(e.opts.stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.CodeInternal, "failed to read password from stdin", nil, err)
	}
	return requirePassword([]byte(strings.TrimRight(line, "\r\n")))
}

func requirePassword(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, errors.New(errors.CodeCfgInvalid, "password is required", nil)
	}
	return b, nil
}

func addPasswordFlags(flags interface {
	StringVar(p *string, name, value, usage string)
	BoolVar(p *bool, name string, value bool, usage string)
}, pf *passwordFlags) {
	flags.StringVar(&pf.ref, "password", "", "Password reference: keyring:<account>|env:<NAME>|plaintext with --allow-plaintext; prompts when empty")
	flags.BoolVar(&pf.allowPlaintext, "allow-plaintext", false, "Allow a plaintext --password value")
}

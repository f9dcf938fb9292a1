package main

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/zx06/credsafe/internal/errors"
	"github.com/zx06/credsafe/internal/output"
)

// parseOutputFormat parses and validates the output format string
func (e *cliEnv) parseOutputFormat() (output.Format, error) {
	f, xe := output.ParseFormat(e.cfg.FormatStr)
	if xe != nil {
		return "", xe
	}
	return resolveAuto(f, e.opts.stdout), nil
}

// resolveFormatForError resolves the format for error output
func resolveFormatForError(s string, out io.Writer) output.Format {
	f, xe := output.ParseFormat(s)
	if xe != nil {
		f = output.FormatAuto
	}
	return resolveAuto(f, out)
}

// resolveAuto resolves "auto" format to appropriate format based on TTY
func resolveAuto(f output.Format, out io.Writer) output.Format {
	if f != output.FormatAuto {
		return f
	}
	if isTerminal(out) {
		return output.FormatTable
	}
	return output.FormatJSON
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// normalizeErr normalizes any error to XError
func normalizeErr(err error) *errors.XError {
	if xe, ok := errors.As(err); ok {
		return xe
	}
	// Preserve original error message
	return errors.Wrap(errors.CodeInternal, err.Error(), nil, err)
}

// confirmDestructive enforces --yes on destructive commands.
func confirmDestructive(yes bool, action string) error {
	if yes {
		return nil
	}
	return errors.New(errors.CodeCfgInvalid, action+" is destructive; pass --yes to confirm", map[string]any{"action": action})
}

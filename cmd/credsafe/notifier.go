package main

import (
	"io"

	"github.com/fatih/color"

	"github.com/zx06/credsafe/internal/credstore"
)

// newColorNotifier prints store downgrades as yellow warnings on w.
func newColorNotifier(w io.Writer) credstore.Notifier {
	title := color.New(color.FgYellow, color.Bold)
	body := color.New(color.FgYellow)
	return credstore.NotifierFunc(func(t, message string) {
		_, _ = title.Fprintf(w, "%s: ", t)
		_, _ = body.Fprintln(w, message)
	})
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/credsafe/internal/credstore"
)

// NewImportCommand creates the import command
func NewImportCommand(env *cliEnv) *cobra.Command {
	var pf passwordFlags
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an encrypted database file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := env.parseOutputFormat()
			if err != nil {
				return err
			}
			pw, err := env.readPassword(pf, "Master password for "+args[0]+": ")
			if err != nil {
				return err
			}
			s := env.openSession()
			if err := s.Configurator.Import(credstore.ImportRequest{Source: args[0], MasterPassword: pw}); err != nil {
				return err
			}
			if err := s.Persist(); err != nil {
				return err
			}
			return env.w.WriteOK(format, s.Status(true))
		},
	}
	addPasswordFlags(cmd.Flags(), &pf)
	return cmd
}

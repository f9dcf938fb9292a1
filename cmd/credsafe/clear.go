package main

import (
	"github.com/spf13/cobra"
)

// NewClearCommand creates the clear command
func NewClearCommand(env *cliEnv) *cobra.Command {
	var (
		file string
		yes  bool
		pf   passwordFlags
	)
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Erase all entries of an encrypted database",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := env.parseOutputFormat()
			if err != nil {
				return err
			}
			if err := confirmDestructive(yes, "clear"); err != nil {
				return err
			}
			s := env.openSession()
			if cmd.Flags().Changed("password") {
				pw, err := env.readPassword(pf, "Master password: ")
				if err != nil {
					return err
				}
				if err := s.Configurator.SetMasterPassword(pw); err != nil {
					return err
				}
			}
			path := file
			if path == "" {
				path = s.Safe.Settings().DBPath()
			}
			if err := s.Configurator.Clear(path); err != nil {
				return err
			}
			return env.w.WriteOK(format, map[string]any{"file": path, "cleared": true})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Database file; default: the configured one")
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the destructive operation")
	addPasswordFlags(cmd.Flags(), &pf)
	return cmd
}

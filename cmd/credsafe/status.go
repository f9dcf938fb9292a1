package main

import (
	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command
func NewStatusCommand(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active store",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := env.parseOutputFormat()
			if err != nil {
				return err
			}
			return env.w.WriteOK(format, env.openSession().Status(true))
		},
	}
}

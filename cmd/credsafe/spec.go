package main

import (
	"github.com/spf13/cobra"
)

// NewSpecCommand creates the spec command
func NewSpecCommand(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "spec",
		Short: "Export tool spec for AI/agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := env.parseOutputFormat()
			if err != nil {
				return err
			}
			return env.w.WriteOK(format, env.app.BuildSpec())
		},
	}
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/credsafe/internal/config"
	"github.com/zx06/credsafe/internal/errors"
)

// NewMasterPasswordCommand creates the master-password command group
func NewMasterPasswordCommand(env *cliEnv) *cobra.Command {
	mpCmd := &cobra.Command{
		Use:   "master-password",
		Short: "Encrypted file store master password commands",
	}
	mpCmd.AddCommand(newMasterPasswordSetCommand(env))
	return mpCmd
}

func newMasterPasswordSetCommand(env *cliEnv) *cobra.Command {
	var pf passwordFlags
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the master password of the encrypted file store",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := env.parseOutputFormat()
			if err != nil {
				return err
			}
			s := env.openSession()
			if s.Safe.Settings().EffectiveKind() != config.KindEncryptedFile {
				return errors.New(errors.CodeConfiguration, "active store is not an encrypted file; use `credsafe store use encrypted_file --password`", map[string]any{"kind": s.Safe.Settings().EffectiveKind()})
			}
			// a failed open has already fallen back to memory
			if s.Safe.Current().Kind() != config.KindEncryptedFile {
				return errors.New(errors.CodeConfiguration, "encrypted database could not be opened", map[string]any{
					"path": s.Safe.Settings().DBPath(),
					"hint": "run `credsafe import` with the right master password, or `credsafe clear --yes`",
				})
			}
			pw, err := env.readPassword(pf, "New master password: ")
			if err != nil {
				return err
			}
			if err := s.Configurator.SetMasterPassword(pw); err != nil {
				return err
			}
			if err := s.Persist(); err != nil {
				return err
			}
			return env.w.WriteOK(format, map[string]any{"file": s.Safe.Settings().DBPath(), "changed": true})
		},
	}
	addPasswordFlags(cmd.Flags(), &pf)
	return cmd
}

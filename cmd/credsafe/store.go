package main

import (
	"github.com/spf13/cobra"

	"github.com/zx06/credsafe/internal/config"
	"github.com/zx06/credsafe/internal/credstore"
	"github.com/zx06/credsafe/internal/errors"
)

// NewStoreCommand creates the store command group
func NewStoreCommand(env *cliEnv) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Credential store commands",
	}
	storeCmd.AddCommand(newStoreUseCommand(env))
	return storeCmd
}

func newStoreUseCommand(env *cliEnv) *cobra.Command {
	var (
		file    string
		migrate bool
		yes     bool
		pf      passwordFlags
	)
	cmd := &cobra.Command{
		Use:   "use <kind>",
		Short: "Switch the credential store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := env.parseOutputFormat()
			if err != nil {
				return err
			}
			kind, xe := config.ParseKind(args[0])
			if xe != nil {
				return xe
			}
			passwordSet := cmd.Flags().Changed("password")
			if passwordSet && kind != config.KindEncryptedFile {
				return errors.New(errors.CodeCfgInvalid, "--password only applies to encrypted_file", map[string]any{"kind": kind})
			}
			if file != "" && kind != config.KindEncryptedFile {
				return errors.New(errors.CodeCfgInvalid, "--file only applies to encrypted_file", map[string]any{"kind": kind})
			}

			s := env.openSession()
			fromFile := s.Safe.Settings().EffectiveKind() == config.KindEncryptedFile
			// converting to memory_only deletes the database file
			if kind == config.KindMemoryOnly && fromFile {
				if err := confirmDestructive(yes, "switching from encrypted_file to memory_only"); err != nil {
					return err
				}
			}
			// in-place conversion and migration need the file store opened
			if fromFile && (kind == config.KindMemoryOnly || (kind == config.KindKeychain && migrate)) {
				s.Safe.Current()
			}
			if passwordSet {
				pw, err := env.readPassword(pf, "Master password: ")
				if err != nil {
					return err
				}
				if err := s.Configurator.SetMasterPassword(pw); err != nil {
					return err
				}
			}

			if err := s.Configurator.Apply(credstore.Target{Kind: kind, Path: file, MigrateFileStore: migrate}); err != nil {
				return err
			}
			if err := s.Persist(); err != nil {
				return err
			}
			return env.w.WriteOK(format, s.Status(true))
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Database file for encrypted_file")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Move encrypted file entries into the keychain")
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm discarding the encrypted database")
	addPasswordFlags(cmd.Flags(), &pf)
	return cmd
}

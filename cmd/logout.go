// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"graphwatch/cli/internal/config"
	"graphwatch/cli/internal/keychain"
)

// logoutCmd represents the logout command for clearing stored credentials.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved API token and source DSN",
	Long: `The logout command removes the API token and the Postgres source DSN from the OS
keychain and forgets that a source was configured. Environment variables are not affected.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if km, err := keychain.GetManager(); err == nil {
			if err := km.ClearAll(); err != nil {
				return fmt.Errorf("clear keychain: %w", err)
			}
		}

		cfg, err := config.Load()
		if err == nil && cfg.Source.Provided {
			cfg.Source.Provided = false
			_ = config.Save(cfg)
		}

		fmt.Println("✅ All credentials have been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

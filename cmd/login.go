// Copyright (c) 2025 Graphwatch
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"graphwatch/cli/internal/config"
	"graphwatch/cli/internal/keychain"
)

var loginWithToken bool

// loginCmd stores the API token sent to GraphQL endpoints.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Store the API token used for GraphQL endpoints",
	Long: `The login command stores an API token in the OS keychain. The token is sent as a
bearer token to gRPC and HTTP endpoints. GRAPHWATCH_TOKEN takes precedence when set.

The token is read without echo from the terminal, or from stdin with --with-token:

  echo "$TOKEN" | graphwatch login --with-token`,

	RunE: func(cmd *cobra.Command, args []string) error {
		var token string
		var err error
		if loginWithToken || !term.IsTerminal(int(os.Stdin.Fd())) {
			token, err = readLine(cmd.InOrStdin())
		} else {
			token, err = promptSecret("Enter API token: ")
		}
		if err != nil {
			return err
		}
		token = strings.TrimSpace(token)
		if token == "" {
			return errors.New("API token is required")
		}

		km, err := keychain.GetManager()
		if err != nil {
			fmt.Println("❌ Secure storage is not available on this system.")
			fmt.Println("   Set " + config.EnvToken + " instead.")
			return err
		}
		if err := km.SaveAPIToken(token); err != nil {
			fmt.Println("❌ Failed to save the API token securely.")
			return err
		}

		fmt.Println("✅ API token saved to the OS keychain")
		return nil
	},
}

// promptSecret reads a line from the terminal without echoing it.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return string(b), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return line, nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().BoolVar(&loginWithToken, "with-token", false, "Read the token from standard input")
}

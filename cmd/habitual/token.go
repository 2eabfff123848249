package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/btouchard/habitual/internal/auth"
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token NAME",
		Short: "Generate an API token for the HTTP server",
		Long: `Generate a random API token and print its bcrypt hash.

Give the token to the client and add the hash to auth.api_tokens; the token
itself is not stored anywhere.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, hash, err := auth.GenerateToken()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Token (shown once): %s\n\n", token)
			fmt.Fprintf(out, "auth:\n  api_tokens:\n    - name: %q\n      token_hash: %q\n", args[0], hash)
			return nil
		},
	}
}

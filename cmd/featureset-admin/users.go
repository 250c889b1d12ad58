package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCreateUserCommand(adminCtx *adminContext) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Create a user with an API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := contextWithTimeout(cmd, 30*time.Second)
			defer cancel()

			username := args[0]
			if token == "" {
				generated, err := generateToken()
				if err != nil {
					return err
				}
				token = generated
			}

			db, err := connectDB(adminCtx)
			if err != nil {
				return err
			}
			defer closeDB(ctx, db, adminCtx.Logger)

			const query = `
				INSERT INTO users (username, api_token)
				VALUES ($1, $2)
				RETURNING id`

			var id string
			if err := db.QueryRowContext(ctx, query, username, token).Scan(&id); err != nil {
				return fmt.Errorf("insert user %q: %w", username, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "id:\t%s\nusername:\t%s\napi_token:\t%s\n", id, username, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "use a specific API token instead of generating one")

	return cmd
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

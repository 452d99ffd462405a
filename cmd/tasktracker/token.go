package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"task-tracker/internal/config"
	"task-tracker/internal/httpapi"
	"task-tracker/internal/repository"
)

func tokenCmd() *cobra.Command {
	var (
		userID     string
		telegramID int64
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token for a user",
		Long: `Issue an API bearer token for a user.

The user is either given by id or looked up by the Telegram account that
talked to the bot.

Examples:
  tasktracker token --user 6f1c0e9a-7d1b-4c55-9d0e-2a1f3b4c5d6e
  tasktracker token --telegram 123456789 --ttl 1h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (userID == "") == (telegramID == 0) {
				return errors.New("exactly one of --user or --telegram is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}

			if telegramID != 0 {
				db, err := repository.NewDB(cfg.DatabaseURL)
				if err != nil {
					return fmt.Errorf("db: %w", err)
				}
				defer repository.Close(db)

				user, err := repository.NewUserRepository(db).FindByTelegramID(cmd.Context(), telegramID)
				if err != nil {
					return fmt.Errorf("find telegram user %d: %w", telegramID, err)
				}
				userID = user.ID
			}

			token, err := httpapi.NewTokens(cfg.JWTSecret, ttl).Issue(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner id to put into the token subject")
	cmd.Flags().Int64Var(&telegramID, "telegram", 0, "Telegram user id to resolve the owner from")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to TOKEN_TTL_HOURS)")

	return cmd
}

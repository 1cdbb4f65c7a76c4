package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/pricebook/internal/auth"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for the turn API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is required")
			}
			user, _ := cmd.Flags().GetString("user")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			token, err := auth.NewJWTManager(a.cfg.JWTSecret, 24*time.Hour).Generate(user, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().String("user", "", "User id the token acts as (Telegram user id for a shared session).")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime.")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"PONTO-backend/internal/platform/auth"
)

func runUserAdd(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	name, _ := cmd.Flags().GetString("name")
	role, _ := cmd.Flags().GetString("role")

	conn, dialect, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	defer conn.Close()

	svc := auth.NewService(conn, dialect, cfg.Auth)
	if err := svc.Register(cmd.Context(), auth.RegisterInput{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     role,
	}); err != nil {
		return fmt.Errorf("user add: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "account %s created (%s)\n", email, role)
	return nil
}

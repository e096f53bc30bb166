package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/auth"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/service"
)

// createAdminCommand bootstraps the first ADMIN. Every later admin can be
// created over the API by an existing one.
func createAdminCommand(a *app) *cobra.Command {
	var in service.RegisterInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an ADMIN account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, a.cfg, a.logger)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer store.Close(ctx)

			tokens, err := auth.NewTokenService(a.cfg.JWTSecret, a.cfg.TokenTTL)
			if err != nil {
				return err
			}
			svc := service.NewAuthService(store.Users(), tokens, auth.NewPasswordService(), nil, a.logger)

			user, err := svc.Register(ctx, in, model.RoleAdmin)
			if err != nil {
				return fmt.Errorf("creating admin: %w", err)
			}
			a.logger.Info("admin created", zap.String("id", user.ID), zap.String("email", user.Email))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "admin email (required)")
	cmd.Flags().StringVar(&in.Name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&in.Password, "password", "", "password, 8 to 72 bytes (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

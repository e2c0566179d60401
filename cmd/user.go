package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-academy/app/entity"
	"github.com/vibast-solutions/ms-go-academy/app/service"
	"github.com/vibast-solutions/ms-go-academy/config"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Operator actions on user accounts",
}

var userVerifyCmd = &cobra.Command{
	Use:   "verify <email>",
	Short: "Mark an account as verified without the email round trip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUserService(func(ctx context.Context, users *service.UserService) error {
			return runUserVerify(ctx, users, cmd.OutOrStdout(), args[0])
		})
	},
}

var userSetRoleCmd = &cobra.Command{
	Use:   "set-role <email> <student|instructor|admin>",
	Short: "Assign a role to an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUserService(func(ctx context.Context, users *service.UserService) error {
			return runUserSetRole(ctx, users, cmd.OutOrStdout(), args[0], args[1])
		})
	},
}

var userRevokeSessionsCmd = &cobra.Command{
	Use:   "revoke-sessions <email>",
	Short: "Invalidate the stored refresh token of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUserService(func(ctx context.Context, users *service.UserService) error {
			return runUserRevokeSessions(ctx, users, cmd.OutOrStdout(), args[0])
		})
	},
}

func runUserVerify(ctx context.Context, users *service.UserService, out io.Writer, email string) error {
	user, err := users.MarkVerified(ctx, email)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "user_id: %s\n", user.ID)
	fmt.Fprintf(out, "email: %s\n", user.Email)
	fmt.Fprintf(out, "is_verified: %t\n", user.IsVerified)
	return nil
}

func runUserSetRole(ctx context.Context, users *service.UserService, out io.Writer, email, role string) error {
	user, err := users.SetRole(ctx, email, entity.Role(role))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "user_id: %s\n", user.ID)
	fmt.Fprintf(out, "email: %s\n", user.Email)
	fmt.Fprintf(out, "role: %s\n", user.Role)
	return nil
}

func runUserRevokeSessions(ctx context.Context, users *service.UserService, out io.Writer, email string) error {
	if err := users.RevokeSessions(ctx, email); err != nil {
		return err
	}
	fmt.Fprintf(out, "sessions revoked for %s\n", email)
	return nil
}

func init() {
	userCmd.AddCommand(userVerifyCmd)
	userCmd.AddCommand(userSetRoleCmd)
	userCmd.AddCommand(userRevokeSessionsCmd)
	rootCmd.AddCommand(userCmd)
}

func withUserService(fn func(ctx context.Context, users *service.UserService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := configureLogging(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	return fn(ctx, service.NewUserService(store, service.WithLogger(logrus.StandardLogger())))
}

package main

import (
	"errors"
	"strconv"
	"time"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/app"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/auth"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage library members",
}

var userAddCmd = &cobra.Command{
	Use:   "add EMAIL",
	Short: "Register a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		firstName, _ := cmd.Flags().GetString("first-name")
		lastName, _ := cmd.Flags().GetString("last-name")
		staff, _ := cmd.Flags().GetBool("staff")

		cfg := newConfig()
		id, err := app.AddUser(cmd.Context(), &cfg, app.Member{
			Email:     args[0],
			FirstName: firstName,
			LastName:  lastName,
			IsStaff:   staff,
		})
		if err != nil {
			return err
		}
		cmd.Printf("user %d created: %s\n", id, args[0])
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Remove a member without borrowings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		cfg := newConfig()
		if err := app.DeleteUser(cmd.Context(), &cfg, id); err != nil {
			return err
		}
		cmd.Printf("user %d deleted\n", id)
		return nil
	},
}

var userTokenCmd = &cobra.Command{
	Use:   "token ID",
	Short: "Issue a bearer token signed with JWT_KEY",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		staff, _ := cmd.Flags().GetBool("staff")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg := newConfig()
		if cfg.Auth.JWTKey == "" {
			return errors.New("JWT_KEY is not set")
		}
		token, err := auth.NewToken(auth.Principal{ID: id, IsPrivileged: staff}, []byte(cfg.Auth.JWTKey), ttl)
		if err != nil {
			return err
		}
		cmd.Println(token)
		return nil
	},
}

func init() {
	userAddCmd.Flags().String("first-name", "", "first name")
	userAddCmd.Flags().String("last-name", "", "last name")
	userAddCmd.Flags().Bool("staff", false, "grant staff privileges")
	userTokenCmd.Flags().Bool("staff", false, "staff token")
	userTokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	userCmd.AddCommand(userAddCmd, userDeleteCmd, userTokenCmd)
}

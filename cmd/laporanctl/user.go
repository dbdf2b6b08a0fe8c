package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"laporan/internal/auth"
	"laporan/internal/cli"
	"laporan/internal/core"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login accounts",
	}

	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			fullName, _ := cmd.Flags().GetString("full-name")
			admin, _ := cmd.Flags().GetBool("admin")

			role := core.RoleUser
			if admin {
				role = core.RoleAdmin
			}

			be := cli.OpenBackend(cmd.Context(), logger, cfg)
			defer be.Cleanup()

			u, err := auth.NewService(be.Store, nil, logger).CreateUser(cmd.Context(),
				core.User{Username: args[0], FullName: fullName, Role: role}, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", u.Username, u.Role, u.ID)
			return nil
		},
	}
	add.Flags().String("password", "", "account password, at least 6 characters")
	add.Flags().String("full-name", "", "display name")
	add.Flags().Bool("admin", false, "grant the admin role")
	_ = add.MarkFlagRequired("password")

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			be := cli.OpenBackend(cmd.Context(), logger, cfg)
			defer be.Cleanup()

			users, err := be.Store.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tNAME")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, u.FullName)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

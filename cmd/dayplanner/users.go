package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"day-planner/internal/store"
)

func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List known users and their stored workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			users, err := a.users.ListAll(ctx)
			if err != nil {
				return err
			}
			namespaces, err := a.records.Namespaces(ctx)
			if err != nil {
				return err
			}
			stored := make(map[string]bool, len(namespaces))
			for _, ns := range namespaces {
				stored[ns] = true
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Users")
			fmt.Fprintln(out, strings.Repeat("=", 40))
			if len(users) == 0 {
				fmt.Fprintln(out, "(none)")
			}
			for _, u := range users {
				ns := store.UserNamespace(u.TelegramID)
				name := strings.TrimSpace(u.FirstName + " " + u.LastName)
				if u.Username != "" {
					name += " @" + u.Username
				}
				fmt.Fprintf(out, "  %-14d %-30s workspace=%t\n", u.TelegramID, name, stored[ns])
				delete(stored, ns)
			}
			for ns := range stored {
				fmt.Fprintf(out, "  %-14s %-30s workspace=true\n", ns, "(unknown user)")
			}
			return nil
		},
	}
}

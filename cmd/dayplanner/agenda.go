package main

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"day-planner/internal/model"
	"day-planner/internal/service"
	"day-planner/internal/store"
)

func agendaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Print the hourly agenda of a user's day",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetInt64("user")
			date, _ := cmd.Flags().GetString("date")
			filter, _ := cmd.Flags().GetString("filter")

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if date == "" {
				date = model.FormatDate(time.Now())
			}
			st := a.registry.Open(context.Background(), store.UserNamespace(userID))
			view, err := a.tasks.Day(st, date, filter)
			if err != nil {
				return err
			}

			summary := a.reminders.DaySummary(view, a.categories.List(st), time.Now())
			fmt.Fprintln(cmd.OutOrStdout(), stripTags(summary))
			return nil
		},
	}

	cmd.Flags().Int64P("user", "u", 0, "Telegram user id owning the planner")
	cmd.Flags().StringP("date", "d", "", "Day to show, YYYY-MM-DD (default today)")
	cmd.Flags().StringP("filter", "f", service.FilterAll, "Category id or 'all'")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

var tagPattern = regexp.MustCompile(`</?[a-z]+>`)

var entityReplacer = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&#34;", `"`, "&#39;", "'", "&amp;", "&")

// stripTags turns the chat HTML summary into plain terminal text.
func stripTags(s string) string {
	return entityReplacer.Replace(tagPattern.ReplaceAllString(s, ""))
}

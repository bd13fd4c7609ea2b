package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"day-planner/internal/export"
	"day-planner/internal/model"
	"day-planner/internal/service"
	"day-planner/internal/store"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's day as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetInt64("user")
			date, _ := cmd.Flags().GetString("date")
			filter, _ := cmd.Flags().GetString("filter")
			out, _ := cmd.Flags().GetString("out")

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if date == "" {
				date = model.FormatDate(time.Now())
			}
			if out == "" {
				out = export.FileName(date)
			}

			st := a.registry.Open(context.Background(), store.UserNamespace(userID))
			body, err := export.DayCalendar(st.Tasks(), st.Categories(), date, filter, time.Now())
			if err != nil {
				return err
			}
			if out == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", date, out)
			return nil
		},
	}

	cmd.Flags().Int64P("user", "u", 0, "Telegram user id owning the planner")
	cmd.Flags().StringP("date", "d", "", "Day to export, YYYY-MM-DD (default today)")
	cmd.Flags().StringP("filter", "f", service.FilterAll, "Category id or 'all'")
	cmd.Flags().StringP("out", "o", "", "Output file, '-' for stdout (default planner-<date>.ics)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

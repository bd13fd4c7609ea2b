package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"day-planner/internal/bot"
	"day-planner/internal/service"
	"day-planner/internal/web"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the Telegram bot and the mini-app API",
		RunE: func(cmd *cobra.Command, args []string) error {
			noAPI, _ := cmd.Flags().GetBool("no-api")
			return runPlanner(!noAPI)
		},
	}

	cmd.Flags().Bool("no-api", false, "Run the bot without the mini-app API")

	return cmd
}

func runPlanner(withAPI bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.cfg.RequireToken(); err != nil {
		return err
	}

	telegramBot, err := bot.New(a.cfg.TelegramToken, a.users, a.registry, a.categories, a.tasks, a.reminders)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleDaily(a.cfg.RolloverAt, telegramBot.RolloverDays); err != nil {
		return err
	}
	if _, err := scheduler.ScheduleInterval(a.cfg.WorkspaceIdle, func() {
		if n := a.registry.EvictIdle(a.cfg.WorkspaceIdle); n > 0 {
			log.Printf("[info] evicted idle workspaces=%d", n)
		}
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	apiErr := make(chan error, 1)
	if withAPI {
		gin.SetMode(gin.ReleaseMode)
		server := web.NewServer(a.registry, a.tasks, a.categories, web.Options{
			Token:          a.cfg.TelegramToken,
			InitDataMaxAge: a.cfg.InitDataMaxAge,
			Users:          a.users,
		})
		go func() {
			if err := server.Run(ctx, a.cfg.HTTPAddr); err != nil {
				log.Printf("api stopped with error: %v", err)
				apiErr <- err
				stop()
			}
		}()
	}

	log.Println("Day planner started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	select {
	case err := <-apiErr:
		return err
	default:
	}
	log.Println("Shutdown complete.")
	return nil
}

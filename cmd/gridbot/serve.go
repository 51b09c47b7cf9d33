package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gridbot/internal/auth"
	"gridbot/internal/logger"
	"gridbot/internal/scheduler"
	"gridbot/internal/telegram"
	"gridbot/internal/webhook"
)

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the fulfilment webhook, and the Telegram bot when a token is configured",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(*envFile, os.Stdout)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	probe := scheduler.New(a.store, a.cfg.BackendProbeSchedule,
		scheduler.WithObserver(a.metrics.SetBackendUp),
		scheduler.WithLogger(logger.Component(a.log, "probe")),
	)
	if err := probe.Start(); err != nil {
		return err
	}
	defer probe.Stop()

	srv := webhook.NewServer(a.dispatcher, a.cfg.Port,
		webhook.WithProbe(probe),
		webhook.WithTurns(a.recorder),
		webhook.WithMetrics(a.metrics.Handler()),
		webhook.WithLogger(logger.Component(a.log, "webhook")),
	)

	var bot *telegram.Bot
	if a.cfg.TelegramBotToken != "" {
		users, err := auth.LoadUsers(a.cfg.TelegramAllowlist)
		if err != nil {
			return err
		}
		bot, err = telegram.New(a.cfg.TelegramBotToken, a.dispatcher, a.recognizer,
			auth.New(a.cfg.TelegramAllowedUsers, users), logger.Component(a.log, "telegram"))
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
	} else {
		a.log.Info().Msg("TELEGRAM_BOT_TOKEN not set, telegram channel disabled")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(ctx) })
	if bot != nil {
		g.Go(func() error {
			bot.Start(ctx)
			return nil
		})
	}
	return g.Wait()
}

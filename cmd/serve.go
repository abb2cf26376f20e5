package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/parlami/internal/bot"
	"github.com/abhisek/parlami/internal/transport/httpapi"
	"github.com/abhisek/parlami/internal/transport/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)

		a, err := openApp(cmd, true, "")
		if err != nil {
			return err
		}
		defer closeApp(a)

		cfg := a.Config
		if cfg.Telegram.Token == "" && cfg.HTTP.Addr == "" {
			return errors.New("nothing to serve: set telegram.token or http.addr")
		}

		g, gctx := errgroup.WithContext(ctx)

		var queued *bot.Dispatcher
		if cfg.Telegram.Token != "" {
			tg, err := telegram.New(telegram.Options{Token: cfg.Telegram.Token}, a.Log)
			if err != nil {
				return err
			}
			queued = a.Dispatcher(tg)
			g.Go(func() error { return tg.Run(gctx, queued) })
		}

		if cfg.HTTP.Addr != "" {
			srv := httpapi.New(a.Dispatcher(nil), a.Engine, a.Checks, a.Log)
			g.Go(func() error { return srv.ListenAndServe(gctx, cfg.HTTP.Addr) })
		}

		a.Log.Info("parlami serving", "telegram", cfg.Telegram.Token != "", "http", cfg.HTTP.Addr, "store", cfg.Store.Driver, "llm", cfg.LLM.Provider)
		err = g.Wait()

		if queued != nil {
			a.Log.Info("draining queued turns")
			queued.Wait()
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("serve: %w", err)
		}
		a.Log.Info("parlami stopped")
		return nil
	},
}

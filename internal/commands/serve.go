package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SamuelPereira26/Finhouse/internal/api"
	"github.com/SamuelPereira26/Finhouse/internal/bot"
	"github.com/SamuelPereira26/Finhouse/internal/logger"
	"github.com/SamuelPereira26/Finhouse/internal/notify"
	"github.com/SamuelPereira26/Finhouse/internal/reminder"
)

// snapshotInterval is how often serve flushes the file-backed store.
const snapshotInterval = time.Minute

func newServeCommand() *cobra.Command {
	var repoDir, addr, webhookURL string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, chat bot webhook and reminder scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, repoDir, addr, webhookURL)
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "public URL to register as the Telegram webhook")
	return cmd
}

func runServe(ctx context.Context, repoDir, addr, webhookURL string) error {
	log := logger.NewWithWriter(os.Stdout)

	e, err := openEnv(ctx, repoDir, log)
	if err != nil {
		return err
	}
	defer e.close()

	if addr == "" {
		addr = e.cfg.Server.Addr
	}
	if addr == "" {
		addr = ":8080"
	}

	opts := api.Options{APIToken: e.cfg.Server.APIToken, Log: log}
	tg := e.cfg.Notifier.Telegram
	if tg.BotToken != "" {
		sender := notify.NewTelegram(tg)
		opts.Bot = bot.NewHandler(sender, e.svc.BotContext(""), log)
		if webhookURL != "" {
			hook := strings.TrimRight(webhookURL, "/") + "/api/telegram/webhook"
			if token := e.cfg.Server.APIToken; token != "" {
				hook += "?token=" + url.QueryEscape(token)
			}
			if err := sender.SetWebhook(ctx, hook); err != nil {
				return fmt.Errorf("registering webhook: %w", err)
			}
			log.Info().Str("url", webhookURL).Msg("telegram webhook registered")
		}
	}

	r := reminder.New(e.cfg.Review, e.svc, e.notifier, log)
	sched, err := reminder.NewScheduler(r, e.cfg.Review.Schedule, e.cfg.Household.TimeZone, log)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(e.svc, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("time_zone", sched.Location().String()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("serving http: %w", err)
			}
			break loop
		case <-ticker.C:
			if err := e.save(); err != nil {
				log.Error().Err(err).Msg("snapshot failed")
			}
		case <-ctx.Done():
			break loop
		}
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	return e.save()
}

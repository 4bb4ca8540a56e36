package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/cli/config"
	httpctrl "github.com/minerva-bot/minerva/pkg/controller/http"
	"github.com/minerva-bot/minerva/pkg/service/worker"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe(loggerCfg *config.Logger, version string) *cli.Command {
	var addr string
	var disableTimer bool
	var rtCfg runtimeConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MINERVA_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "disable-timer",
			Usage:       "Do not run evaluation passes in process (use the check command from an external timer)",
			Sources:     cli.EnvVars("MINERVA_DISABLE_TIMER"),
			Destination: &disableTimer,
		},
	}
	flags = append(flags, rtCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server for slash commands and the reminder timer",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := rtCfg.setup(ctx, loggerCfg)
			if err != nil {
				return err
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithVersion(version),
			}
			if rtCfg.slack.IsCommandConfigured() {
				handler := httpctrl.NewSlackCommandHandler(rt.uc.Command)
				httpOpts = append(httpOpts, httpctrl.WithSlackCommand(handler, rtCfg.slack.SigningSecret()))
				logging.Default().Info("Slack slash command handler enabled")
			} else {
				logging.Default().Warn("Slack signing secret not configured, slash commands are disabled")
			}

			var reminderWorker *worker.ReminderWorker
			if !disableTimer {
				reminderWorker = worker.NewReminderWorker(
					func(ctx context.Context) error {
						_, err := rt.uc.Reminder.CheckEvents(ctx)
						return err
					},
					worker.WithSchedule(rtCfg.reminder.Schedule()),
					worker.WithLocation(rt.settings.Location),
				)
				if err := reminderWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start reminder worker")
				}
				logging.Default().Info("Next evaluation pass scheduled", "at", reminderWorker.Next())
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				reminderWorker.Stop()
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Stop the timer first so no pass starts during shutdown
				reminderWorker.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}

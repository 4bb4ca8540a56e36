package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/cli/config"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdCheck(loggerCfg *config.Logger) *cli.Command {
	var rtCfg runtimeConfig

	return &cli.Command{
		Name:  "check",
		Usage: "Run one reminder evaluation pass and exit (for an external timer)",
		Flags: rtCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := rtCfg.setup(ctx, loggerCfg)
			if err != nil {
				return err
			}

			report, err := rt.uc.Reminder.CheckEvents(ctx)
			if err != nil {
				return goerr.Wrap(err, "evaluation pass failed")
			}

			logging.Default().Info("Evaluation pass completed",
				"pass_id", report.ID,
				"events", report.Events,
				"reminders", report.Reminders,
			)
			return nil
		},
	}
}

package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/interh852/lunch-order/internal/config"
	"github.com/interh852/lunch-order/internal/db"
	"github.com/interh852/lunch-order/internal/errors"
	"github.com/interh852/lunch-order/internal/ops"
)

// workflowCommands names every cron entry point, in journal display order.
var workflowCommands = []string{
	"process-menus",
	"announce",
	"notify-orders",
	"weekly-order",
	"detect-changes",
	"reconcile-invoice",
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(database *sql.DB, cfg *config.Config, log *zap.SugaredLogger) *cli.App {
	app := &cli.App{
		Name:    "lunchctl",
		Usage:   "Company lunch order workflow",
		Version: Version,
		Commands: []*cli.Command{
			workflowCmd(database, cfg, log, "weekly-order",
				"Write the order card for the next open week and draft the order email",
				func(c *cli.Context, env *ops.Env) (any, error) { return ops.WeeklyOrder(c.Context, env) }),
			workflowCmd(database, cfg, log, "detect-changes",
				"Diff active weeks against their snapshots and report order changes",
				func(c *cli.Context, env *ops.Env) (any, error) { return ops.DetectChanges(c.Context, env) }),
			workflowCmd(database, cfg, log, "reconcile-invoice",
				"Check vendor invoice PDFs against the system's own monthly totals",
				func(c *cli.Context, env *ops.Env) (any, error) { return ops.ReconcileInvoice(c.Context, env) }),
			workflowCmd(database, cfg, log, "process-menus",
				"Extract menu rows from new PDFs into the menu sheet",
				func(c *cli.Context, env *ops.Env) (any, error) { return ops.ProcessMenus(c.Context, env) }),
			workflowCmd(database, cfg, log, "notify-orders",
				"Post the next open week's order roster to the channel",
				func(c *cli.Context, env *ops.Env) (any, error) { return ops.NotifyOrders(c.Context, env) }),
			workflowCmd(database, cfg, log, "announce",
				"Post the order-app announcement for the next open week",
				func(c *cli.Context, env *ops.Env) (any, error) { return ops.Announce(c.Context, env) }),
			statusCmd(database),
			validateConfigCmd(cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// workflowCmd wraps one operation: build the collaborator environment, run,
// print the JSON result.
func workflowCmd(database *sql.DB, cfg *config.Config, log *zap.SugaredLogger,
	name, usage string, run func(*cli.Context, *ops.Env) (any, error)) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			env, err := buildEnv(c.Context, database, cfg, log)
			if err != nil {
				return outputError(err)
			}
			output, err := run(c, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// statusCmd reports the latest journaled run of each workflow command.
func statusCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the latest run of each workflow command",
		Action: func(c *cli.Context) error {
			type entry struct {
				Command    string  `json:"command"`
				Status     string  `json:"status,omitempty"`
				StartedAt  int64   `json:"started_at,omitempty"`
				FinishedAt *int64  `json:"finished_at,omitempty"`
				Note       *string `json:"note,omitempty"`
			}
			var entries []entry
			for _, command := range workflowCommands {
				run, err := db.LatestRun(database, command)
				if errors.Is(err, errors.ErrNotFound) {
					entries = append(entries, entry{Command: command})
					continue
				}
				if err != nil {
					return outputError(err)
				}
				entries = append(entries, entry{
					Command:    command,
					Status:     run.Status,
					StartedAt:  run.StartedAt,
					FinishedAt: run.FinishedAt,
					Note:       run.Note,
				})
			}
			return outputJSON(entries)
		},
	}
}

// validateConfigCmd checks the loaded configuration without touching any
// external service.
func validateConfigCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "validate-config",
		Usage: "Check that every required setting is present",
		Action: func(c *cli.Context) error {
			if err := cfg.Validate(); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]bool{"valid": true})
		},
	}
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if wErr, ok := err.(*errors.WorkflowError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", wErr.Code, wErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

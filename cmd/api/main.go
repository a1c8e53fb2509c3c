// Package main is the entry point for the reservation-service API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commonFlags builds the flags every command accepts. Each command gets its
// own instances since flags hold parse state.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "path to the YAML config file (default ./config/config.yaml)",
			Sources: cli.EnvVars("APP_CONFIG"),
		},
		&cli.StringFlag{
			Name:  "env",
			Usage: "path to a .env file loaded before the config",
			Value: ".env",
		},
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "reservation-service",
		Usage: "booking API that never lets two reservations share a day",
		Flags: commonFlags(),
		// Running without a subcommand serves the API.
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the overlap audit",
				Flags:  commonFlags(),
				Action: serveAction,
			},
			{
				Name:  "migrate",
				Usage: "database schema commands",
				Commands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "apply pending migrations",
						Flags:  commonFlags(),
						Action: migrateUpAction,
					},
					{
						Name:   "rollback",
						Usage:  "revert the last applied migration",
						Flags:  commonFlags(),
						Action: migrateRollbackAction,
					},
					{
						Name:   "status",
						Usage:  "list migrations that have not been applied",
						Flags:  commonFlags(),
						Action: migrateStatusAction,
					},
				},
			},
			{
				Name:  "audit",
				Usage: "scan stored reservations for overlapping stays once and exit",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "run even if another instance audited recently",
					},
				}, commonFlags()...),
				Action: auditAction,
			},
		},
	}
}

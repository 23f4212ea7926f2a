package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dario/cardvault/cmd/app/commands"
	"github.com/dario/cardvault/internal/app"
	"github.com/dario/cardvault/internal/config"
)

func getCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Create the card table and the store and lookup procedures",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "health-check",
			Usage: "Probe the backing store once and print the result envelope",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				if err := cfg.Validate(); err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				vaultUseCase, err := container.VaultUseCase()
				if err != nil {
					return err
				}

				return commands.RunHealthCheck(ctx, vaultUseCase, container.Logger(), os.Stdout)
			},
		},
		{
			Name:  "create-encryption-key",
			Usage: "Generate a new card encryption key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "kms-key-uri",
					Aliases: []string{"k"},
					Usage:   "Wrap the key with this KMS key (gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)

				return commands.RunCreateEncryptionKey(
					ctx,
					container.KMSService(),
					container.Logger(),
					os.Stdout,
					cmd.String("kms-key-uri"),
				)
			},
		},
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/mindatlas/internal"
	pkgconfig "github.com/starford/mindatlas/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	used, err := pkgconfig.LoadOrDefaults(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !used {
		slog.Debug("config file not found, using defaults", slog.String("path", configPath))
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func login(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if raw := cmd.String("token"); raw != "" {
		return internal.UseToken(ctx, raw, internal.WithConfig(cfg))
	}
	mail, password := cmd.String("mail"), cmd.String("password")
	if mail == "" || password == "" {
		return fmt.Errorf("either --token or both --mail and --password are required")
	}
	return internal.Login(ctx, mail, password, internal.WithConfig(cfg))
}

func logout(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Logout(ctx, internal.WithConfig(cfg))
}

func whoami(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Whoami(ctx, internal.WithConfig(cfg))
}

func inspectToken(_ context.Context, cmd *cli.Command) error {
	raw := cmd.Args().First()
	if raw == "" {
		return fmt.Errorf("usage: token inspect <token>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.InspectToken(raw, time.Now(), internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:   "mindatlas",
		Usage:  "Session, access control and mind map library for the academic mind-mapping app",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:   "login",
				Usage:  "Sign in against the backend and store the session",
				Action: login,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mail", Usage: "Account email", Sources: cli.EnvVars("MINDATLAS_MAIL")},
					&cli.StringFlag{Name: "password", Usage: "Account password", Sources: cli.EnvVars("MINDATLAS_PASSWORD")},
					&cli.StringFlag{Name: "token", Usage: "Store an already issued token instead of signing in"},
				},
			},
			{
				Name:   "logout",
				Usage:  "Clear the stored session",
				Action: logout,
			},
			{
				Name:   "whoami",
				Usage:  "Show the identity derived from the stored session",
				Action: whoami,
			},
			{
				Name:  "token",
				Usage: "Token utilities",
				Commands: []*cli.Command{
					{
						Name:      "inspect",
						Usage:     "Decode a token and print its claims",
						ArgsUsage: "<token>",
						Action:    inspectToken,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/brandoo/console/internal"
	pkgconfig "github.com/brandoo/console/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	cfg := internal.NewDefaultConfig()
	loaded, err := pkgconfig.LoadOptional(cmd.String("config"), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !loaded {
		slog.Debug("config file not found, using defaults", slog.String("path", cmd.String("config")))
	}
	return []internal.Option{internal.WithConfig(cfg)}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithLogOutput(os.Stderr))
	if err := internal.RunMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func login(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithLogOutput(os.Stderr))
	user, err := internal.Login(ctx, cmd.String("email"), cmd.String("password"), opts...)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Printf("Signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func logout(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithLogOutput(os.Stderr))
	if err := internal.Logout(ctx, opts...); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	fmt.Println("Signed out")
	return nil
}

func exportContacts(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithLogOutput(os.Stderr))

	formID := cmd.String("form")
	out := cmd.String("out")
	if out == "" {
		out = formID + ".xlsx"
	}
	var buf bytes.Buffer
	if err := internal.ExportContacts(ctx, formID, &buf, opts...); err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Println(out)
	return nil
}

func eventICS(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithLogOutput(os.Stderr))

	var buf bytes.Buffer
	name, err := internal.EventICS(ctx, cmd.String("event"), &buf, opts...)
	if err != nil {
		return err
	}
	out := cmd.String("out")
	if out == "" {
		out = name
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Println(out)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "brandoo-console",
		Usage:  "Local console for Brandoo forms, content, statistics and contacts",
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
				Usage:  "Run the HTTP console (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools on stdio",
				Action: serveMCP,
			},
			{
				Name:   "login",
				Usage:  "Sign in and store the session in the data directory",
				Action: login,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true, Sources: cli.EnvVars("BRANDOO_EMAIL")},
					&cli.StringFlag{Name: "password", Required: true, Sources: cli.EnvVars("BRANDOO_PASSWORD")},
				},
			},
			{
				Name:   "logout",
				Usage:  "Remove the stored session",
				Action: logout,
			},
			{
				Name:   "export-contacts",
				Usage:  "Export the responses of a form as xlsx",
				Action: exportContacts,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "form", Required: true, Usage: "Form id"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default <form>.xlsx)"},
				},
			},
			{
				Name:   "event-ics",
				Usage:  "Download an event as an iCalendar file",
				Action: eventICS,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "event", Required: true, Usage: "Event id"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default derived from the title)"},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

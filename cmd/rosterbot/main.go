// Command rosterbot runs the group registration bot and its maintenance tools.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/m3rciful/rosterbot/core/buildinfo"
	corecmd "github.com/m3rciful/rosterbot/core/cmd"
	coreconfig "github.com/m3rciful/rosterbot/core/config"
	"github.com/m3rciful/rosterbot/internal/app"
	"github.com/m3rciful/rosterbot/internal/locale"
	"github.com/m3rciful/rosterbot/internal/store"
)

const defaultConfigPath = "config.yml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "rosterbot",
		Short:        "Telegram bot for group member registration",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "YAML config path (CONFIG_PATH overrides)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the bot",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), configPath)
			},
		},
		groupsCmd(&configPath),
		exportCmd(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "rosterbot %s\n", buildinfo.String())
			},
		},
	)
	return cmd
}

func serve(ctx context.Context, configPath string) error {
	return corecmd.Run(ctx, corecmd.Options{
		ConfigPath: configPath,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := coreconfig.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.Bootstrap(ctx, cfg.CoreConfig(), app.Options{})
		},
	})
}

func openOffline(ctx context.Context, configPath string) (*coreconfig.Config, *store.Repository, error) {
	cfg, err := coreconfig.LoadOffline(corecmd.ResolveConfigPath("", configPath))
	if err != nil {
		return nil, nil, err
	}
	repo, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	return cfg, repo, nil
}

func groupsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List registered groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, repo, err := openOffline(ctx, *configPath)
			if err != nil {
				return err
			}
			defer repo.Close()
			return app.WriteGroups(ctx, repo, cmd.OutOrStdout())
		},
	}
}

func exportCmd(configPath *string) *cobra.Command {
	var (
		groupID int64
		out     string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the registration CSV of a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, repo, err := openOffline(ctx, *configPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return app.ExportCSV(ctx, repo, locale.Load(ctx, cfg.Locale.Path), groupID, w)
		},
	}
	cmd.Flags().Int64Var(&groupID, "group", 0, "Group chat id")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Output file, - for stdout")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/riserecover/server/config"
	"github.com/riserecover/server/routes"
	"github.com/riserecover/server/utils"
)

var configPath string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "riserecover",
		Short:         "Rise & Recover API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadFrom(configPath)
			return utils.InitLogger(cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the JSON configuration file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "bootstrap",
		Short: "Seed the default admin, chat log and resource configuration, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), config.Get())
			if err != nil {
				return err
			}
			defer a.Close()
			seeded, err := a.accounts.Bootstrap(cmd.Context(), config.Get().AdminPassword)
			if err != nil {
				return err
			}
			utils.Sugar.Infof("bootstrap finished, admin created: %t", seeded)
			return nil
		},
	})
	return root
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	cfg := config.Get()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.accounts.Bootstrap(ctx, cfg.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	r := routes.SetupRouter(a.deps())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.hub.Run(gctx)
	})
	g.Go(func() error {
		defer stop()
		utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
		return utils.GraceServer(gctx, ":"+cfg.AppPort, r)
	})
	if err := g.Wait(); err != nil {
		utils.Sugar.Errorf("server stopped with error: %v", err)
		return err
	}
	utils.Sugar.Info("server stopped")
	return nil
}

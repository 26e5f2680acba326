package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/echoface/admediation/internal/config"
	"github.com/echoface/admediation/internal/hostserver"
	pkgconfig "github.com/echoface/admediation/pkg/config"
)

var configFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mediation host HTTP server",
	Long: `Start the mediation host. Without --config the file is picked from
conf/<RUN_TYPE>.yaml (RUN_TYPE defaults to test).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to the host config file")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, path, err := config.LoadHostConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	l, err := cfg.NewLogger(config.HostServiceName, pkgconfig.GetRunType())
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	l.Info("config loaded", "file", path, "units", len(cfg.Units), "adapters", len(cfg.Adapters))

	sc, err := hostserver.NewServerContext(cfg, version, l)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return sc.Start(ctx)
}

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	// adapters register themselves with mediation.DefaultRegistry
	_ "github.com/echoface/admediation/internal/adapters/duad"
	_ "github.com/echoface/admediation/internal/adapters/fyber"
)

var version = "v1.0.0-dev"

var rootCmd = &cobra.Command{
	Use:   "mediation_host",
	Short: "Mediation host for the Fyber and DU ad network adapters",
	Long: `mediation_host loads ad network adapters, initializes them with the
configured ad units and serves load/show requests over HTTP.`,
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()

	rootCmd.AddCommand(serveCmd, adaptersCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

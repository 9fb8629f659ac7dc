package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"evstation/app"
	"evstation/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "evstation",
	Short: "OCPP 2.0.1 charging station with smart charging",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the CSMS and serve the local API",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yml", "configuration file")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := config.GetConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	station, err := app.New(conf)
	if err != nil {
		return fmt.Errorf("charging station initialization failed: %w", err)
	}
	defer func() {
		if err := station.Close(); err != nil {
			log.Println("closing charging station:", err)
		}
	}()
	return station.Run(ctx)
}

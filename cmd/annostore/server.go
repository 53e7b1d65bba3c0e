package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openbio/annostore/internal/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the annotation API server.  All configured databases are
opened read-only; interval trees are built lazily on first range query
and kept for the process lifetime.`,
	Example: `  annostore server --config server.yaml
  annostore server --config server.yaml --port 3000`,
	RunE: runServer,
}

var (
	serverConfigPath string
	serverHost       string
	serverPort       int
)

func init() {
	serverCmd.Flags().StringVar(&serverConfigPath, "config", "", "Path to server configuration file")
	serverCmd.Flags().StringVar(&serverHost, "host", "", "Host to bind to (overrides config)")
	serverCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "Port to listen on (overrides config)")
	serverCmd.MarkFlagRequired("config")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := server.LoadConfig(serverConfigPath)
	if err != nil {
		return err
	}
	if serverHost != "" {
		cfg.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Port = serverPort
	}

	srv, err := server.New(cfg, version)
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/exocortex-go/exocortex/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the read/write dashboard JSON API over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() {
	a, err := openApp()
	if err != nil {
		fatalf("Error: %v", err)
	}
	defer a.close()

	if !a.cfg.API.Enabled {
		fatalf("the dashboard API is disabled in config (api.enabled=false)")
	}

	server := api.NewServer(a.svc, &a.cfg.API)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Println("Starting dashboard API, press Ctrl+C to stop")
	if err := server.StartWithContext(ctx, 10*time.Second); err != nil {
		fatalf("Error running server: %v", err)
	}
}

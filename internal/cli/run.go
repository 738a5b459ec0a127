package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/minhct/snapflow/internal/control"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a single capture flow and print the attempt history",
	Run:   runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewApp(control.Config{
		Port:     cfg.Server.Port,
		Flow:     cfg.Flow,
		Cache:    cfg.Cache,
		Database: cfg.Database,
	})
	if err != nil {
		slog.Error("Failed to initialize snapflow", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := app.Runner()
	ok := r.Run(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{
		"success":  ok,
		"attempts": r.History(),
		"metrics":  r.Metrics(),
	})

	shutdownCtx := context.Background()
	if err := app.Stop(shutdownCtx); err != nil {
		slog.Warn("Error during shutdown", "error", err)
	}

	if !ok {
		os.Exit(1)
	}
}

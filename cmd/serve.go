package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/store"
	"github.com/kozaktomas/facegate/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the facegate HTTP API",
	Long: `Start the facegate web server.
The API exposes access checks and identity listings over HTTP. With an
API token configured (FACEGATE_API_TOKEN) all routes except the health
check require bearer authentication.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// initIndex builds or loads the HNSW index used to accelerate access
// checks. Failures are not fatal; matching falls back to the linear scan.
func initIndex(ctx context.Context, st store.Store, indexPath string) *store.HNSWIndex {
	index := store.NewHNSWIndex()

	records, err := st.Load(ctx)
	if err != nil {
		fmt.Printf("Warning: failed to load identities for HNSW index: %v\n", err)
		return index
	}

	if indexPath != "" {
		fmt.Printf("Loading HNSW index from %s...\n", indexPath)
		if err := index.Load(indexPath, records); err != nil {
			fmt.Printf("Warning: failed to load HNSW index: %v\n", err)
		}
	}

	if err := index.Sync(records); err != nil {
		fmt.Printf("Warning: failed to build HNSW index: %v\n", err)
		fmt.Printf("Access checks will use a linear scan (slower)\n")
		return index
	}
	fmt.Printf("HNSW index ready with %d identities\n", index.Count())
	return index
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Database.URL != "" {
		fmt.Println("Using PostgreSQL identity store")
	} else {
		fmt.Printf("Using JSON identity store at %s\n", cfg.Store.Path)
	}

	index := initIndex(ctx, st, cfg.Database.HNSWIndexPath)
	matcher := &store.IndexedMatcher{Index: index, Threshold: cfg.Match.Threshold}

	var recorder access.Recorder
	if cfg.Audit.LogPath != "" {
		recorder = newRecorder(cfg)
		fmt.Printf("Audit log enabled at %s\n", cfg.Audit.LogPath)
	}

	server := web.NewServer(cfg, st, matcher, recorder)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		if cfg.Database.HNSWIndexPath != "" {
			index.SetPath(cfg.Database.HNSWIndexPath)
			if err := index.Save(); err != nil {
				fmt.Printf("Warning: failed to save HNSW index: %v\n", err)
			} else {
				fmt.Println("HNSW index saved to disk")
			}
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting facegate API on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

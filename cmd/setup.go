package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/audit"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/store"
	"github.com/kozaktomas/facegate/internal/store/postgres"
)

// openStore selects the store backend from config: PostgreSQL when
// DATABASE_URL is set, the local JSON file otherwise. The returned cleanup
// function must be called when done.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.Database.URL == "" {
		return store.NewJSONStore(cfg.Store.Path), func() {}, nil
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	if err := postgres.Migrate(ctx, pool, cfg.Database.EmbeddingDim); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrating database: %w", err)
	}
	if err := postgres.CreateVectorIndex(ctx, pool); err != nil {
		fmt.Printf("Warning: failed to create vector index: %v\n", err)
	}
	return postgres.NewIdentityRepository(pool), func() { _ = pool.Close() }, nil
}

// newRecorder returns the audit recorder from config, or nil when auditing
// is disabled.
func newRecorder(cfg *config.Config) access.Recorder {
	if cfg.Audit.LogPath == "" {
		return nil
	}
	return audit.NewLog(cfg.Audit.LogPath)
}

// readEmbedding reads one embedding as a JSON array of numbers, either from
// the given file or from stdin when path is "-" or empty.
func readEmbedding(path string) ([]float32, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading embedding: %w", err)
	}

	var embedding []float32
	if err := json.Unmarshal(data, &embedding); err != nil {
		return nil, fmt.Errorf("parsing embedding (expected JSON array of numbers): %w", err)
	}
	return embedding, nil
}

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/identity"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Bulk import identity records from a JSONL file",
	Long: `Import identity records from a file with one JSON object per line:

  {"id": "...", "features": [...], "allowed": true}

Missing ids are generated. Lines with an empty embedding or invalid JSON
are skipped with a warning count. Records are appended in file order; no
similarity deduplication is performed.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	ctx := cmd.Context()
	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	bar := progressbar.Default(-1, "importing identities")

	imported, skipped := 0, 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec identity.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil || len(rec.Embedding) == 0 {
			skipped++
			continue
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}

		if err := st.Append(ctx, rec); err != nil {
			return fmt.Errorf("importing record %s: %w", rec.ID, err)
		}
		imported++
		_ = bar.Add(1)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}
	_ = bar.Finish()

	fmt.Printf("\nImported %d identities", imported)
	if skipped > 0 {
		fmt.Printf(" (%d invalid lines skipped)", skipped)
	}
	fmt.Println()
	return nil
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/config"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities",
	Short: "List enrolled identities",
	RunE:  runIdentities,
}

func init() {
	rootCmd.AddCommand(identitiesCmd)

	identitiesCmd.Flags().Bool("json", false, "Output as JSON")
}

func runIdentities(cmd *cobra.Command, args []string) error {
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

	records, err := st.Load(ctx)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tALLOWED\tDIM\tCREATED")
	for i := range records {
		created := ""
		if !records[i].CreatedAt.IsZero() {
			created = records[i].CreatedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%v\t%d\t%s\n", records[i].ID, records[i].Allowed, records[i].Dim(), created)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d identities enrolled\n", len(records))
	return nil
}

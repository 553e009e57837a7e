package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/identity"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll an embedding with an explicit access decision",
	Long: `Enroll one face embedding without an interactive prompt.

The embedding is matched first: if it already corresponds to an enrolled
identity, nothing is persisted and the existing identity is reported.
Otherwise the embedding is enrolled with the decision given by --allow
or --deny.

Examples:
  facegate enroll --allow --file embedding.json
  facegate enroll --deny --file embedding.json`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("file", "", "File with the embedding (JSON array), \"-\" or empty for stdin")
	enrollCmd.Flags().Bool("allow", false, "Grant access to the enrolled identity")
	enrollCmd.Flags().Bool("deny", false, "Deny access to the enrolled identity")
	enrollCmd.MarkFlagsMutuallyExclusive("allow", "deny")
	enrollCmd.MarkFlagsOneRequired("allow", "deny")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	embedding, err := readEmbedding(mustGetString(cmd, "file"))
	if err != nil {
		return err
	}
	allowed := mustGetBool(cmd, "allow")

	ctx := cmd.Context()
	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	matcher := identity.NewMatcher(cfg.Match.Threshold)
	ctrl := access.NewController(st, matcher, access.StaticDecision(allowed)).WithRecorder(newRecorder(cfg))

	result, err := ctrl.Check(ctx, embedding)
	if err != nil {
		return err
	}

	if !result.NewIdentity {
		fmt.Printf("Already enrolled as %s (allowed: %v), nothing persisted\n", result.Record.ID, result.Allowed)
		return nil
	}
	fmt.Printf("Enrolled %s (allowed: %v)\n", result.Record.ID, result.Allowed)
	return nil
}

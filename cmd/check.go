package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/identity"
)

// errAccessDenied signals exit status 2 to Execute after deferred cleanup
// (store connections, .env state) has run.
var errAccessDenied = errors.New("access denied")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check an embedding against enrolled identities",
	Long: `Check one face embedding against the identity store.

The embedding is read as a JSON array of numbers from --file, or from
stdin when --file is omitted or "-".

A matched identity returns its stored decision. An unknown identity is
enrolled: by default you are prompted for the decision on the terminal,
--on-unknown allow|deny enrolls without prompting.

Exit status is 0 when access is granted and 2 when it is denied.

Examples:
  # Prompt for unknown faces (interactive)
  facegate check --file embedding.json

  # Deny and enroll unknown faces without prompting
  cat embedding.json | facegate check --on-unknown deny`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().String("file", "", "File with the embedding (JSON array), \"-\" or empty for stdin")
	checkCmd.Flags().String("on-unknown", "prompt", "Decision for unknown identities: prompt, allow or deny")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	embedding, err := readEmbedding(mustGetString(cmd, "file"))
	if err != nil {
		return err
	}

	var provider access.DecisionProvider
	switch onUnknown := mustGetString(cmd, "on-unknown"); onUnknown {
	case "prompt":
		provider = &access.TerminalPrompter{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
	case "allow":
		provider = access.StaticDecision(true)
	case "deny":
		provider = access.StaticDecision(false)
	default:
		return fmt.Errorf("invalid --on-unknown value %q (use prompt, allow or deny)", onUnknown)
	}

	ctx := cmd.Context()
	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	matcher := identity.NewMatcher(cfg.Match.Threshold)
	ctrl := access.NewController(st, matcher, provider).WithRecorder(newRecorder(cfg))

	result, err := ctrl.Check(ctx, embedding)
	if err != nil {
		return err
	}

	switch {
	case result.Allowed && !result.NewIdentity:
		fmt.Println("Welcome back!")
	case result.Allowed:
		fmt.Println("Access granted. Welcome!")
	default:
		fmt.Println("ALERT: Access denied! Unauthorized entry!")
	}
	fmt.Printf("Identity: %s (new: %v)\n", result.Record.ID, result.NewIdentity)

	if !result.Allowed {
		return errAccessDenied
	}
	return nil
}

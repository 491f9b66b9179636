package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/promptdex/internal/db"
)

// indexCmd groups ranked text index operations
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the ranked text index",
}

var indexCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the ranked text index if it is missing",
	Long: `Create the ranked text index used by full-text search.
The command is idempotent. Backends without ranked text support
(valkey) report that search falls back to substring matching.

Examples:
  # Create the index for the local environment
  promptdexctl index create

  # Use an explicit config file
  promptdexctl index create --config config/prod.yaml`,
	Args: cobra.NoArgs,
	RunE: runIndexCreate,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the ranked text index exists",
	Args:  cobra.NoArgs,
	RunE:  runIndexStatus,
}

func init() {
	indexCmd.AddCommand(indexCreateCmd)
	indexCmd.AddCommand(indexStatusCmd)
}

func runIndexCreate(cmd *cobra.Command, _ []string) error {
	e, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()

	out := cmd.OutOrStdout()
	created, err := e.backend.Templates.EnsureIndex(cmd.Context())
	if errors.Is(err, db.ErrTextSearchUnsupported) {
		fmt.Fprintf(out, "%s has no ranked text index; full-text search uses substring matching\n", e.backend.Driver)
		return nil
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	switch {
	case created:
		fmt.Fprintln(out, "index created")
	default:
		fmt.Fprintln(out, "index already exists")
	}
	return nil
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	e, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()

	ready, err := e.backend.Templates.IndexReady(cmd.Context())
	if err != nil {
		return fmt.Errorf("probe index: %w", err)
	}
	if ready {
		fmt.Fprintln(cmd.OutOrStdout(), "ready")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "missing")
	}
	return nil
}

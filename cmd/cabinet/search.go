// Search command finds patients by name or contact details.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search patients by name, email, or phone",
	Long: `Search matches the query against patient names, email addresses,
and phone numbers. Requires the full SQL storage tier.

Example:
  cabinet search morel`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := manager.Local(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		tier, _ := manager.Tier(ctx)
		return fmt.Errorf("search needs the SQL storage tier (running on %s)", tier)
	}

	patients, err := store.Patients().Search(ctx, args[0])
	if err != nil {
		return fmt.Errorf("search patients: %w", err)
	}
	return printRecord(patients)
}

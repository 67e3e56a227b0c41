// List command queries the active records of an entity kind.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osteokit/cabinet/pkg/types"
)

var listCmd = &cobra.Command{
	Use:   "list <kind>",
	Short: "List active records of a kind",
	Long: fmt.Sprintf(`List prints all records of the given kind that are not deleted,
most recently updated first.

Valid kinds: %s

Example:
  cabinet list patients
  cabinet list appointments --json`, validKindsStr),
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}

	recs, err := manager.GetAll(cmd.Context(), kind)
	if err != nil {
		return fmt.Errorf("list %s: %w", kind, err)
	}
	if recs == nil {
		recs = []types.Record{}
	}
	return printRecord(recs)
}

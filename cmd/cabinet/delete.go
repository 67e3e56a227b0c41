// Delete command soft-deletes (or purges) a record.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/osteokit/cabinet/pkg/types"
)

var flagPurge bool

var deleteCmd = &cobra.Command{
	Use:   "delete <kind> <id>",
	Short: "Delete a record",
	Long: fmt.Sprintf(`Delete marks the record as deleted; it disappears from list and
get but its data is retained. --purge removes the row physically,
which is intended for confirmed erasure requests only.

Valid kinds: %s

Example:
  cabinet delete patients 12
  cabinet delete patients 12 --purge`, validKindsStr),
	Args: cobra.ExactArgs(2),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVar(&flagPurge, "purge", false, "physically remove the record")
}

func runDelete(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[1], types.ErrInvalidData)
	}
	ctx := cmd.Context()

	if flagPurge {
		if err := manager.Purge(ctx, kind, id); err != nil {
			return fmt.Errorf("purge %s %d: %w", kind, id, err)
		}
		fmt.Printf("Purged %s %d\n", kind, id)
		return nil
	}

	deleted, err := manager.Delete(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	if !deleted {
		return fmt.Errorf("%s %d: %w", kind, id, types.ErrNotFound)
	}
	fmt.Printf("Deleted %s %d\n", kind, id)
	return nil
}

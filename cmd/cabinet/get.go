// Get command retrieves a record by id.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/osteokit/cabinet/pkg/types"
)

var getCmd = &cobra.Command{
	Use:   "get <kind> <id>",
	Short: "Get a record by id",
	Long: fmt.Sprintf(`Get retrieves one record of the given kind by its id.

Valid kinds: %s

Example:
  cabinet get patients 12`, validKindsStr),
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[1], types.ErrInvalidData)
	}

	rec, err := manager.GetByID(cmd.Context(), kind, id)
	if err != nil {
		return fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	if rec == nil {
		return fmt.Errorf("%s %d: %w", kind, id, types.ErrNotFound)
	}
	return printRecord(rec)
}

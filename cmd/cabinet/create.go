// Create command inserts a record from a JSON document.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osteokit/cabinet/pkg/types"
)

var createCmd = &cobra.Command{
	Use:   "create <kind> <json|-|@file>",
	Short: "Create a record",
	Long: fmt.Sprintf(`Create inserts a record of the given kind from a JSON document.
The id and timestamps are assigned by the store; any present in the
input are ignored. Pass "-" to read the document from stdin, or
"@path" to read it from a file.

Valid kinds: %s

Example:
  cabinet create patients '{"firstName":"Jeanne","lastName":"Morel"}'
  cabinet create appointments @visit.json`, validKindsStr),
	Args: cobra.ExactArgs(2),
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	data, err := readRecordArg(args[1])
	if err != nil {
		return err
	}
	rec, err := types.DecodeRecord(kind, data)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}

	created, err := manager.Create(cmd.Context(), kind, rec)
	if err != nil {
		return fmt.Errorf("create %s: %w", kind, err)
	}
	return printRecord(created)
}

// Update command merges a JSON patch onto an existing record.
package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/osteokit/cabinet/pkg/types"
)

var updateCmd = &cobra.Command{
	Use:   "update <kind> <id> <json|-|@file>",
	Short: "Update fields of a record",
	Long: fmt.Sprintf(`Update merges the given JSON fields onto the record, leaving
unmentioned fields untouched. Bookkeeping fields (id, timestamps)
cannot be patched.

Valid kinds: %s

Example:
  cabinet update patients 12 '{"phone":"0611223344"}'`, validKindsStr),
	Args: cobra.ExactArgs(3),
	RunE: runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[1], types.ErrInvalidData)
	}
	data, err := readRecordArg(args[2])
	if err != nil {
		return err
	}
	var patch map[string]any
	if err := json.Unmarshal(data, &patch); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}

	updated, err := manager.Update(cmd.Context(), kind, id, patch)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", kind, id, err)
	}
	return printRecord(updated)
}

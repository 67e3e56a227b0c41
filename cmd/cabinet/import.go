// Import command applies an encrypted exchange package.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/osteokit/cabinet/internal/exchange"
)

var (
	flagImportPolicy        string
	flagImportSkipIntegrity bool
	flagImportPassword      string
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import records from an encrypted file",
	Long: `Import decrypts an exchange package and lands its records in the
local store. When an incoming record matches an existing one (same
patient identity, overlapping appointment, duplicate invoice) the
--policy flag decides: skip keeps the existing record, overwrite
replaces it, merge applies nothing and reports the pair for manual
review.

Example:
  cabinet import handover.cabx
  cabinet import handover.cabx --policy overwrite`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&flagImportPolicy, "policy", "skip", "conflict policy: skip, overwrite, or merge")
	importCmd.Flags().BoolVar(&flagImportSkipIntegrity, "skip-integrity", false, "skip the checksum verification")
	importCmd.Flags().StringVar(&flagImportPassword, "password", "", "decryption password (prompted when empty)")
}

func runImport(cmd *cobra.Command, args []string) error {
	policy, err := exchange.ParseConflictPolicy(flagImportPolicy)
	if err != nil {
		return err
	}
	blob, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read export file: %w", err)
	}
	password, err := resolvePassword(flagImportPassword, "Import password: ")
	if err != nil {
		return err
	}

	report, err := exchange.NewImporter(manager, logger).Import(cmd.Context(), blob, password, exchange.ImportOptions{
		Policy:             policy,
		SkipIntegrityCheck: flagImportSkipIntegrity,
	})
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	if flagJSON {
		return printRecord(report)
	}
	for kind, n := range report.Imported {
		fmt.Printf("Imported %d %s\n", n, kind)
	}
	for kind, n := range report.Skipped {
		fmt.Printf("Skipped %d %s\n", n, kind)
	}
	for _, c := range report.Conflicts {
		fmt.Printf("Conflict: %s matches existing %s %d\n", c.Detail, c.Kind, c.ExistingID)
	}
	for _, e := range report.Errors {
		fmt.Printf("Failed: %s: %s\n", e.Detail, e.Message)
	}
	return nil
}

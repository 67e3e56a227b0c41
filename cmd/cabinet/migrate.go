// Migrate command pulls records from the hosted service onto the device.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagMigratePurgeRemote bool

var migrateCmd = &cobra.Command{
	Use:   "migrate <kind>",
	Short: "Copy records from the hosted service into local storage",
	Long: fmt.Sprintf(`Migrate fetches every record of the given kind from the hosted
service and inserts it locally. Rows that fail to insert are reported
and do not stop the rest. With --purge-remote, and only after every
row migrated successfully, the remote copies are erased.

Valid kinds: %s

Example:
  cabinet migrate patients
  cabinet migrate patients --purge-remote`, validKindsStr),
	Args: cobra.ExactArgs(1),
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&flagMigratePurgeRemote, "purge-remote", false, "erase the remote copies after a fully successful migration")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	report, err := manager.SyncCloudToLocal(ctx, kind)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", kind, err)
	}

	if !flagJSON {
		fmt.Printf("Migrated %d %s\n", report.MigratedCount, kind)
		for _, e := range report.Errors {
			fmt.Printf("Failed remote id %d: %s\n", e.RemoteID, e.Message)
		}
	}

	if flagMigratePurgeRemote {
		if !report.Success {
			if flagJSON {
				return printRecord(report)
			}
			return fmt.Errorf("not purging remote: %d rows failed to migrate", len(report.Errors))
		}
		purge, err := manager.PurgeRemote(ctx, kind)
		if err != nil {
			return fmt.Errorf("purge remote %s: %w", kind, err)
		}
		if !flagJSON {
			fmt.Printf("Purged %d remote %s\n", purge.MigratedCount, kind)
		}
	}

	if flagJSON {
		return printRecord(report)
	}
	return nil
}

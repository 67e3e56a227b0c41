// Export command builds an encrypted exchange package.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/osteokit/cabinet/internal/exchange"
	"github.com/osteokit/cabinet/pkg/types"
)

var (
	flagExportKinds      []string
	flagExportPatientIDs []int64
	flagExportFrom       string
	flagExportTo         string
	flagExportPassword   string
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export shareable records to an encrypted file",
	Long: `Export writes patients, appointments, and invoices into one
password-encrypted file for handing over to another practitioner.
The password is prompted for unless --password or the
CABINET_EXPORT_PASSWORD environment variable is set.

Example:
  cabinet export handover.cabx
  cabinet export q1.cabx --kind invoices --from 2026-01-01 --to 2026-03-31
  cabinet export one.cabx --patient-id 12 --patient-id 31`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringArrayVar(&flagExportKinds, "kind", nil, "entity kind to include (repeatable; default: all shareable)")
	exportCmd.Flags().Int64SliceVar(&flagExportPatientIDs, "patient-id", nil, "limit to the given patient ids (repeatable)")
	exportCmd.Flags().StringVar(&flagExportFrom, "from", "", "lower date bound (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&flagExportTo, "to", "", "upper date bound (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&flagExportPassword, "password", "", "encryption password (prompted when empty)")
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !strings.HasSuffix(path, exchange.FileExtension) {
		path += exchange.FileExtension
	}

	opts := exchange.ExportOptions{PatientIDs: flagExportPatientIDs}
	for _, name := range flagExportKinds {
		kind, err := parseKind(name)
		if err != nil {
			return err
		}
		opts.Kinds = append(opts.Kinds, kind)
	}
	var err error
	if opts.From, err = parseDateFlag(flagExportFrom); err != nil {
		return err
	}
	if opts.To, err = parseDateFlag(flagExportTo); err != nil {
		return err
	}

	password, err := resolvePassword(flagExportPassword, "Export password: ")
	if err != nil {
		return err
	}

	blob, meta, err := exchange.NewExporter(manager, logger).Export(cmd.Context(), opts, password)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}

	if flagJSON {
		return printRecord(map[string]any{"file": path, "metadata": meta})
	}
	fmt.Printf("Exported package %s to %s\n", meta.PackageID, path)
	return nil
}

func parseDateFlag(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", v, types.ErrInvalidData)
	}
	return d, nil
}

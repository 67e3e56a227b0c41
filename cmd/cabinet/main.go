// Package main provides the cabinet CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/osteokit/cabinet/pkg/types"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode separates caller mistakes from system failures.
func exitCode(err error) int {
	switch {
	case errors.Is(err, types.ErrUnknownKind),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidPassword),
		errors.Is(err, types.ErrIntegrityViolation),
		errors.Is(err, types.ErrBadExportFile):
		return exitUserError
	default:
		return exitSysError
	}
}

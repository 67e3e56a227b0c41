// Shared helpers for cabinet CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/osteokit/cabinet/pkg/types"
)

// validKindsStr is a comma-separated list of entity kinds for error output.
var validKindsStr = func() string {
	names := make([]string, 0, len(types.Kinds()))
	for _, k := range types.Kinds() {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}()

// parseKind resolves a CLI argument to an entity kind with a usable
// error message.
func parseKind(arg string) (types.Kind, error) {
	kind, err := types.ParseKind(arg)
	if err != nil {
		return "", fmt.Errorf("unknown entity kind %q (valid: %s): %w", arg, validKindsStr, types.ErrUnknownKind)
	}
	return kind, nil
}

// readRecordArg reads the JSON document argument of create/update.
// "-" reads from stdin; "@path" reads a file; anything else is inline JSON.
func readRecordArg(arg string) ([]byte, error) {
	switch {
	case arg == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	case strings.HasPrefix(arg, "@"):
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("read record file: %w", err)
		}
		return data, nil
	default:
		return []byte(arg), nil
	}
}

// printRecord writes one value as indented JSON.
func printRecord(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

// promptPassword reads a password without echo when stdin is a
// terminal, and as a plain line otherwise (scripted use).
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var line string
		if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return line, nil
	}

	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

// resolvePassword prefers the flag, then the environment, then an
// interactive prompt.
func resolvePassword(flagValue, prompt string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("CABINET_EXPORT_PASSWORD"); env != "" {
		return env, nil
	}
	return promptPassword(prompt)
}

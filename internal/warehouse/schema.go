package warehouse

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/fourthcoffee/fc-commerce/internal/logging"
)

// ReadScript returns the contents of a DDL script.
func ReadScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read schema script: %w", err)
	}
	script := strings.TrimSpace(string(data))
	if script == "" {
		return "", fmt.Errorf("schema script %s is empty", path)
	}
	return script, nil
}

// ExecScript executes the DDL script at path as a single multi-statement
// request.
func ExecScript(ctx context.Context, exec Execer, path string) error {
	script, err := ReadScript(path)
	if err != nil {
		return err
	}

	logging.Info().
		Str("script", path).
		Msg("Executing schema script")

	if _, err := exec.Exec(ctx, script); err != nil {
		return fmt.Errorf("failed to execute %s: %w", path, err)
	}
	return nil
}

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DropSchema removes the warehouse schema and everything in it. The name is
// used unquoted, so it folds to lower case exactly as in the DDL script and
// the generated INSERT statements.
func DropSchema(ctx context.Context, exec Execer, schema string) error {
	if schema == "" || strings.EqualFold(schema, "public") {
		return fmt.Errorf("refusing to drop schema '%s'", schema)
	}
	if !plainIdent.MatchString(schema) {
		return fmt.Errorf("schema name %q is not a plain identifier", schema)
	}
	logging.Warn().
		Str("schema", schema).
		Msg("Dropping warehouse schema")
	if _, err := exec.Exec(ctx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
		return fmt.Errorf("failed to drop schema %s: %w", schema, err)
	}
	return nil
}

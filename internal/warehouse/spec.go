//-------------------------------------------------------------------------
//
// Fourth Coffee Commerce Lab
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse loads the Fourth Coffee star schema from CSV files.
//
// Each table is described declaratively by a TableSpec. Rows are read from
// CSV, converted per column, buffered into JSON arrays and inserted with one
// set-based statement per batch using json_to_recordset.
package warehouse

import (
	"fmt"
	"strings"
)

// ColumnSpec describes one destination column.
type ColumnSpec struct {
	// Name is the column name. It is also the JSON property name.
	Name string

	// SQLType is the PostgreSQL type used in the recordset projection.
	SQLType string

	// CSVName maps a differing CSV header. Defaults to Name.
	CSVName string

	// Required rejects rows where the value is missing or blank.
	Required bool

	// Convert turns the raw CSV text into a typed value. nil keeps the
	// trimmed string (blank becomes NULL).
	Convert Converter

	// SQLNameOverride replaces Name in the INSERT column list, e.g. to quote
	// a keyword.
	SQLNameOverride string
}

// CSVHeader returns the CSV header this column reads from.
func (c ColumnSpec) CSVHeader() string {
	if c.CSVName != "" {
		return c.CSVName
	}
	return c.Name
}

// SQLName returns the identifier used in the INSERT column list.
func (c ColumnSpec) SQLName() string {
	if c.SQLNameOverride != "" {
		return c.SQLNameOverride
	}
	return c.Name
}

// JSONName returns the property name used in the batch payload.
func (c ColumnSpec) JSONName() string {
	return c.Name
}

// TableSpec bundles a destination table with its column definitions.
// The order of Columns controls the projection and INSERT column order.
type TableSpec struct {
	Name string

	// CSVFile is the source file name relative to the data directory.
	CSVFile string

	Columns []ColumnSpec

	// DedupeKey is an optional CSV header; rows repeating its value are
	// skipped and the first occurrence wins.
	DedupeKey string

	// Order sets the load order; dimensions load before facts.
	Order int

	Description string
}

// Validate checks the spec for obvious mistakes.
func (t TableSpec) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table name is required")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", t.Name)
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" || c.SQLType == "" {
			return fmt.Errorf("table %s has a column without name or type", t.Name)
		}
		key := strings.ToLower(c.Name)
		if seen[key] {
			return fmt.Errorf("table %s declares column %s twice", t.Name, c.Name)
		}
		seen[key] = true
	}
	return nil
}

// QualifiedName returns schema.table.
func (t TableSpec) QualifiedName(schema string) string {
	if schema == "" {
		return t.Name
	}
	return schema + "." + t.Name
}

// BuildInsertSQL returns the statement that inserts one JSON batch, passed
// as $1, into the table.
func BuildInsertSQL(t TableSpec, schema string) string {
	targets := make([]string, len(t.Columns))
	selects := make([]string, len(t.Columns))
	record := make([]string, len(t.Columns))

	for i, c := range t.Columns {
		// Recordset columns are quoted so they match JSON keys exactly.
		field := quoteIdent(c.JSONName())
		targets[i] = c.SQLName()
		selects[i] = "j." + field
		record[i] = field + " " + c.SQLType
	}

	return fmt.Sprintf(
		"INSERT INTO %s\n(%s)\nSELECT %s\nFROM json_to_recordset($1::json) AS j(\n  %s\n)",
		t.QualifiedName(schema),
		strings.Join(targets, ", "),
		strings.Join(selects, ", "),
		strings.Join(record, ",\n  "),
	)
}

// BuildTruncateSQL returns the statement that empties the table.
func BuildTruncateSQL(t TableSpec, schema string) string {
	return "TRUNCATE TABLE " + t.QualifiedName(schema)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

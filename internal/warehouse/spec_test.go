package warehouse

import (
	"strings"
	"testing"
)

func TestColumnSpecNames(t *testing.T) {
	c := ColumnSpec{Name: "MenuItemKey", SQLType: "int", CSVName: "menuItemKey"}
	if c.CSVHeader() != "menuItemKey" {
		t.Errorf("Expected CSV header 'menuItemKey', got '%s'", c.CSVHeader())
	}
	if c.SQLName() != "MenuItemKey" || c.JSONName() != "MenuItemKey" {
		t.Errorf("Unexpected SQL/JSON names %s/%s", c.SQLName(), c.JSONName())
	}

	y := ColumnSpec{Name: "Year", SQLType: "int", SQLNameOverride: `"year"`}
	if y.CSVHeader() != "Year" {
		t.Errorf("Expected CSV header to default to name, got '%s'", y.CSVHeader())
	}
	if y.SQLName() != `"year"` {
		t.Errorf("Expected SQL override, got '%s'", y.SQLName())
	}
}

func TestBuildInsertSQL(t *testing.T) {
	spec := TableSpec{
		Name: "DimDate",
		Columns: []ColumnSpec{
			{Name: "DateKey", SQLType: "int"},
			{Name: "Year", SQLType: "int", SQLNameOverride: `"year"`},
		},
	}

	got := BuildInsertSQL(spec, "dbo")

	for _, want := range []string{
		"INSERT INTO dbo.DimDate",
		`(DateKey, "year")`,
		`SELECT j."DateKey", j."Year"`,
		"json_to_recordset($1::json)",
		`"DateKey" int`,
		`"Year" int`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected SQL to contain %q, got:\n%s", want, got)
		}
	}
}

func TestTableSpecValidate(t *testing.T) {
	tests := []struct {
		name      string
		spec      TableSpec
		wantError bool
	}{
		{"valid", TableSpec{Name: "T", Columns: []ColumnSpec{{Name: "A", SQLType: "int"}}}, false},
		{"no name", TableSpec{Columns: []ColumnSpec{{Name: "A", SQLType: "int"}}}, true},
		{"no columns", TableSpec{Name: "T"}, true},
		{"missing type", TableSpec{Name: "T", Columns: []ColumnSpec{{Name: "A"}}}, true},
		{"duplicate", TableSpec{Name: "T", Columns: []ColumnSpec{
			{Name: "A", SQLType: "int"}, {Name: "a", SQLType: "int"},
		}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestRegisteredTables(t *testing.T) {
	want := []string{
		"DimDate", "DimTime", "DimShop", "DimMenuItem", "DimCustomer", "FactSales", "FactSalesLineItems",
	}
	got := List()
	if len(got) != len(want) {
		t.Fatalf("Expected %d tables, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Load order[%d]: expected %s, got %s", i, want[i], got[i])
		}
	}

	for _, spec := range All() {
		if err := spec.Validate(); err != nil {
			t.Errorf("Registered spec %s invalid: %v", spec.Name, err)
		}
		if spec.CSVFile == "" {
			t.Errorf("Registered spec %s has no CSV file", spec.Name)
		}
	}

	menu, err := Get("dimmenuitem")
	if err != nil {
		t.Fatalf("Get ignoring case failed: %v", err)
	}
	if menu.CSVFile != "DimMenu.csv" || menu.DedupeKey != "menuItemKey" {
		t.Errorf("Unexpected DimMenuItem spec %+v", menu)
	}

	if _, err := Get("DimWeather"); err == nil {
		t.Error("Expected error for unknown table")
	}
}

func TestSelect(t *testing.T) {
	specs, err := Select([]string{"FactSales", "dimdate"})
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if len(specs) != 2 || specs[0].Name != "DimDate" || specs[1].Name != "FactSales" {
		t.Errorf("Expected [DimDate FactSales] in load order, got %v", specs)
	}

	all, err := Select(nil)
	if err != nil || len(all) != 7 {
		t.Errorf("Expected all 7 tables, got %d (%v)", len(all), err)
	}

	if _, err := Select([]string{"nope"}); err == nil {
		t.Error("Expected error for unknown table")
	}
}

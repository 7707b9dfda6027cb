package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vicmap/vmimport/database"
	"github.com/vicmap/vmimport/mapping"
)

const testColumnMappings = `[
    {"column_name_10": "UFI", "column_name": "feature_id", "data_type": "integer", "primary_key_priority": 1},
    {"column_name_10": "PFI", "column_name": "persistent_id", "data_type": "integer", "primary_key_priority": 2},
    {"column_name_10": "NAME", "column_name": "feature_name", "data_type": "varchar(254)"},
    {"column_name_10": "NAME", "column_name": "lga_name", "data_type": "varchar(64)", "table_names": ["lga_polygon"]},
    {"column_name_10": "DUP", "column_name": "a", "data_type": "text", "table_names": ["dup_table"]},
    {"column_name_10": "DUP", "column_name": "b", "data_type": "text", "table_names": ["dup_table"]},
    {"column_name_10": "FTYPE", "column_name": "feature_type", "data_type": "text", "transform": "lower(\"ftype\")"},
    {"column_name_10": "ALIAS", "column_name": "feature_name", "data_type": "text"},
    {"column_name_10": "SCOPED", "column_name": "scoped", "data_type": "text", "table_names": ["other"]}
]`

func testMapping(t *testing.T) *mapping.Mapping {
	m, err := mapping.New([]byte(testColumnMappings), []byte(`[]`))
	require.NoError(t, err)
	return m
}

type fakeInspector struct {
	geomType string
	err      error
}

func (f *fakeInspector) SpatialColumnType(t database.Table, column string) (string, error) {
	return f.geomType, f.err
}

var polygons = &fakeInspector{geomType: "geometry(MULTIPOLYGON,7899)"}

type fakeChecker struct {
	columns map[string]bool
	err     error
}

func (f *fakeChecker) HasColumn(t database.Table, column string) (bool, error) {
	return f.columns[column], f.err
}

var (
	staging = database.Table{Schema: "import", Name: "lga_polygon"}
	dest    = database.Table{Schema: "vmadmin", Name: "lga_polygon"}
	road    = database.Table{Schema: "vmtrans", Name: "tr_road"}

	dupTable = database.Table{Schema: "x", Name: "dup_table"}
)

func columns(names ...string) []database.Column {
	cols := make([]database.Column, len(names))
	for i, n := range names {
		cols[i] = database.Column{Name: n, Type: "character varying", MaxLength: 20}
	}
	return cols
}

func source(names ...string) Source {
	return Source{Table: staging, Columns: columns(names...)}
}

func primaryKeys(def *TableDef) []string {
	var pks []string
	for _, c := range def.Columns {
		if c.IsPrimaryKey() {
			pks = append(pks, c.Name)
		}
	}
	return pks
}

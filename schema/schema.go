package schema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/vicmap/vmimport/database"
	"github.com/vicmap/vmimport/mapping"
)

const (
	// RowIDColumn is the feature id column added by the loader.
	RowIDColumn = "ogc_fid"
	// LegacyIDColumn is the unique feature identifier of legacy datasets.
	// It is always the first destination column.
	LegacyIDColumn = "ufi"
	// DefaultGeometryColumn is the geometry column of staged tables.
	DefaultGeometryColumn = "geom"
	// SerialType is the type of synthesized id columns.
	SerialType = "serial"
)

type Resolver interface {
	Resolve(destSchema, destTable, sourceColumn string) mapping.Result
}

type SpatialInspector interface {
	SpatialColumnType(t database.Table, column string) (string, error)
}

type ColumnChecker interface {
	HasColumn(t database.Table, column string) (bool, error)
}

// Source is a staged table and its columns in ordinal order.
type Source struct {
	Table          database.Table
	Columns        []database.Column
	GeometryColumn string
}

func (s Source) geometryColumn() string {
	if s.GeometryColumn == "" {
		return DefaultGeometryColumn
	}
	return s.GeometryColumn
}

func (s Source) isGeometry(col database.Column) bool {
	return strings.EqualFold(col.Name, s.geometryColumn())
}

// ErrMissingPrimaryKey is the cause of Synthesize errors for tables
// without primary key candidate.
var ErrMissingPrimaryKey = errors.New("missing primary key")

// MappingError reports a staged column without unique column mapping.
type MappingError struct {
	Table  database.Table
	Column database.Column
	Result mapping.Result
}

func (e *MappingError) Error() string {
	if e.Result.Status == mapping.Ambiguous {
		return fmt.Sprintf("ambiguous mapping for column %s (%s) of %s: %s",
			e.Column.Name, e.Column.TypeDef(), e.Table, e.Result.CandidateNames())
	}
	return fmt.Sprintf("could not match column %s (%s) of %s",
		e.Column.Name, e.Column.TypeDef(), e.Table)
}

// TableDef is a synthesized destination table.
type TableDef struct {
	Columns []database.ColumnSpec
	// Geometry is the name of the geometry column, empty for tables
	// without geometry.
	Geometry   string
	PrimaryKey string
}

func (d *TableDef) Names() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

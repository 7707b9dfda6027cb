package database

import (
	"fmt"
	"strings"

	pq "github.com/lib/pq"
	"github.com/pkg/errors"
)

type Config struct {
	ConnectionParams string
}

// Column describes a column of an existing table as reported by
// information_schema. Zero values mean not applicable.
type Column struct {
	Name      string
	Type      string
	MaxLength int
	Precision int
	Scale     int
}

// TypeDef returns the type of the column with length or precision,
// e.g. character varying(50) or numeric(10,2).
func (c Column) TypeDef() string {
	switch {
	case c.MaxLength > 0:
		return fmt.Sprintf("%s(%d)", c.Type, c.MaxLength)
	case c.Type == "numeric" && c.Precision > 0:
		return fmt.Sprintf("%s(%d,%d)", c.Type, c.Precision, c.Scale)
	}
	return c.Type
}

// PrimaryKey is the extra definition of primary key columns.
const PrimaryKey = "PRIMARY KEY"

// ColumnSpec is a column of a table to create.
type ColumnSpec struct {
	Name  string
	Type  string
	Extra string
}

func (c ColumnSpec) IsPrimaryKey() bool {
	return strings.Contains(strings.ToUpper(c.Extra), PrimaryKey)
}

func (c ColumnSpec) AsSQL() string {
	sql := pq.QuoteIdentifier(c.Name) + " " + c.Type
	if c.Extra != "" {
		sql += " " + c.Extra
	}
	return sql
}

// Table references a schema qualified table.
type Table struct {
	Schema string
	Name   string
}

func (t Table) String() string {
	return t.Schema + "." + t.Name
}

// DB is the database collaborator of the importer.
type DB interface {
	SchemaExists(schema string) (bool, error)
	CreateSchema(schema string) error
	TableExists(t Table) (bool, error)
	DropTable(t Table) error
	TruncateTable(t Table) error
	HasColumn(t Table, column string) (bool, error)
	// Columns returns all columns in ordinal order.
	Columns(t Table) ([]Column, error)
	RowCount(t Table) (int64, error)
	// CreateTable creates the table within its own transaction.
	CreateTable(t Table, columns []ColumnSpec) error
	CreateSpatialIndex(t Table, column string) error
	// SpatialColumnType returns the type definition of a geometry column,
	// e.g. geometry(MULTIPOLYGON,7899).
	SpatialColumnType(t Table, column string) (string, error)
	// CopyData inserts the source expressions of src into the columns of
	// dest within its own transaction and returns the number of rows.
	CopyData(src Table, srcExpressions []string, dest Table, destColumns []string) (int64, error)
	// LoaderConnection returns the connection parameters in libpq
	// key=value form.
	LoaderConnection() string
	Close() error
}

var databases map[string]func(Config) (DB, error)

func init() {
	databases = make(map[string]func(Config) (DB, error))
}

// Register makes a database implementation available for a connection
// type, the URL scheme of the connection parameters.
func Register(name string, f func(Config) (DB, error)) {
	databases[name] = f
}

func Open(conf Config) (DB, error) {
	connType := ConnectionType(conf.ConnectionParams)
	newFunc, ok := databases[connType]
	if !ok {
		return nil, errors.Errorf("unsupported database type: %s", connType)
	}

	db, err := newFunc(conf)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// ConnectionType returns the URL scheme of param. Key=value connection
// strings and empty params (libpq environment) are of type postgres.
func ConnectionType(param string) string {
	if !strings.Contains(param, "://") {
		return "postgres"
	}
	parts := strings.SplitN(param, ":", 2)
	return parts[0]
}

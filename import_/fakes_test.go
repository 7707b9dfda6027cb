package import_

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/vicmap/vmimport/database"
	"github.com/vicmap/vmimport/loader"
)

type fakeTable struct {
	columns []database.Column
	specs   []database.ColumnSpec
	rows    int64
}

// fakeDB keeps tables in memory and records all modifications.
type fakeDB struct {
	schemas map[string]bool
	tables  map[database.Table]*fakeTable
	ops     []string

	copyErr      error
	dropErr      error
	copyNoRows   bool
	emptyAfterCp bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		schemas: map[string]bool{"public": true},
		tables:  make(map[database.Table]*fakeTable),
	}
}

func (db *fakeDB) record(op string, t database.Table) {
	db.ops = append(db.ops, op+" "+t.String())
}

func (db *fakeDB) SchemaExists(schema string) (bool, error) { return db.schemas[schema], nil }

func (db *fakeDB) CreateSchema(schema string) error {
	db.schemas[schema] = true
	db.ops = append(db.ops, "create schema "+schema)
	return nil
}

func (db *fakeDB) TableExists(t database.Table) (bool, error) {
	_, ok := db.tables[t]
	return ok, nil
}

func (db *fakeDB) DropTable(t database.Table) error {
	if db.dropErr != nil {
		return db.dropErr
	}
	if _, ok := db.tables[t]; ok {
		db.record("drop", t)
		delete(db.tables, t)
	}
	return nil
}

func (db *fakeDB) TruncateTable(t database.Table) error {
	db.record("truncate", t)
	db.tables[t].rows = 0
	return nil
}

func (db *fakeDB) HasColumn(t database.Table, column string) (bool, error) {
	tbl, ok := db.tables[t]
	if !ok {
		return false, errors.Errorf("no table %s", t)
	}
	for _, c := range tbl.columns {
		if strings.EqualFold(c.Name, column) {
			return true, nil
		}
	}
	return false, nil
}

func (db *fakeDB) Columns(t database.Table) ([]database.Column, error) {
	tbl, ok := db.tables[t]
	if !ok {
		return nil, errors.Errorf("no table %s", t)
	}
	return tbl.columns, nil
}

func (db *fakeDB) RowCount(t database.Table) (int64, error) {
	if db.emptyAfterCp {
		return 0, nil
	}
	return db.tables[t].rows, nil
}

func (db *fakeDB) CreateTable(t database.Table, columns []database.ColumnSpec) error {
	db.record("create", t)
	tbl := &fakeTable{specs: columns}
	for _, c := range columns {
		tbl.columns = append(tbl.columns, database.Column{Name: c.Name, Type: c.Type})
	}
	db.tables[t] = tbl
	return nil
}

func (db *fakeDB) CreateSpatialIndex(t database.Table, column string) error {
	db.record("index "+column, t)
	return nil
}

func (db *fakeDB) SpatialColumnType(t database.Table, column string) (string, error) {
	return "geometry(MULTIPOLYGON,7899)", nil
}

func (db *fakeDB) CopyData(src database.Table, srcExpressions []string, dest database.Table, destColumns []string) (int64, error) {
	if db.copyErr != nil {
		return 0, db.copyErr
	}
	db.record("copy "+strings.Join(destColumns, ","), dest)
	if db.copyNoRows {
		return 0, nil
	}
	n := db.tables[src].rows
	db.tables[dest].rows += n
	return n, nil
}

func (db *fakeDB) LoaderConnection() string { return "dbname=test" }

func (db *fakeDB) Close() error { return nil }

// fakeLoader creates staging tables with fixed columns and rows.
type fakeLoader struct {
	db       *fakeDB
	columns  []string
	rows     int64
	err      error
	requests []loader.Request
}

func (l *fakeLoader) Load(req loader.Request) error {
	l.requests = append(l.requests, req)
	if l.err != nil {
		return l.err
	}
	tbl := &fakeTable{rows: l.rows}
	for _, c := range l.columns {
		tbl.columns = append(tbl.columns, database.Column{Name: c, Type: "character varying", MaxLength: 50})
	}
	t := database.Table{Schema: req.Schema, Name: req.Table}
	l.db.record("load", t)
	l.db.tables[t] = tbl
	return nil
}

package postgis

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	pq "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/vicmap/vmimport/database"
	"github.com/vicmap/vmimport/logging"
)

var log = logging.NewLogger("PostGIS")

type SQLError struct {
	query         string
	originalError error
}

func (e *SQLError) Error() string {
	return fmt.Sprintf("SQL Error: %s in query %s", e.originalError.Error(), e.query)
}

func (e *SQLError) Cause() error {
	return e.originalError
}

type PostGIS struct {
	Db     *sql.DB
	Params string
	driver string
}

func (pg *PostGIS) Open() error {
	var err error

	pg.Db, err = sql.Open(pg.driver, pg.Params)
	if err != nil {
		return err
	}
	return pg.ping()
}

func (pg *PostGIS) ping() error {
	// one connection for the whole run, all statements of a layer see
	// the same session
	pg.Db.SetMaxOpenConns(1)
	// check that the connection actually works
	if err := pg.Db.Ping(); err != nil {
		return errors.Wrap(err, "connecting to database")
	}
	return nil
}

func (pg *PostGIS) Close() error {
	return pg.Db.Close()
}

func (pg *PostGIS) LoaderConnection() string {
	return pg.Params
}

func (pg *PostGIS) exists(query string, args ...interface{}) (bool, error) {
	var exists bool
	if err := pg.Db.QueryRow(query, args...).Scan(&exists); err != nil {
		return false, &SQLError{query, err}
	}
	return exists, nil
}

func (pg *PostGIS) exec(query string) error {
	log.Debugf("%s", query)
	if _, err := pg.Db.Exec(query); err != nil {
		return &SQLError{query, err}
	}
	return nil
}

func (pg *PostGIS) SchemaExists(schema string) (bool, error) {
	return pg.exists(`SELECT EXISTS(SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`, schema)
}

func (pg *PostGIS) CreateSchema(schema string) error {
	if schema == "public" {
		return nil
	}
	return pg.exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(schema)))
}

func (pg *PostGIS) TableExists(t database.Table) (bool, error) {
	return pg.exists(`SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2)`,
		t.Schema, t.Name)
}

func (pg *PostGIS) DropTable(t database.Table) error {
	return pg.exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTable(t)))
}

func (pg *PostGIS) TruncateTable(t database.Table) error {
	return pg.exec(fmt.Sprintf("TRUNCATE TABLE %s", quoteTable(t)))
}

func (pg *PostGIS) HasColumn(t database.Table, column string) (bool, error) {
	return pg.exists(`SELECT EXISTS(SELECT 1 FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 AND column_name = $3)`,
		t.Schema, t.Name, column)
}

const columnsSQL = `SELECT column_name,
    CASE WHEN data_type = 'USER-DEFINED' THEN udt_name ELSE data_type END,
    character_maximum_length, numeric_precision, numeric_scale
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

func (pg *PostGIS) Columns(t database.Table) ([]database.Column, error) {
	rows, err := pg.Db.Query(columnsSQL, t.Schema, t.Name)
	if err != nil {
		return nil, &SQLError{columnsSQL, err}
	}
	defer rows.Close()

	var cols []database.Column
	for rows.Next() {
		var col database.Column
		var maxLength, precision, scale sql.NullInt64
		if err := rows.Scan(&col.Name, &col.Type, &maxLength, &precision, &scale); err != nil {
			return nil, &SQLError{columnsSQL, err}
		}
		col.MaxLength = int(maxLength.Int64)
		col.Precision = int(precision.Int64)
		col.Scale = int(scale.Int64)
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, &SQLError{columnsSQL, err}
	}
	return cols, nil
}

func (pg *PostGIS) RowCount(t database.Table) (int64, error) {
	query := fmt.Sprintf("SELECT count(*) FROM %s", quoteTable(t))
	var n int64
	if err := pg.Db.QueryRow(query).Scan(&n); err != nil {
		return 0, &SQLError{query, err}
	}
	return n, nil
}

func (pg *PostGIS) CreateTable(t database.Table, columns []database.ColumnSpec) error {
	query := createTableSQL(t, columns)

	tx, err := pg.Db.Begin()
	if err != nil {
		return err
	}
	defer rollbackIfTx(&tx)

	log.Debugf("%s", query)
	if _, err := tx.Exec(query); err != nil {
		return &SQLError{query, err}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	tx = nil // set nil to prevent rollback
	return nil
}

func (pg *PostGIS) CreateSpatialIndex(t database.Table, column string) error {
	step := log.StartStep(fmt.Sprintf("Creating geometry index on %s", t))
	defer log.StopStep(step)
	return pg.exec(spatialIndexSQL(t, column))
}

const spatialColumnSQL = `SELECT type, coord_dimension, srid FROM geometry_columns
WHERE f_table_schema = $1 AND f_table_name = $2 AND f_geometry_column = $3`

func (pg *PostGIS) SpatialColumnType(t database.Table, column string) (string, error) {
	var geomType string
	var dims, srid int
	err := pg.Db.QueryRow(spatialColumnSQL, t.Schema, t.Name, column).Scan(&geomType, &dims, &srid)
	if err == sql.ErrNoRows {
		return "", errors.Errorf("%s.%s is not a registered geometry column", t, column)
	}
	if err != nil {
		return "", &SQLError{spatialColumnSQL, err}
	}
	return geometryTypeDef(geomType, dims, srid), nil
}

func (pg *PostGIS) CopyData(src database.Table, srcExpressions []string, dest database.Table, destColumns []string) (int64, error) {
	if len(srcExpressions) != len(destColumns) {
		return 0, errors.Errorf("copy from %s to %s: %d source expressions for %d columns",
			src, dest, len(srcExpressions), len(destColumns))
	}
	query := copySQL(src, srcExpressions, dest, destColumns)

	tx, err := pg.Db.Begin()
	if err != nil {
		return 0, err
	}
	defer rollbackIfTx(&tx)

	log.Debugf("%s", query)
	result, err := tx.Exec(query)
	if err != nil {
		return 0, &SQLError{query, err}
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	tx = nil // set nil to prevent rollback
	return n, nil
}

// New opens a PostGIS connection with the lib/pq driver. Params can be a
// postgis:// or postgres:// URL, a key=value string or empty to use the
// PG* environment variables.
func New(conf database.Config) (database.DB, error) {
	db := &PostGIS{driver: "postgres"}

	params, err := libpqParams(conf.ConnectionParams)
	if err != nil {
		return nil, err
	}
	db.Params = disableDefaultSsl(params)

	if err := db.Open(); err != nil {
		return nil, err
	}
	return db, nil
}

// NewPgx opens a PostGIS connection with the pgx driver from a pgx:// URL.
func NewPgx(conf database.Config) (database.DB, error) {
	db := &PostGIS{driver: "pgx"}

	connConfig, err := pgx.ParseConfig(replaceScheme(conf.ConnectionParams, "pgx", "postgres"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing connection params")
	}
	db.Params = pgxLoaderParams(connConfig)
	db.Db = stdlib.OpenDB(*connConfig)
	if err := db.ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func libpqParams(params string) (string, error) {
	params = replaceScheme(params, "postgis", "postgres")
	if !strings.HasPrefix(params, "postgres://") && !strings.HasPrefix(params, "postgresql://") {
		return params, nil
	}
	parsed, err := pq.ParseURL(params)
	if err != nil {
		return "", errors.Wrap(err, "parsing connection params")
	}
	return parsed, nil
}

func init() {
	database.Register("postgres", New)
	database.Register("postgresql", New)
	database.Register("postgis", New)
	database.Register("pgx", NewPgx)
}

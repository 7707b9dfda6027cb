package test

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/vicmap/vmimport/database"
	_ "github.com/vicmap/vmimport/database/postgis"
	"github.com/vicmap/vmimport/loader"
)

const (
	dbschemaStaging = "vmimporttest_import"
	dbschemaDest    = "vmimporttest_admin"
)

type importTestSuite struct {
	db  database.DB
	sql *sql.DB
}

// newSuite connects to VMIMPORT_TEST_CONNECTION and skips the test
// without.
func newSuite(t *testing.T) *importTestSuite {
	conn := os.Getenv("VMIMPORT_TEST_CONNECTION")
	if conn == "" {
		t.Skip("VMIMPORT_TEST_CONNECTION not set")
	}
	db, err := database.Open(database.Config{ConnectionParams: conn})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	raw, err := sql.Open("postgres", db.LoaderConnection())
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	s := &importTestSuite{db: db, sql: raw}
	s.dropSchemas(t)
	t.Cleanup(func() { s.dropSchemas(t) })
	return s
}

func (s *importTestSuite) dropSchemas(t *testing.T) {
	for _, schema := range []string{dbschemaStaging, dbschemaDest} {
		_, err := s.sql.Exec(fmt.Sprintf(`DROP SCHEMA IF EXISTS "%s" CASCADE`, schema))
		require.NoError(t, err)
	}
}

func (s *importTestSuite) tableExists(t *testing.T, schema, table string) bool {
	row := s.sql.QueryRow(`SELECT EXISTS(SELECT * FROM information_schema.tables WHERE table_name=$1 AND table_schema=$2)`, table, schema)
	var exists bool
	require.NoError(t, row.Scan(&exists))
	return exists
}

func (s *importTestSuite) queryNames(t *testing.T, query string, args ...interface{}) []string {
	rows, err := s.sql.Query(query, args...)
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	return names
}

func (s *importTestSuite) columns(t *testing.T, schema, table string) []string {
	return s.queryNames(t, `SELECT column_name FROM information_schema.columns
		WHERE table_schema=$1 AND table_name=$2 ORDER BY ordinal_position`, schema, table)
}

func (s *importTestSuite) primaryKey(t *testing.T, schema, table string) []string {
	return s.queryNames(t, `SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema=$1 AND tc.table_name=$2`, schema, table)
}

func (s *importTestSuite) count(t *testing.T, schema, table string) int64 {
	var n int64
	require.NoError(t, s.sql.QueryRow(fmt.Sprintf(`SELECT count(*) FROM "%s"."%s"`, schema, table)).Scan(&n))
	return n
}

// sqlLoader stages rows with the column layout ogr2ogr creates for a
// polygon shapefile, without requiring GDAL.
type sqlLoader struct {
	sql  *sql.DB
	rows int
}

func (l *sqlLoader) Load(req loader.Request) error {
	geomType := "Polygon"
	geom := "ST_GeomFromText('POLYGON((0 0, 1 0, 1 1, 0 0))', 7899)"
	if req.ForceMulti {
		geomType = "MultiPolygon"
		geom = "ST_Multi(" + geom + ")"
	}
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE "%s"."%s" (
			ogc_fid serial PRIMARY KEY,
			"%s" geometry(%s, 7899),
			ufi numeric(10,0),
			name character varying(50)
		)`, req.Schema, req.Table, req.GeometryColumn, geomType),
	}
	for i := 0; i < l.rows; i++ {
		stmts = append(stmts, fmt.Sprintf(`INSERT INTO "%s"."%s" ("%s", ufi, name) VALUES (%s, %d, 'name %d')`,
			req.Schema, req.Table, req.GeometryColumn, geom, 1000+i, i))
	}
	for _, stmt := range stmts {
		if _, err := l.sql.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

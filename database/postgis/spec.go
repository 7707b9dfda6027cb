package postgis

import (
	"fmt"
	"strings"

	pq "github.com/lib/pq"

	"github.com/vicmap/vmimport/database"
)

func createTableSQL(t database.Table, columns []database.ColumnSpec) string {
	cols := make([]string, len(columns))
	for i, col := range columns {
		cols[i] = col.AsSQL()
	}
	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n)",
		quoteTable(t),
		strings.Join(cols, ",\n    "),
	)
}

func copySQL(src database.Table, srcExpressions []string, dest database.Table, destColumns []string) string {
	cols := make([]string, len(destColumns))
	for i, col := range destColumns {
		cols[i] = pq.QuoteIdentifier(col)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		quoteTable(dest),
		strings.Join(cols, ", "),
		strings.Join(srcExpressions, ", "),
		quoteTable(src),
	)
}

func spatialIndexSQL(t database.Table, column string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING GIST (%s)",
		pq.QuoteIdentifier(t.Name+"_"+column+"_gist"),
		quoteTable(t),
		pq.QuoteIdentifier(column),
	)
}

// geometryTypeDef builds a typmod geometry type from a geometry_columns
// entry. M geometries already carry the M suffix in type.
func geometryTypeDef(geomType string, dims, srid int) string {
	geomType = strings.ToUpper(geomType)
	if geomType == "GEOMETRY" && srid == 0 && dims <= 2 {
		return "geometry"
	}
	if !strings.HasSuffix(geomType, "M") {
		switch dims {
		case 3:
			geomType += "Z"
		case 4:
			geomType += "ZM"
		}
	}
	return fmt.Sprintf("geometry(%s,%d)", geomType, srid)
}

package postgis

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	pq "github.com/lib/pq"

	"github.com/vicmap/vmimport/database"
)

func quoteTable(t database.Table) string {
	return pq.QuoteIdentifier(t.Schema) + "." + pq.QuoteIdentifier(t.Name)
}

func rollbackIfTx(tx **sql.Tx) {
	if *tx != nil {
		if err := (*tx).Rollback(); err != nil {
			log.Errorf("rollback failed: %s", err)
		}
	}
}

func replaceScheme(params, from, to string) string {
	if strings.HasPrefix(params, from+"://") {
		return to + params[len(from):]
	}
	return params
}

// disableDefaultSsl adds sslmode=disable to key=value params, unless
// sslmode is already set or configured by PGSSLMODE.
func disableDefaultSsl(params string) string {
	for _, p := range strings.Fields(params) {
		if strings.HasPrefix(p, "sslmode=") {
			return params
		}
	}
	if _, ok := os.LookupEnv("PGSSLMODE"); ok {
		return params
	}
	return strings.TrimSpace(params + " sslmode=disable")
}

// pgxLoaderParams converts a parsed pgx config to libpq key=value params.
func pgxLoaderParams(c *pgx.ConnConfig) string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+quoteParam(v))
		}
	}
	add("host", c.Host)
	if c.Port != 0 {
		add("port", fmt.Sprintf("%d", c.Port))
	}
	add("dbname", c.Database)
	add("user", c.User)
	add("password", c.Password)
	if c.TLSConfig == nil {
		add("sslmode", "disable")
	}
	return strings.Join(parts, " ")
}

// quoteParam quotes a libpq connection parameter value if required.
func quoteParam(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
	return "'" + v + "'"
}

package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, columns string) *Mapping {
	m, err := New([]byte(columns), []byte(`[]`))
	require.NoError(t, err)
	return m
}

func TestResolveUnscoped(t *testing.T) {
	m := mustNew(t, `[
        {"column_name_10": "NAME", "column_name": "feature_name", "data_type": "varchar"}
    ]`)

	for _, col := range []string{"name", "NAME", "Name"} {
		r := m.Resolve("vmadmin", "anything", col)
		require.Equal(t, Resolved, r.Status, col)
		assert.Equal(t, "feature_name", r.Rule.Name)
	}
}

func TestResolveScopedWins(t *testing.T) {
	m := mustNew(t, `[
        {"column_name_10": "NAME", "column_name": "feature_name", "data_type": "varchar"},
        {"column_name_10": "NAME", "column_name": "lga_name", "data_type": "varchar", "table_names": ["lga_polygon", "other"]}
    ]`)

	r := m.Resolve("vmadmin", "lga_polygon", "name")
	require.True(t, r.Ok())
	assert.Equal(t, "lga_name", r.Rule.Name)

	// rule scoped to other tables does not affect this table
	r = m.Resolve("vmadmin", "locality_polygon", "name")
	require.True(t, r.Ok())
	assert.Equal(t, "feature_name", r.Rule.Name)
}

func TestResolveScopedBySchemaTable(t *testing.T) {
	m := mustNew(t, `[
        {"column_name_10": "NAME", "column_name": "feature_name", "data_type": "varchar"},
        {"column_name_10": "NAME", "column_name": "admin_name", "data_type": "varchar", "table_names": "VMADMIN.LGA_POLYGON"}
    ]`)

	assert.Equal(t, "admin_name", m.Resolve("vmadmin", "lga_polygon", "name").Rule.Name)
	assert.Equal(t, "feature_name", m.Resolve("vmother", "lga_polygon", "name").Rule.Name)
}

func TestResolveAmbiguousScoped(t *testing.T) {
	m := mustNew(t, `[
        {"column_name_10": "NAME", "column_name": "feature_name", "data_type": "varchar"},
        {"column_name_10": "NAME", "column_name": "a", "data_type": "varchar", "table_names": ["lga_polygon"]},
        {"column_name_10": "NAME", "column_name": "b", "data_type": "varchar", "table_names": ["lga_polygon"]}
    ]`)

	r := m.Resolve("vmadmin", "lga_polygon", "name")
	assert.Equal(t, Ambiguous, r.Status)
	assert.Nil(t, r.Rule)
	assert.Len(t, r.Candidates, 2)
	assert.Equal(t, "a, b", r.CandidateNames())
}

func TestResolveAmbiguousUnscoped(t *testing.T) {
	m := mustNew(t, `[
        {"column_name_10": "NAME", "column_name": "a", "data_type": "varchar"},
        {"column_name_10": "name", "column_name": "b", "data_type": "varchar"}
    ]`)

	r := m.Resolve("vmadmin", "lga_polygon", "name")
	assert.Equal(t, Ambiguous, r.Status)
	assert.Equal(t, "ambiguous", r.Status.String())
}

func TestResolveNotFound(t *testing.T) {
	m := mustNew(t, `[
        {"column_name_10": "NAME", "column_name": "lga_name", "data_type": "varchar", "table_names": ["lga_polygon"]}
    ]`)

	assert.Equal(t, NotFound, m.Resolve("vmadmin", "lga_polygon", "ufi").Status)
	// only scoped to another table
	assert.Equal(t, NotFound, m.Resolve("vmadmin", "tr_road", "name").Status)
}

func TestResolveEmptyScope(t *testing.T) {
	m := mustNew(t, `[
        {"column_name_10": "NAME", "column_name": "feature_name", "data_type": "varchar", "table_names": []}
    ]`)

	assert.Equal(t, NotFound, m.Resolve("vmadmin", "lga_polygon", "name").Status)
}

func TestResolveTruncatedSourceName(t *testing.T) {
	m := mustNew(t, `[
        {"column_name_10": "CREATE_DAT", "column_name": "created", "data_type": "date"}
    ]`)

	r := m.Resolve("vmadmin", "lga_polygon", "create_date")
	require.True(t, r.Ok())
	assert.Equal(t, "created", r.Rule.Name)
}

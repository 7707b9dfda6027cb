package schema

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanTransfer(t *testing.T) {
	m := testMapping(t)
	checker := &fakeChecker{columns: map[string]bool{
		"feature_id": true, "feature_type": true, "persistent_id": false,
	}}

	plan, err := PlanTransfer(m, checker, source("ogc_fid", "geom", "ufi", "pfi", "ftype", "unknown"), road)
	require.NoError(t, err)

	assert.Equal(t, []string{`"geom"`, `"ufi"::integer`, `lower("ftype")`}, plan.Source)
	assert.Equal(t, []string{"geom", "feature_id", "feature_type"}, plan.Dest)
	assert.Equal(t, []Discard{
		{Column: "ogc_fid", Reason: NotMapped},
		{Column: "pfi", Reason: NotInDestination, Target: "persistent_id"},
		{Column: "unknown", Reason: NotMapped},
	}, plan.Discarded)
}

func TestPlanTransferNeverCopiesMissingColumns(t *testing.T) {
	m := testMapping(t)
	checker := &fakeChecker{columns: map[string]bool{}}

	plan, err := PlanTransfer(m, checker, source("ufi", "pfi", "name", "ftype"), road)
	require.NoError(t, err)
	assert.Empty(t, plan.Dest)
	assert.Empty(t, plan.Source)
	assert.Len(t, plan.Discarded, 4)
}

func TestPlanTransferGeometryAlwaysCopied(t *testing.T) {
	m := testMapping(t)
	checker := &fakeChecker{columns: map[string]bool{}}

	plan, err := PlanTransfer(m, checker, source("geom"), road)
	require.NoError(t, err)
	assert.Equal(t, []string{"geom"}, plan.Dest)
}

func TestPlanTransferScopedOverride(t *testing.T) {
	m := testMapping(t)
	checker := &fakeChecker{columns: map[string]bool{"lga_name": true, "feature_name": true}}

	plan, err := PlanTransfer(m, checker, source("name"), dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"lga_name"}, plan.Dest)
	assert.Equal(t, []string{`"name"::varchar(64)`}, plan.Source)
}

func TestPlanTransferAmbiguous(t *testing.T) {
	m := testMapping(t)
	checker := &fakeChecker{columns: map[string]bool{"a": true, "b": true}}

	plan, err := PlanTransfer(m, checker, source("dup"), dest)
	require.NoError(t, err)
	assert.Empty(t, plan.Dest)

	plan, err = PlanTransfer(m, checker, source("dup"), dupTable)
	require.NoError(t, err)
	assert.Empty(t, plan.Dest)
	require.Len(t, plan.Discarded, 1)
	assert.Equal(t, AmbiguousMapping, plan.Discarded[0].Reason)
	assert.Equal(t, "dup (ambiguous mapping: a, b)", plan.Discarded[0].String())
}

func TestPlanTransferCheckerError(t *testing.T) {
	m := testMapping(t)
	checker := &fakeChecker{err: errors.New("connection lost")}

	_, err := PlanTransfer(m, checker, source("ufi"), road)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection lost")
}

func TestPlanTransferDuplicateTarget(t *testing.T) {
	m := testMapping(t)
	checker := &fakeChecker{columns: map[string]bool{"feature_id": true, "feature_name": true}}

	plan, err := PlanTransfer(m, checker, source("ufi", "name", "alias"), road)
	require.NoError(t, err)
	assert.Equal(t, []string{"feature_id", "feature_name"}, plan.Dest)
	assert.Equal(t, []string{`"ufi"::integer`, `"name"::varchar(254)`}, plan.Source)
	assert.Equal(t, []Discard{{Column: "alias", Reason: DuplicateTarget, Target: "feature_name"}}, plan.Discarded)
	assert.Equal(t, "alias (destination already mapped: feature_name)", plan.Discarded[0].String())
}

package schema

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/vicmap/vmimport/database"
	"github.com/vicmap/vmimport/mapping"
)

// Synthesize builds the definition of dest from the staged columns of src.
//
// The loader row id is dropped and the geometry column keeps its name
// with the type of the staged geometry. All other columns are mapped
// with r; unmapped or ambiguous columns fail with a *MappingError.
//
// The primary key is the column named by rule.PrimaryKey, or else the
// mapped column with the lowest primary key priority. A rule.SerialID
// adds a serial primary key column in front of all columns instead.
// A legacy ufi column is moved to the front (behind a serial column).
func Synthesize(r Resolver, inspector SpatialInspector, src Source, dest database.Table, rule *mapping.TableRule) (*TableDef, error) {
	def := &TableDef{}

	var explicitPK, serialID string
	if rule != nil {
		explicitPK = rule.PrimaryKey
		serialID = rule.SerialID
	}

	legacy, pk := -1, -1
	var minPriority int
	seen := make(map[string]string)

	for _, col := range src.Columns {
		if strings.EqualFold(col.Name, RowIDColumn) {
			continue
		}

		var spec database.ColumnSpec
		var result mapping.Result

		if src.isGeometry(col) {
			geomType, err := inspector.SpatialColumnType(src.Table, col.Name)
			if err != nil {
				return nil, errors.Wrapf(err, "geometry type of %s", src.Table)
			}
			spec = database.ColumnSpec{Name: col.Name, Type: geomType}
			def.Geometry = col.Name
		} else {
			result = r.Resolve(dest.Schema, dest.Name, col.Name)
			if !result.Ok() {
				return nil, &MappingError{Table: dest, Column: col, Result: result}
			}
			spec = database.ColumnSpec{Name: result.Rule.Name, Type: result.Rule.DataType}
		}

		if other, ok := seen[strings.ToLower(spec.Name)]; ok {
			return nil, errors.Errorf("columns %s and %s of %s both map to %s",
				other, col.Name, src.Table, spec.Name)
		}
		seen[strings.ToLower(spec.Name)] = col.Name

		idx := len(def.Columns)
		def.Columns = append(def.Columns, spec)

		if strings.EqualFold(col.Name, LegacyIDColumn) {
			legacy = idx
		}

		if result.Rule == nil {
			// geometry is never a primary key
			continue
		}
		if explicitPK != "" {
			if mapping.NormalizeName(col.Name) == mapping.NormalizeName(explicitPK) {
				pk = idx
			}
		} else if result.Rule.HasPriority && (pk < 0 || result.Rule.Priority < minPriority) {
			pk = idx
			minPriority = result.Rule.Priority
		}
	}

	front := 0
	if serialID != "" {
		if other, ok := seen[strings.ToLower(serialID)]; ok {
			return nil, errors.Errorf("serial id column %s of %s collides with mapped column %s",
				serialID, dest, other)
		}
		serial := database.ColumnSpec{Name: serialID, Type: SerialType, Extra: database.PrimaryKey}
		def.Columns = append([]database.ColumnSpec{serial}, def.Columns...)
		def.PrimaryKey = serialID
		if legacy >= 0 {
			legacy++
		}
		front = 1
	} else {
		if pk < 0 {
			if explicitPK != "" {
				return nil, errors.Wrapf(ErrMissingPrimaryKey, "primary key column %s not found in %s", explicitPK, src.Table)
			}
			return nil, errors.Wrapf(ErrMissingPrimaryKey, "could not determine primary key for %s", dest)
		}
		def.Columns[pk].Extra = database.PrimaryKey
		def.PrimaryKey = def.Columns[pk].Name
	}

	if legacy > front {
		col := def.Columns[legacy]
		copy(def.Columns[front+1:legacy+1], def.Columns[front:legacy])
		def.Columns[front] = col
	}

	return def, nil
}

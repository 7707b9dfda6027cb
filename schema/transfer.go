package schema

import (
	"fmt"
	"strings"

	pq "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/vicmap/vmimport/database"
	"github.com/vicmap/vmimport/mapping"
)

type DiscardReason int

const (
	NotMapped DiscardReason = iota
	AmbiguousMapping
	NotInDestination
	DuplicateTarget
)

func (r DiscardReason) String() string {
	switch r {
	case AmbiguousMapping:
		return "ambiguous mapping"
	case NotInDestination:
		return "missing in destination"
	case DuplicateTarget:
		return "destination already mapped"
	default:
		return "not mapped"
	}
}

// Discard is a staged column that is not copied.
type Discard struct {
	Column string
	Reason DiscardReason
	// Target is the mapped destination column for NotInDestination and
	// DuplicateTarget, the candidate names for AmbiguousMapping.
	Target string
}

func (d Discard) String() string {
	if d.Target != "" {
		return fmt.Sprintf("%s (%s: %s)", d.Column, d.Reason, d.Target)
	}
	return fmt.Sprintf("%s (%s)", d.Column, d.Reason)
}

// Transfer is a copy projection. Source[i] is the select expression
// for destination column Dest[i].
type Transfer struct {
	Source    []string
	Dest      []string
	Discarded []Discard
}

func (t *Transfer) add(expr, column string) {
	t.Source = append(t.Source, expr)
	t.Dest = append(t.Dest, column)
}

// PlanTransfer pairs the staged columns of src with columns of the
// existing table dest, in staged column order.
//
// The geometry column is always copied as is. Mapped columns are copied
// with the transform of their rule or cast to the mapped type. Columns
// without unique mapping or without destination column are discarded,
// as are later columns mapped to an already copied destination column.
// Errors are only returned for failed column checks.
func PlanTransfer(r Resolver, checker ColumnChecker, src Source, dest database.Table) (*Transfer, error) {
	t := &Transfer{}
	copied := make(map[string]string)
	for _, col := range src.Columns {
		if src.isGeometry(col) {
			t.add(pq.QuoteIdentifier(col.Name), col.Name)
			copied[strings.ToLower(col.Name)] = col.Name
			continue
		}

		result := r.Resolve(dest.Schema, dest.Name, col.Name)
		switch result.Status {
		case mapping.NotFound:
			t.Discarded = append(t.Discarded, Discard{Column: col.Name, Reason: NotMapped})
			continue
		case mapping.Ambiguous:
			t.Discarded = append(t.Discarded, Discard{
				Column: col.Name, Reason: AmbiguousMapping, Target: result.CandidateNames(),
			})
			continue
		}

		rule := result.Rule
		ok, err := checker.HasColumn(dest, rule.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "checking column %s of %s", rule.Name, dest)
		}
		if !ok {
			t.Discarded = append(t.Discarded, Discard{Column: col.Name, Reason: NotInDestination, Target: rule.Name})
			continue
		}

		if _, ok := copied[strings.ToLower(rule.Name)]; ok {
			t.Discarded = append(t.Discarded, Discard{Column: col.Name, Reason: DuplicateTarget, Target: rule.Name})
			continue
		}
		copied[strings.ToLower(rule.Name)] = col.Name
		t.add(SourceExpression(col.Name, rule), rule.Name)
	}
	return t, nil
}

// SourceExpression returns the select expression of a mapped column.
func SourceExpression(column string, rule *mapping.ColumnRule) string {
	if rule.Transform != "" {
		return rule.Transform
	}
	return pq.QuoteIdentifier(column) + "::" + rule.DataType
}

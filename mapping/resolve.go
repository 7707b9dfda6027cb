package mapping

import (
	"strings"
)

type Status int

const (
	NotFound Status = iota
	Resolved
	Ambiguous
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not found"
	}
}

// Result is the outcome of resolving a single source column.
type Result struct {
	Status Status
	// Rule is set for Resolved results.
	Rule *ColumnRule
	// Candidates contains all competing rules of Ambiguous results.
	Candidates []*ColumnRule
}

func (r Result) Ok() bool {
	return r.Status == Resolved
}

// CandidateNames returns the destination names of all candidates, for
// error messages.
func (r Result) CandidateNames() string {
	names := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

// Resolve finds the column rule for a source column of a destination
// table. Rules scoped to the table take precedence over unscoped rules;
// in either group exactly one rule must match.
func (m *Mapping) Resolve(destSchema, destTable, sourceColumn string) Result {
	var scoped, unscoped []*ColumnRule
	for _, r := range m.ColumnRules(sourceColumn) {
		if r.Scoped() {
			if r.AppliesTo(destSchema, destTable) {
				scoped = append(scoped, r)
			}
		} else {
			unscoped = append(unscoped, r)
		}
	}

	if len(scoped) > 0 {
		return pick(scoped)
	}
	return pick(unscoped)
}

func pick(rules []*ColumnRule) Result {
	switch len(rules) {
	case 0:
		return Result{Status: NotFound}
	case 1:
		return Result{Status: Resolved, Rule: rules[0]}
	default:
		return Result{Status: Ambiguous, Candidates: rules}
	}
}

/*
Package schema builds destination table definitions and copy projections
for staged tables.

Synthesize creates the column list of a new destination table. Every
staged column must resolve to exactly one column mapping, and the result
has exactly one primary key column.

PlanTransfer pairs staged columns with columns of an existing destination
table. Columns without mapping, with an ambiguous mapping or without
destination column are left out of the copy.
*/
package schema

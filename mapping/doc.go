/*
Package mapping loads column and table mappings and resolves source
columns of staged tables to destination columns.

Column mappings are keyed by the DBF column name (case-insensitive,
truncated to 10 characters). A mapping with table_names only applies to
the listed destination tables and overrides unscoped mappings of the same
column name for these tables.

Table mappings configure the destination schema/table of a dataset table
and whether it is appended to, promoted to multi geometries, given an
explicit primary key or a synthesized serial id.
*/
package mapping

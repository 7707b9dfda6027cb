package mapping

import (
	"encoding/json"
	"io/ioutil"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/vicmap/vmimport/mapping/config"
)

// MaxSourceNameLength is the maximum length of a DBF field name.
// Longer names are truncated before comparison.
const MaxSourceNameLength = 10

// NormalizeName returns the lookup key for a source column name.
func NormalizeName(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) > MaxSourceNameLength {
		r = r[:MaxSourceNameLength]
	}
	return strings.ToUpper(string(r))
}

// ColumnRule is a loaded column mapping.
type ColumnRule struct {
	Key        string
	SourceName string
	Name       string
	DataType   string
	Transform  string
	// Priority is only valid if HasPriority is set.
	Priority    int
	HasPriority bool
	// tables is nil for unscoped rules.
	tables map[string]struct{}
}

// Scoped returns whether the rule only applies to listed tables.
func (r *ColumnRule) Scoped() bool {
	return r.tables != nil
}

// AppliesTo returns whether a scoped rule lists the table, either by
// table name or as schema.table.
func (r *ColumnRule) AppliesTo(schema, table string) bool {
	if r.tables == nil {
		return false
	}
	table = strings.ToLower(table)
	if _, ok := r.tables[table]; ok {
		return true
	}
	_, ok := r.tables[strings.ToLower(schema)+"."+table]
	return ok
}

// Tables returns the sorted table scope of the rule.
func (r *ColumnRule) Tables() []string {
	var names []string
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TableRule is a loaded table mapping.
type TableRule struct {
	Dataset    string
	Table      string
	DestSchema string
	DestTable  string
	Append     bool
	ForceMulti bool
	PrimaryKey string
	SerialID   string
}

type tableKey struct {
	dataset string
	table   string
}

func newTableKey(dataset, table string) tableKey {
	return tableKey{strings.ToLower(dataset), strings.ToLower(table)}
}

// Mapping holds all column and table rules of a run. It is read-only
// after New returns.
type Mapping struct {
	ColumnConf config.ColumnMappings
	TableConf  config.TableMappings

	columns map[string][]*ColumnRule
	tables  map[tableKey]*TableRule
}

// FromFiles loads column and table mappings from JSON or YAML files.
func FromFiles(columnFile, tableFile string) (*Mapping, error) {
	columns, err := ioutil.ReadFile(columnFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading column mappings")
	}
	tables, err := ioutil.ReadFile(tableFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading table mappings")
	}
	m, err := New(columns, tables)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s and %s", columnFile, tableFile)
	}
	return m, nil
}

// New parses column and table mappings.
func New(columnData, tableData []byte) (*Mapping, error) {
	m := Mapping{}
	if err := decode(columnData, &m.ColumnConf); err != nil {
		return nil, errors.Wrap(err, "parsing column mappings")
	}
	if err := decode(tableData, &m.TableConf); err != nil {
		return nil, errors.Wrap(err, "parsing table mappings")
	}
	if err := m.prepare(); err != nil {
		return nil, err
	}
	return &m, nil
}

// decode parses valid JSON documents as JSON and everything else as
// YAML. YAML escapes differ from JSON escapes (e.g. \/).
func decode(data []byte, v interface{}) error {
	if json.Valid(data) {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}

func (m *Mapping) prepare() error {
	m.columns = make(map[string][]*ColumnRule)
	for i, c := range m.ColumnConf {
		if c.SourceName == "" {
			return errors.Errorf("column mapping #%d: missing column_name_10", i+1)
		}
		if c.Name == "" {
			return errors.Errorf("column mapping #%d (%s): missing column_name", i+1, c.SourceName)
		}
		if c.DataType == "" {
			return errors.Errorf("column mapping #%d (%s): missing data_type", i+1, c.SourceName)
		}
		rule := &ColumnRule{
			Key:        NormalizeName(c.SourceName),
			SourceName: c.SourceName,
			Name:       c.Name,
			DataType:   c.DataType,
			Transform:  c.Transform,
		}
		if c.PrimaryKeyPriority != nil {
			rule.Priority = *c.PrimaryKeyPriority
			rule.HasPriority = true
		}
		if c.TableNames != nil {
			rule.tables = make(map[string]struct{}, len(c.TableNames))
			for _, name := range c.TableNames {
				rule.tables[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
			}
		}
		m.columns[rule.Key] = append(m.columns[rule.Key], rule)
	}

	m.tables = make(map[tableKey]*TableRule)
	for i, t := range m.TableConf {
		if t.Dataset == "" || t.Table == "" {
			return errors.Errorf("table mapping #%d: dataset and table are required", i+1)
		}
		key := newTableKey(t.Dataset, t.Table)
		if _, ok := m.tables[key]; ok {
			return errors.Errorf("table mapping #%d: duplicate mapping for %s.%s", i+1, t.Dataset, t.Table)
		}
		m.tables[key] = &TableRule{
			Dataset:    t.Dataset,
			Table:      t.Table,
			DestSchema: t.DestSchema,
			DestTable:  t.DestTable,
			Append:     t.Append,
			ForceMulti: t.ForceMulti,
			PrimaryKey: t.PrimaryKey,
			SerialID:   t.SerialID,
		}
	}
	return nil
}

// CheckStagingSchema returns an error if a table mapping writes into the
// staging schema.
func (m *Mapping) CheckStagingSchema(staging string) error {
	for _, t := range m.TableConf {
		if strings.EqualFold(t.DestSchema, staging) {
			return errors.Errorf("table mapping %s.%s: dest_schema %s is the staging schema",
				t.Dataset, t.Table, t.DestSchema)
		}
	}
	return nil
}

// ColumnRules returns all rules for a source column name, scoped or not.
func (m *Mapping) ColumnRules(sourceColumn string) []*ColumnRule {
	return m.columns[NormalizeName(sourceColumn)]
}

// TableRule returns the table rule of a dataset table or nil.
func (m *Mapping) TableRule(dataset, table string) *TableRule {
	return m.tables[newTableKey(dataset, table)]
}

// Destination returns the destination schema and table for a dataset
// table. Without override these are the lower-cased dataset and table
// names.
func (m *Mapping) Destination(dataset, table string) (string, string) {
	schema, name := strings.ToLower(dataset), strings.ToLower(table)
	if rule := m.TableRule(dataset, table); rule != nil {
		if rule.DestSchema != "" {
			schema = rule.DestSchema
		}
		if rule.DestTable != "" {
			name = rule.DestTable
		}
	}
	return schema, name
}

// ScopedElsewhere returns whether a source column only has rules that
// are scoped to other tables.
func (m *Mapping) ScopedElsewhere(destSchema, destTable, sourceColumn string) bool {
	rules := m.ColumnRules(sourceColumn)
	if len(rules) == 0 {
		return false
	}
	for _, r := range rules {
		if !r.Scoped() || r.AppliesTo(destSchema, destTable) {
			return false
		}
	}
	return true
}

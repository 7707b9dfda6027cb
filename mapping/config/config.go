// Package config contains the structures of the column and table mapping
// files. Files may be written as JSON or YAML.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ColumnMapping maps a source column to a destination column.
type ColumnMapping struct {
	// SourceName is the source column name as stored in a DBF header
	// (at most 10 characters).
	SourceName         string     `json:"column_name_10" yaml:"column_name_10"`
	Name               string     `json:"column_name" yaml:"column_name"`
	DataType           string     `json:"data_type" yaml:"data_type"`
	PrimaryKeyPriority *int       `json:"primary_key_priority" yaml:"primary_key_priority"`
	Transform          string     `json:"transform" yaml:"transform"`
	TableNames         TableNames `json:"table_names" yaml:"table_names"`
}

type ColumnMappings []ColumnMapping

// TableMapping configures the destination and load behaviour of a
// single dataset table.
type TableMapping struct {
	Dataset    string `json:"dataset" yaml:"dataset"`
	Table      string `json:"table" yaml:"table"`
	DestSchema string `json:"dest_schema" yaml:"dest_schema"`
	DestTable  string `json:"dest_table" yaml:"dest_table"`
	Append     bool   `json:"append" yaml:"append"`
	ForceMulti bool   `json:"force_multi" yaml:"force_multi"`
	PrimaryKey string `json:"primary_key" yaml:"primary_key"`
	SerialID   string `json:"serial_id" yaml:"serial_id"`
}

type TableMappings []TableMapping

// TableNames restricts a column mapping to a set of destination tables.
// A nil TableNames applies to all tables. A single string is accepted
// as a one element list.
type TableNames []string

func (tn *TableNames) UnmarshalYAML(unmarshal func(interface{}) error) error {
	return tn.unmarshal(unmarshal)
}

func (tn *TableNames) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	return tn.unmarshal(func(v interface{}) error {
		return json.Unmarshal(data, v)
	})
}

func (tn *TableNames) unmarshal(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*tn = TableNames{single}
		return nil
	}
	list := []interface{}{}
	if err := unmarshal(&list); err != nil {
		return fmt.Errorf("table_names must be a string or a list of strings")
	}
	names := make(TableNames, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("table_names value '%v' not a string", v)
		}
		names = append(names, s)
	}
	*tn = names
	return nil
}

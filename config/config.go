// Package config loads the run configuration from a config file,
// VMIMPORT_* environment variables and command line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Connection     string `mapstructure:"connection"`
	ColumnMappings string `mapstructure:"column_mappings"`
	TableMappings  string `mapstructure:"table_mappings"`
	StagingSchema  string `mapstructure:"staging_schema"`
	GeometryColumn string `mapstructure:"geometry_column"`
	Srid           int    `mapstructure:"srid"`
	Ogr2ogr        string `mapstructure:"ogr2ogr"`
	Httpprofile    string `mapstructure:"httpprofile"`
	Quiet          bool   `mapstructure:"quiet"`
	Verbose        bool   `mapstructure:"verbose"`

	Recreate    bool `mapstructure:"recreate"`
	SkipStaging bool `mapstructure:"skip_staging"`
	KeepStaging bool `mapstructure:"keep_staging"`
	Recursive   bool `mapstructure:"recursive"`
	StopOnError bool `mapstructure:"stop_on_error"`
}

const EnvPrefix = "VMIMPORT"

const defaultColumnMappings = "datasets/column_mappings.json"
const defaultTableMappings = "datasets/table_mappings.json"
const defaultStagingSchema = "import"
const defaultGeometryColumn = "geom"

// SetDefaults registers all configuration keys of v. Keys without
// default are not read from the environment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("connection", "")
	v.SetDefault("column_mappings", defaultColumnMappings)
	v.SetDefault("table_mappings", defaultTableMappings)
	v.SetDefault("staging_schema", defaultStagingSchema)
	v.SetDefault("geometry_column", defaultGeometryColumn)
	v.SetDefault("srid", 0)
	v.SetDefault("ogr2ogr", "")
	v.SetDefault("httpprofile", "")
	v.SetDefault("quiet", false)
	v.SetDefault("verbose", false)
	v.SetDefault("recreate", false)
	v.SetDefault("skip_staging", false)
	v.SetDefault("keep_staging", false)
	v.SetDefault("recursive", false)
	v.SetDefault("stop_on_error", false)
}

// Load reads configFile (optional, YAML or JSON) and the environment
// into a checked Config. Flags need to be bound to v before.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", configFile)
		}
	}

	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if errs := conf.check(); len(errs) != 0 {
		return nil, Errors(errs)
	}
	return conf, nil
}

func (c *Config) check() []error {
	errs := []error{}
	if c.Srid < 0 {
		errs = append(errs, errors.Errorf("invalid srid %d", c.Srid))
	}
	if c.ColumnMappings == "" {
		errs = append(errs, errors.New("missing column mappings"))
	}
	if c.TableMappings == "" {
		errs = append(errs, errors.New("missing table mappings"))
	}
	if c.StagingSchema == "" {
		errs = append(errs, errors.New("missing staging schema"))
	}
	if c.GeometryColumn == "" {
		errs = append(errs, errors.New("missing geometry column"))
	}
	return errs
}

// Errors are all problems of a configuration.
type Errors []error

func (e Errors) Error() string {
	var b strings.Builder
	b.WriteString("errors in config/options:")
	for _, err := range e {
		fmt.Fprintf(&b, "\n\t%s", err)
	}
	return b.String()
}

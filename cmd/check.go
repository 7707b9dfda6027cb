package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vicmap/vmimport"
	"github.com/vicmap/vmimport/mapping"
)

var checkMappingsCmd = &cobra.Command{
	Use:   "check-mappings",
	Short: "Validate the column and table mappings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mapping.FromFiles(conf.ColumnMappings, conf.TableMappings)
		if err != nil {
			return err
		}
		log.Printf("%s: %d column mappings", conf.ColumnMappings, len(m.ColumnConf))
		log.Printf("%s: %d table mappings", conf.TableMappings, len(m.TableConf))
		if err := m.CheckStagingSchema(conf.StagingSchema); err != nil {
			return err
		}
		for _, c := range m.ColumnConf {
			for _, r := range m.ColumnRules(c.SourceName) {
				if r.Name == c.Name && r.Scoped() {
					log.Debugf("%s -> %s only for %s", r.SourceName, r.Name, strings.Join(r.Tables(), ", "))
				}
			}
		}
		for _, t := range m.TableConf {
			s, n := m.Destination(t.Dataset, t.Table)
			log.Debugf("%s.%s -> %s.%s", t.Dataset, t.Table, s, n)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(vmimport.Version)
	},
}

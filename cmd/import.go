package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vicmap/vmimport/database"
	_ "github.com/vicmap/vmimport/database/postgis"
	"github.com/vicmap/vmimport/discover"
	"github.com/vicmap/vmimport/import_"
	"github.com/vicmap/vmimport/loader"
	"github.com/vicmap/vmimport/mapping"
)

var importCmd = &cobra.Command{
	Use:   "import <folder> [layer]",
	Short: "Import all layers of a dataset folder, or a single layer",
	Example: `  vmimport import data/VMADMIN
  vmimport import data/VMADMIN lga_polygon --recreate
  vmimport import data --recursive --stop-on-error`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := mapping.FromFiles(conf.ColumnMappings, conf.TableMappings)
		if err != nil {
			return err
		}
		if err := m.CheckStagingSchema(conf.StagingSchema); err != nil {
			return err
		}

		layers, err := findLayers(args)
		if err != nil {
			return err
		}
		if len(layers) == 0 {
			return errors.Errorf("no layers found in %s", args[0])
		}
		log.Printf("layers to import:")
		for _, l := range layers {
			log.Printf("  %s", l.Path)
		}

		db, err := database.Open(database.Config{ConnectionParams: conf.Connection})
		if err != nil {
			return err
		}
		defer db.Close()

		imp := import_.NewImporter(db, &loader.OGR{Path: conf.Ogr2ogr}, m, import_.Options{
			Recreate:       conf.Recreate,
			SkipStaging:    conf.SkipStaging,
			KeepStaging:    conf.KeepStaging,
			StagingSchema:  conf.StagingSchema,
			GeometryColumn: conf.GeometryColumn,
			Srid:           conf.Srid,
		})
		if conf.KeepStaging {
			log.Warnf("staging tables in %s will be left intact", conf.StagingSchema)
		}

		step := log.StartStep("Importing")
		summary := import_.Run(imp, layers, conf.StopOnError)
		log.StopStep(step)
		summary.Log(log)

		if summary.Failed() > 0 {
			return errors.Errorf("%d of %d layers failed", summary.Failed(), len(layers))
		}
		return nil
	},
}

func findLayers(args []string) ([]discover.Layer, error) {
	if len(args) == 2 {
		l, err := discover.Single(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return []discover.Layer{l}, nil
	}
	var strategy discover.Strategy = discover.Flat{}
	if conf.Recursive {
		strategy = discover.Recursive{}
	}
	return strategy.Discover(args[0])
}

func init() {
	flags := importCmd.Flags()
	flags.Bool("recreate", false, "drop and recreate existing destination tables")
	flags.Bool("skip-staging", false, "reuse existing staging tables (debug)")
	flags.Bool("keep-staging", false, "leave staging tables intact (debug)")
	flags.Bool("recursive", false, "import all dataset folders below <folder>")
	flags.Bool("stop-on-error", false, "stop after the first failed layer")
	flags.String("staging-schema", "", "schema for staging tables (default import)")
	flags.String("geometry-column", "", "geometry column name (default geom)")
	flags.Int("srid", 0, "reproject layers to this srid")
	flags.String("ogr2ogr", "", "ogr2ogr binary (default $OGR2OGR or ogr2ogr)")

	bindFlags(flags, map[string]string{
		"recreate":        "recreate",
		"skip_staging":    "skip-staging",
		"keep_staging":    "keep-staging",
		"recursive":       "recursive",
		"stop_on_error":   "stop-on-error",
		"staging_schema":  "staging-schema",
		"geometry_column": "geometry-column",
		"srid":            "srid",
		"ogr2ogr":         "ogr2ogr",
	})
}

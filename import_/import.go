/*
Package import_ imports dataset layers into PostGIS.

Each layer is staged with the loader into the staging schema, its
destination table is created from the column mappings (or truncated),
and all mapped columns are copied with a single INSERT ... SELECT.
*/
package import_

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vicmap/vmimport/database"
	"github.com/vicmap/vmimport/discover"
	"github.com/vicmap/vmimport/loader"
	"github.com/vicmap/vmimport/logging"
	"github.com/vicmap/vmimport/mapping"
	"github.com/vicmap/vmimport/schema"
)

var log = logging.NewLogger("import")

const DefaultStagingSchema = "import"

type Loader interface {
	Load(req loader.Request) error
}

// Options of an import run.
type Options struct {
	// Recreate drops existing destination tables.
	Recreate bool
	// SkipStaging reuses existing staging tables instead of loading
	// the layers.
	SkipStaging bool
	// KeepStaging leaves staging tables for inspection.
	KeepStaging    bool
	StagingSchema  string
	GeometryColumn string
	// Srid reprojects all layers if not 0.
	Srid int
}

// LayerResult reports a successful layer import.
type LayerResult struct {
	Layer   discover.Layer
	Dest    database.Table
	Created bool
	// Rows is the number of copied rows, Total the row count of the
	// destination afterwards.
	Rows      int64
	Total     int64
	Discarded []schema.Discard
	Duration  time.Duration
}

type Importer struct {
	db      database.DB
	loader  Loader
	mapping *mapping.Mapping
	opts    Options
}

func NewImporter(db database.DB, l Loader, m *mapping.Mapping, opts Options) *Importer {
	if opts.StagingSchema == "" {
		opts.StagingSchema = DefaultStagingSchema
	}
	if opts.GeometryColumn == "" {
		opts.GeometryColumn = schema.DefaultGeometryColumn
	}
	return &Importer{db: db, loader: l, mapping: m, opts: opts}
}

// Destination returns the destination table of layer.
func (imp *Importer) Destination(layer discover.Layer) database.Table {
	s, t := imp.mapping.Destination(layer.Dataset, layer.Name)
	return database.Table{Schema: s, Name: t}
}

// ImportLayer imports a single layer. Errors are *LayerError.
func (imp *Importer) ImportLayer(layer discover.Layer) (result *LayerResult, err error) {
	start := time.Now()
	rule := imp.mapping.TableRule(layer.Dataset, layer.Name)
	dest := imp.Destination(layer)
	staging := database.Table{Schema: imp.opts.StagingSchema, Name: layer.Name}

	fail := func(step Step, err error) error {
		return &LayerError{Step: step, Schema: dest.Schema, Table: dest.Name, Err: err}
	}

	// staging drops its tables, destinations are only dropped on Recreate
	if strings.EqualFold(dest.Schema, staging.Schema) {
		return nil, fail(StepStage, errors.Errorf("destination %s is in the staging schema", dest))
	}

	step := log.StartStep(fmt.Sprintf("Importing %s into %s", layer.Path, dest))
	defer log.StopStep(step)

	if !imp.opts.KeepStaging {
		defer func() {
			if dropErr := imp.db.DropTable(staging); dropErr != nil {
				if err == nil {
					result, err = nil, fail(StepCleanup, dropErr)
				} else {
					log.Warnf("dropping staging table %s: %s", staging, dropErr)
				}
			}
		}()
	}

	if err := imp.stage(layer, staging, rule); err != nil {
		return nil, fail(StepStage, err)
	}

	columns, err := imp.db.Columns(staging)
	if err != nil {
		return nil, fail(StepStage, err)
	}
	src := schema.Source{Table: staging, Columns: columns, GeometryColumn: imp.opts.GeometryColumn}

	if err := imp.ensureSchema(dest.Schema); err != nil {
		return nil, fail(StepEnsureSchema, err)
	}

	created, err := imp.ensureTable(src, dest, rule)
	if err != nil {
		return nil, fail(StepEnsureTable, err)
	}

	plan, rows, err := imp.transfer(src, dest)
	if err != nil {
		return nil, fail(StepTransfer, err)
	}

	total, err := imp.db.RowCount(dest)
	if err != nil {
		return nil, fail(StepVerify, err)
	}
	if total <= 0 {
		return nil, fail(StepVerify, errors.Wrapf(ErrEmptyTable, "%s", dest))
	}
	log.Printf("%s: %d rows copied, %d rows total", dest, rows, total)

	return &LayerResult{
		Layer:     layer,
		Dest:      dest,
		Created:   created,
		Rows:      rows,
		Total:     total,
		Discarded: plan.Discarded,
		Duration:  time.Since(start),
	}, nil
}

func (imp *Importer) stage(layer discover.Layer, staging database.Table, rule *mapping.TableRule) error {
	if imp.opts.SkipStaging {
		exists, err := imp.db.TableExists(staging)
		if err != nil {
			return err
		}
		if !exists {
			return errors.Errorf("staging table %s does not exist", staging)
		}
		log.Printf("reusing staging table %s", staging)
		return nil
	}

	if err := imp.ensureSchema(staging.Schema); err != nil {
		return err
	}
	if err := imp.db.DropTable(staging); err != nil {
		return err
	}

	req := loader.Request{
		Path:           layer.Path,
		Schema:         staging.Schema,
		Table:          staging.Name,
		Connection:     imp.db.LoaderConnection(),
		ForceMulti:     rule != nil && rule.ForceMulti,
		Srid:           imp.opts.Srid,
		GeometryColumn: imp.opts.GeometryColumn,
	}
	if layer.IsTable() {
		log.Printf("staging table %s", layer.Path)
	} else {
		log.Printf("staging shapefile %s", layer.Path)
	}
	if err := imp.loader.Load(req); err != nil {
		return errors.Wrapf(err, "loading %s", layer.Path)
	}

	exists, err := imp.db.TableExists(staging)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Errorf("loader did not create %s", staging)
	}
	return nil
}

func (imp *Importer) ensureSchema(name string) error {
	exists, err := imp.db.SchemaExists(name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	log.Printf("creating schema %s", name)
	return imp.db.CreateSchema(name)
}

// ensureTable returns whether dest was created.
func (imp *Importer) ensureTable(src schema.Source, dest database.Table, rule *mapping.TableRule) (bool, error) {
	if imp.opts.Recreate {
		log.Printf("dropping %s", dest)
		if err := imp.db.DropTable(dest); err != nil {
			return false, err
		}
	}

	exists, err := imp.db.TableExists(dest)
	if err != nil {
		return false, err
	}
	if exists {
		if rule != nil && rule.Append {
			log.Printf("appending to %s", dest)
			return false, nil
		}
		log.Printf("truncating %s", dest)
		return false, imp.db.TruncateTable(dest)
	}

	def, err := schema.Synthesize(imp.mapping, imp.db, src, dest, rule)
	if err != nil {
		return false, err
	}
	log.Printf("creating %s with primary key %s", dest, def.PrimaryKey)
	if err := imp.db.CreateTable(dest, def.Columns); err != nil {
		return false, err
	}
	if def.Geometry != "" {
		if err := imp.db.CreateSpatialIndex(dest, def.Geometry); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (imp *Importer) transfer(src schema.Source, dest database.Table) (*schema.Transfer, int64, error) {
	plan, err := schema.PlanTransfer(imp.mapping, imp.db, src, dest)
	if err != nil {
		return nil, 0, err
	}
	for _, d := range plan.Discarded {
		switch {
		case d.Reason == schema.AmbiguousMapping:
			log.Warnf("discarding %s of %s", d, src.Table)
		case d.Reason == schema.NotMapped && imp.mapping.ScopedElsewhere(dest.Schema, dest.Name, d.Column):
			log.Warnf("discarding %s of %s, column mappings only exist for other tables", d.Column, src.Table)
		default:
			log.Debugf("discarding %s of %s", d, src.Table)
		}
	}
	if len(plan.Dest) == 0 {
		return nil, 0, errors.Wrapf(ErrTransfer, "no columns of %s map to %s", src.Table, dest)
	}

	rows, err := imp.db.CopyData(src.Table, plan.Source, dest, plan.Dest)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "copying %s to %s", src.Table, dest)
	}
	if rows == 0 {
		return nil, 0, errors.Wrapf(ErrTransfer, "%s to %s", src.Table, dest)
	}
	return plan, rows, nil
}

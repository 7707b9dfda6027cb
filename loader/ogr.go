// Package loader stages shapefiles and DBF tables into PostGIS with the
// GDAL ogr2ogr tool.
package loader

import (
	"bytes"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/vicmap/vmimport/logging"
)

var log = logging.NewLogger("ogr2ogr")

// DefaultPath is used when neither the configuration nor the OGR2OGR
// environment variable name a binary.
const DefaultPath = "ogr2ogr"

// Request describes a single layer to stage.
type Request struct {
	// Path of the .shp or .dbf file.
	Path       string
	Schema     string
	Table      string
	Connection string
	ForceMulti bool
	// Srid reprojects the layer if not 0.
	Srid           int
	GeometryColumn string
}

// OGR runs ogr2ogr. The zero value runs DefaultPath or $OGR2OGR.
type OGR struct {
	Path string
}

func (o *OGR) binary() string {
	if o.Path != "" {
		return o.Path
	}
	if path, ok := os.LookupEnv("OGR2OGR"); ok && path != "" {
		return path
	}
	return DefaultPath
}

// Args returns the ogr2ogr arguments for req, without the binary.
func (o *OGR) Args(req Request) []string {
	args := []string{
		"--config", "PG_USE_COPY", "YES",
		"-skipfailures",
		"-progress",
		"-f", "PostgreSQL",
		"PG:" + req.Connection,
		req.Path,
		"-nln", req.Schema + "." + req.Table,
		"-overwrite",
	}
	if req.GeometryColumn != "" {
		args = append(args, "-lco", "GEOMETRY_NAME="+req.GeometryColumn)
	}
	args = append(args, "-lco", "SPATIAL_INDEX=NO")
	if req.ForceMulti {
		args = append(args, "-nlt", "PROMOTE_TO_MULTI")
	}
	if req.Srid != 0 {
		args = append(args, "-t_srs", "EPSG:"+strconv.Itoa(req.Srid))
	}
	return args
}

// Load stages req.Path into req.Schema.req.Table. Skipped features are
// no error, a non-zero exit status is.
func (o *OGR) Load(req Request) error {
	if _, err := os.Stat(req.Path); err != nil {
		return errors.Wrap(err, "layer not readable")
	}

	var stderr bytes.Buffer
	cmd := exec.Command(o.binary(), o.Args(req)...)
	cmd.Stdout = &progressWriter{prefix: req.Table}
	cmd.Stderr = &stderr

	log.Debugf("running %s %s", o.binary(), strings.Join(redact(o.Args(req)), " "))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return errors.Wrapf(err, "ogr2ogr failed for %s: %s", req.Path, lastLine(msg))
		}
		return errors.Wrapf(err, "ogr2ogr failed for %s", req.Path)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		// skipped features end up here
		for _, line := range strings.Split(msg, "\n") {
			log.Debugf("%s: %s", req.Table, line)
		}
	}
	return nil
}

// progressWriter forwards the dotted ogr2ogr progress
// (0...10...20...) to the progress line.
type progressWriter struct {
	prefix string
	buf    []byte
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	if i := bytes.LastIndexByte(w.buf, '.'); i >= 0 {
		logging.Progress("[" + w.prefix + "] " + strings.TrimSpace(string(w.buf[:i+1])))
	}
	if bytes.Contains(w.buf, []byte("done")) {
		w.buf = w.buf[:0]
	}
	return len(p), nil
}

func lastLine(msg string) string {
	lines := strings.Split(msg, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

var passwordParam = regexp.MustCompile(`password=('(?:[^'\\]|\\.)*'|\S+)`)

// redact hides passwords of the PG: connection argument.
func redact(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.HasPrefix(a, "PG:") {
			a = passwordParam.ReplaceAllString(a, "password=xxx")
		}
		out[i] = a
	}
	return out
}

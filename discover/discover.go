// Package discover finds the layers of dataset folders.
//
// A dataset folder contains shapefiles below layer/ and attribute-only
// DBF tables below table/:
//
//	VMADMIN/layer/lga_polygon.shp
//	VMADMIN/table/lga_name.dbf
package discover

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	LayerDir = "layer"
	TableDir = "table"
)

// Layer is a single shapefile or DBF table of a dataset.
type Layer struct {
	Path    string
	Dataset string
	Name    string
}

// IsTable returns whether the layer is a DBF table without geometry.
func (l Layer) IsTable() bool {
	return strings.EqualFold(filepath.Ext(l.Path), ".dbf")
}

type Strategy interface {
	Discover(root string) ([]Layer, error)
}

// Flat treats root as a single dataset folder.
type Flat struct{}

func (Flat) Discover(root string) ([]Layer, error) {
	if err := checkDir(root); err != nil {
		return nil, err
	}
	dataset := datasetName(root)
	layers, found, err := datasetLayers(root, dataset)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Errorf("%s contains neither a %s nor a %s folder", root, LayerDir, TableDir)
	}
	return layers, nil
}

// Recursive treats every folder of root as a dataset. Folders without
// layer/ and table/ are searched for shapefiles and DBF tables.
type Recursive struct{}

func (Recursive) Discover(root string) ([]Layer, error) {
	if err := checkDir(root); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", root)
	}

	var layers []Layer
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		dataset := datasetName(dir)
		found, ok, err := datasetLayers(dir, dataset)
		if err != nil {
			return nil, err
		}
		if !ok {
			found, err = walkLayers(dir, dataset)
			if err != nil {
				return nil, err
			}
		}
		layers = append(layers, found...)
	}
	return layers, nil
}

// Single returns the named layer of the dataset folder root. Shapefiles
// take precedence over DBF tables of the same name.
func Single(root, name string) (Layer, error) {
	if err := checkDir(root); err != nil {
		return Layer{}, err
	}
	name = strings.ToLower(name)
	for _, c := range []struct{ dir, ext string }{{LayerDir, ".shp"}, {TableDir, ".dbf"}} {
		files, err := listFiles(filepath.Join(root, c.dir), c.ext)
		if err != nil {
			return Layer{}, err
		}
		for _, f := range files {
			if layerName(f) == name {
				return Layer{Path: f, Dataset: datasetName(root), Name: name}, nil
			}
		}
	}
	return Layer{}, errors.Errorf("layer %s not found in %s", name, root)
}

func checkDir(root string) error {
	fi, err := os.Stat(root)
	if err != nil {
		return errors.Wrap(err, "dataset folder")
	}
	if !fi.IsDir() {
		return errors.Errorf("%s is not a folder", root)
	}
	return nil
}

// datasetLayers returns the shapefiles of layer/ followed by the tables
// of table/. found is false if neither folder exists.
func datasetLayers(dir, dataset string) (layers []Layer, found bool, err error) {
	for _, c := range []struct{ dir, ext string }{{LayerDir, ".shp"}, {TableDir, ".dbf"}} {
		sub := filepath.Join(dir, c.dir)
		if fi, err := os.Stat(sub); err != nil || !fi.IsDir() {
			continue
		}
		found = true
		files, err := listFiles(sub, c.ext)
		if err != nil {
			return nil, false, err
		}
		for _, f := range files {
			layers = append(layers, Layer{Path: f, Dataset: dataset, Name: layerName(f)})
		}
	}
	return layers, found, nil
}

// listFiles returns the sorted files of dir with extension ext, in any
// case. A missing dir is no error.
func listFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", dir)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ext) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(files[i]) < strings.ToLower(files[j])
	})
	return files, nil
}

// walkLayers collects all shapefiles and DBF tables below dir. DBF files
// of shapefiles are skipped.
func walkLayers(dir, dataset string) ([]Layer, error) {
	var shapes, tables []Layer
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".shp":
			shapes = append(shapes, Layer{Path: path, Dataset: dataset, Name: layerName(path)})
		case ".dbf":
			if hasShapefile(path) {
				return nil
			}
			tables = append(tables, Layer{Path: path, Dataset: dataset, Name: layerName(path)})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "searching %s", dir)
	}
	return append(shapes, tables...), nil
}

func hasShapefile(dbf string) bool {
	base := strings.TrimSuffix(dbf, filepath.Ext(dbf))
	for _, ext := range []string{".shp", ".SHP"} {
		if _, err := os.Stat(base + ext); err == nil {
			return true
		}
	}
	return false
}

func datasetName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = filepath.Clean(dir)
	}
	return strings.ToLower(filepath.Base(abs))
}

func layerName(path string) string {
	name := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
}

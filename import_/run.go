package import_

import (
	"github.com/vicmap/vmimport/discover"
	"github.com/vicmap/vmimport/stats"
)

// Run imports layers one after another. Failed layers are logged and
// skipped, unless stopOnError is set.
func Run(imp *Importer, layers []discover.Layer, stopOnError bool) *stats.Summary {
	summary := stats.NewSummary()
	defer summary.Stop()

	for i, layer := range layers {
		log.Printf("Importing %d/%d: %s", i+1, len(layers), layer.Path)

		result, err := imp.ImportLayer(layer)
		if err != nil {
			log.Errorf("%s", err)
			summary.Add(stats.LayerStat{
				Layer: layer.Dataset + "/" + layer.Name,
				Dest:  imp.Destination(layer).String(),
				Err:   err,
			})
			if stopOnError {
				break
			}
			continue
		}
		summary.Add(stats.LayerStat{
			Layer:     layer.Dataset + "/" + layer.Name,
			Dest:      result.Dest.String(),
			Rows:      result.Rows,
			Discarded: len(result.Discarded),
			Duration:  result.Duration,
		})
	}
	return summary
}

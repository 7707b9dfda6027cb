package stats

import (
	"net/http"
	_ "net/http/pprof"

	"github.com/vicmap/vmimport/logging"
)

// StartHttpPProf serves the pprof handlers on bind in the background.
func StartHttpPProf(bind string) {
	log := logging.NewLogger("pprof")
	go func() {
		log.Printf("serving profiles on http://%s/debug/pprof/", bind)
		log.Errorf("%s", http.ListenAndServe(bind, nil))
	}()
}

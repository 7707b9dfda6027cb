package stats

import (
	"fmt"
	"sync"
	"time"

	"github.com/vicmap/vmimport/logging"
)

// LayerStat is the outcome of a single layer import.
type LayerStat struct {
	Layer     string
	Dest      string
	Rows      int64
	Discarded int
	Duration  time.Duration
	Err       error
}

func (s LayerStat) Failed() bool {
	return s.Err != nil
}

// Summary collects the layer results of a batch run.
type Summary struct {
	mu     sync.Mutex
	start  time.Time
	stop   time.Time
	layers []LayerStat
}

func NewSummary() *Summary {
	return &Summary{start: time.Now()}
}

func (s *Summary) Add(stat LayerStat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = append(s.layers, stat)
}

// Stop marks the end of the run.
func (s *Summary) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop = time.Now()
}

func (s *Summary) Layers() []LayerStat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LayerStat(nil), s.layers...)
}

func (s *Summary) Succeeded() int {
	return len(s.Layers()) - s.Failed()
}

func (s *Summary) Failed() int {
	n := 0
	for _, l := range s.Layers() {
		if l.Failed() {
			n++
		}
	}
	return n
}

// Rows returns the number of rows copied by all successful layers.
func (s *Summary) Rows() int64 {
	var n int64
	for _, l := range s.Layers() {
		if !l.Failed() {
			n += l.Rows
		}
	}
	return n
}

func (s *Summary) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop.IsZero() {
		return time.Since(s.start)
	}
	return s.stop.Sub(s.start)
}

// RowsPerSecond of all copied rows over the run duration.
func (s *Summary) RowsPerSecond() float64 {
	secs := s.Duration().Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Rows()) / secs
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d layers imported, %d failed, %d rows in %s (%.0f rows/s)",
		s.Succeeded(), s.Failed(), s.Rows(), s.Duration().Round(time.Millisecond), s.RowsPerSecond())
}

// Log prints all failed layers followed by the totals.
func (s *Summary) Log(log *logging.Logger) {
	for _, l := range s.Layers() {
		if l.Failed() {
			log.Errorf("%s: %s", l.Layer, l.Err)
		}
	}
	log.Print(s.String())
}

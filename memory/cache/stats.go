package cache

import (
	"fmt"
	"io"
)

// Statistics holds the cumulative counters of a cache.
type Statistics struct {
	Accesses   uint64 `json:"accesses"`
	Hits       uint64 `json:"hits"`
	Reads      uint64 `json:"reads"`
	Writes     uint64 `json:"writes"`
	ReadHits   uint64 `json:"read_hits"`
	WriteHits  uint64 `json:"write_hits"`
	Evictions  uint64 `json:"evictions"`
	WriteBacks uint64 `json:"write_backs"`
}

// Misses returns the number of accesses that did not hit.
func (s Statistics) Misses() uint64 {
	return s.Accesses - s.Hits
}

// HitRate returns hits over accesses, or 0 when nothing was accessed.
func (s Statistics) HitRate() float64 {
	return ratio(s.Hits, s.Accesses)
}

// ReadHitRate returns read hits over reads, or 0 when nothing was read.
func (s Statistics) ReadHitRate() float64 {
	return ratio(s.ReadHits, s.Reads)
}

// WriteHitRate returns write hits over writes, or 0 when nothing was written.
func (s Statistics) WriteHitRate() float64 {
	return ratio(s.WriteHits, s.Writes)
}

func ratio(part, whole uint64) float64 {
	if whole == 0 {
		return 0
	}

	return float64(part) / float64(whole)
}

// Report prints the statistics in a human readable form.
func (s Statistics) Report(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Total accesses: %d\n"+
			"Hits: %d\n"+
			"Hit rate: %.4f\n"+
			"Reads: %d\n"+
			"Read hits: %d\n"+
			"Read hit rate: %.4f\n"+
			"Writes: %d\n"+
			"Write hits: %d\n"+
			"Write hit rate: %.4f\n"+
			"Evictions: %d\n"+
			"Write-backs: %d\n",
		s.Accesses, s.Hits, s.HitRate(),
		s.Reads, s.ReadHits, s.ReadHitRate(),
		s.Writes, s.WriteHits, s.WriteHitRate(),
		s.Evictions, s.WriteBacks,
	)

	return err
}

package render

import (
	"errors"
	"fmt"

	"happy-place-engine/internal/geom"
)

// ErrRunMismatch is returned when a run list doesn't cover a texture exactly.
var ErrRunMismatch = errors.New("run lengths do not match texture size")

// Run is a span of identical cells in row-major order.
type Run struct {
	Cell  CellA  `json:"cell" yaml:"cell"`
	Count uint32 `json:"count" yaml:"count"`
}

// Runs merges adjacent identical cells. Runs may cross row boundaries.
func (t *Texture) Runs() []Run {
	var runs []Run
	for _, c := range t.cells {
		if n := len(runs); n > 0 && runs[n-1].Cell == c {
			runs[n-1].Count++
			continue
		}
		runs = append(runs, Run{Cell: c, Count: 1})
	}
	return runs
}

// FromRuns expands runs into a texture of the given size.
func FromRuns(size geom.UPoint, runs []Run) (*Texture, error) {
	var total uint64
	for _, r := range runs {
		total += uint64(r.Count)
	}
	if total != uint64(size.Area()) {
		return nil, fmt.Errorf("%d cells for %v: %w", total, size, ErrRunMismatch)
	}
	t := &Texture{Active: true, size: size, cells: make([]CellA, 0, size.Area())}
	for _, r := range runs {
		for i := uint32(0); i < r.Count; i++ {
			t.cells = append(t.cells, r.Cell)
		}
	}
	return t, nil
}

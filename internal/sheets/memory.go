package sheets

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps spreadsheet ranges in process. It follows the values API
// conventions the gateway relies on: reads drop trailing blank cells and rows,
// appends land below the last non-empty row.
type MemoryStore struct {
	mu     sync.Mutex
	sheets map[string][][]string
	err    error
}

var _ ValueStore = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with the header row of every layout.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{sheets: make(map[string][][]string)}
	for _, layout := range Layouts() {
		header := make([]string, len(layout.Columns))
		copy(header, layout.Columns)
		s.sheets[layout.Sheet] = [][]string{header}
	}
	return s
}

// SetError makes every subsequent call fail with err. Pass nil to recover.
func (s *MemoryStore) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Get returns the cells inside ref.
func (s *MemoryStore) Get(_ context.Context, ref string) ([][]string, error) {
	rng, err := parseA1(ref)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	grid := s.sheets[rng.sheet]
	first := rng.startRow
	if first == 0 {
		first = 1
	}
	last := len(grid)
	if rng.endRow > 0 && rng.endRow < last {
		last = rng.endRow
	}
	var out [][]string
	for r := first; r <= last; r++ {
		out = append(out, sliceColumns(grid[r-1], rng.startCol, rng.endCol))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// Append writes rows below the last non-empty row of the sheet.
func (s *MemoryStore) Append(_ context.Context, ref string, rows [][]any) error {
	rng, err := parseA1(ref)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	grid := s.sheets[rng.sheet]
	for len(grid) > 0 && isBlank(grid[len(grid)-1]) {
		grid = grid[:len(grid)-1]
	}
	for _, row := range rows {
		grid = append(grid, placeRow(nil, rng.startCol, row))
	}
	s.sheets[rng.sheet] = grid
	return nil
}

// Update overwrites the cells starting at the top-left corner of ref.
func (s *MemoryStore) Update(_ context.Context, ref string, rows [][]any) error {
	rng, err := parseA1(ref)
	if err != nil {
		return err
	}
	if rng.startRow == 0 {
		return fmt.Errorf("sheets: update range %q needs a start row", ref)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	grid := s.sheets[rng.sheet]
	for i, row := range rows {
		r := rng.startRow + i
		for len(grid) < r {
			grid = append(grid, nil)
		}
		grid[r-1] = placeRow(grid[r-1], rng.startCol, row)
	}
	s.sheets[rng.sheet] = grid
	return nil
}

// Rows returns a copy of every row of sheet, header included.
func (s *MemoryStore) Rows(sheet string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	grid := s.sheets[sheet]
	out := make([][]string, len(grid))
	for i, row := range grid {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func placeRow(existing []string, startCol int, values []any) []string {
	need := startCol - 1 + len(values)
	row := append([]string(nil), existing...)
	for len(row) < need {
		row = append(row, "")
	}
	for i, v := range values {
		row[startCol-1+i] = formatCell(v)
	}
	return row
}

func sliceColumns(row []string, startCol, endCol int) []string {
	if startCol-1 >= len(row) {
		return nil
	}
	end := len(row)
	if endCol > 0 && endCol < end {
		end = endCol
	}
	out := append([]string(nil), row[startCol-1:end]...)
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

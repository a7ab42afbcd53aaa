package display

import (
	"strings"
	"sync"
)

// FakeDevice is an in-memory character grid for tests.
type FakeDevice struct {
	mu     sync.Mutex
	grid   [][]rune
	col    int
	row    int
	Prints []string
	Closed bool

	// PrintError, if set, is returned by Print.
	PrintError error
}

func NewFakeDevice(columns, rows int) *FakeDevice {
	f := &FakeDevice{}
	f.grid = make([][]rune, rows)
	for i := range f.grid {
		f.grid[i] = []rune(strings.Repeat(" ", columns))
	}
	return f
}

func (f *FakeDevice) SetCursor(col, row int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.col, f.row = col, row
	return nil
}

func (f *FakeDevice) Print(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PrintError != nil {
		return f.PrintError
	}
	f.Prints = append(f.Prints, s)
	line := f.grid[f.row]
	for _, r := range s {
		if f.col >= len(line) {
			break
		}
		line[f.col] = r
		f.col++
	}
	return nil
}

func (f *FakeDevice) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.grid {
		f.grid[i] = []rune(strings.Repeat(" ", len(f.grid[i])))
	}
	f.col, f.row = 0, 0
	return nil
}

func (f *FakeDevice) Close() error {
	f.Closed = true
	return nil
}

// Line returns row with trailing blanks removed.
func (f *FakeDevice) Line(row int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.TrimRight(string(f.grid[row]), " ")
}

package alloc

import (
	"fmt"
	"io"
	"sync"
)

// Align is the boundary every placement starts on.
const Align = 8

// Region is one placed block.
type Region struct {
	Addr uint64
	Size uint64
}

// Stats summarizes the placements made by an Appender.
type Stats struct {
	Placements uint64
	Bytes      uint64 // placed, excluding alignment padding
	Padding    uint64
	Abandoned  uint64 // bytes of structures superseded since the file was opened
	Largest    uint64
}

// Appender writes blocks at the end of a file.
type Appender struct {
	mu      sync.Mutex
	w       io.WriterAt
	base    uint64
	eof     uint64
	regions []Region
	stats   Stats
}

// New returns an Appender writing to w, with the first placement at or after
// eof.
func New(w io.WriterAt, eof uint64) *Appender {
	return &Appender{w: w, base: eof, eof: eof}
}

// Place writes data at the next aligned address and returns that address.
// Empty data is not written and returns the current end of file.
func (a *Appender) Place(data []byte) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(data) == 0 {
		return a.eof, nil
	}
	addr := a.eof
	if rem := addr % Align; rem != 0 {
		pad := Align - rem
		if _, err := a.w.WriteAt(make([]byte, pad), int64(addr)); err != nil {
			return 0, fmt.Errorf("pad at 0x%x: %w", addr, err)
		}
		a.stats.Padding += pad
		addr += pad
	}
	if _, err := a.w.WriteAt(data, int64(addr)); err != nil {
		return 0, fmt.Errorf("write %d bytes at 0x%x: %w", len(data), addr, err)
	}

	size := uint64(len(data))
	a.eof = addr + size
	a.regions = append(a.regions, Region{Addr: addr, Size: size})
	a.stats.Placements++
	a.stats.Bytes += size
	a.stats.Largest = max(a.stats.Largest, size)
	return addr, nil
}

// Abandon records that size bytes of an older structure are no longer
// referenced.
func (a *Appender) Abandon(size uint64) {
	a.mu.Lock()
	a.stats.Abandoned += size
	a.mu.Unlock()
}

// EOF returns the address just past the last placement.
func (a *Appender) EOF() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eof
}

// Stats returns a copy of the placement statistics.
func (a *Appender) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Regions returns the blocks placed so far, in file order.
func (a *Appender) Regions() []Region {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Region(nil), a.regions...)
}

// Validate checks that placements are aligned, lie past the starting end of
// file and do not overlap.
func (a *Appender) Validate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	prev := a.base
	for _, r := range a.regions {
		if r.Addr%Align != 0 {
			return fmt.Errorf("region at 0x%x is not %d-byte aligned", r.Addr, Align)
		}
		if r.Addr < prev {
			return fmt.Errorf("region at 0x%x overlaps data ending at 0x%x", r.Addr, prev)
		}
		prev = r.Addr + r.Size
	}
	if prev > a.eof {
		return fmt.Errorf("regions end at 0x%x past EOF 0x%x", prev, a.eof)
	}
	return nil
}

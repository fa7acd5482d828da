package vram

import (
	"sync/atomic"

	"github.com/retroenv/texpool/internal/gpu"
)

// PairedEntry is a paired format slot.
type PairedEntry struct {
	Addr uint32
	Entry
}

// PairedTable is the side table for textures stored in the high half of a paired
// layout. It is small, so lookups scan it. Writers have to be serialized by the
// caller, readers see a consistent copy.
type PairedTable struct {
	entries atomic.Pointer[[]PairedEntry]
}

// Get returns the entry for the address.
func (p *PairedTable) Get(addr uint32) (Entry, bool) {
	for _, e := range p.Entries() {
		if e.Addr == addr {
			return e.Entry, true
		}
	}
	return Entry{}, false
}

// Set replaces the entry for the address or appends a new one. It returns the
// previous entry if there was one.
func (p *PairedTable) Set(addr uint32, entry Entry) (Entry, bool) {
	current := p.Entries()
	updated := make([]PairedEntry, len(current), len(current)+1)
	copy(updated, current)

	for i, e := range updated {
		if e.Addr == addr {
			updated[i].Entry = entry
			p.entries.Store(&updated)
			return e.Entry, true
		}
	}

	updated = append(updated, PairedEntry{Addr: addr, Entry: entry})
	p.entries.Store(&updated)
	return Entry{}, false
}

// SetHandle refreshes the handle of an existing entry.
func (p *PairedTable) SetHandle(addr uint32, handle gpu.Handle) {
	e, ok := p.Get(addr)
	if !ok {
		return
	}
	e.Handle = handle
	p.Set(addr, e)
}

// Entries returns all entries in insertion order. The slice must not be modified.
func (p *PairedTable) Entries() []PairedEntry {
	entries := p.entries.Load()
	if entries == nil {
		return nil
	}
	return *entries
}

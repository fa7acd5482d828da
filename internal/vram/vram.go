// Package vram implements the simulated video memory address space. Every fixed
// size block of the address space maps to the texture that the game last put there.
package vram

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/retroenv/texpool/internal/gpu"
	"github.com/retroenv/texpool/internal/registry"
)

// Address space constants of the simulated hardware.
const (
	Size      = 4 * 1024 * 1024
	BlockSize = 256
	NumSlots  = Size / BlockSize
)

// ErrAddressRange is returned for block addresses outside of the address space.
var ErrAddressRange = errors.New("address outside of vram")

// Entry is the content of a slot. Source is nil only for slots that were never written.
type Entry struct {
	Handle gpu.Handle
	Source *registry.Texture
}

// Table holds one entry per block. Writers have to be serialized by the caller,
// readers need no synchronization: entries are immutable values that are replaced
// as a whole and a slot never goes back to untouched once written.
type Table struct {
	slots [NumSlots]atomic.Pointer[Entry]
}

// Valid returns whether the block address is inside the address space.
func Valid(addr uint32) bool {
	return addr < NumSlots
}

// Get returns the entry at the address, false if nothing was written there.
func (t *Table) Get(addr uint32) (Entry, bool) {
	if !Valid(addr) {
		return Entry{}, false
	}
	e := t.slots[addr].Load()
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

// Set replaces the entry at the address.
func (t *Table) Set(addr uint32, entry Entry) error {
	if !Valid(addr) {
		return fmt.Errorf("%w: 0x%x", ErrAddressRange, addr)
	}
	if entry.Source == nil {
		return fmt.Errorf("writing slot 0x%x without texture", addr)
	}
	t.slots[addr].Store(&entry)
	return nil
}

// SetHandle refreshes the handle of a written slot, keeping its texture.
func (t *Table) SetHandle(addr uint32, handle gpu.Handle) {
	if !Valid(addr) {
		return
	}
	e := t.slots[addr].Load()
	if e == nil {
		return
	}
	t.slots[addr].Store(&Entry{Handle: handle, Source: e.Source})
}

// Each calls fn for every written slot in address order.
func (t *Table) Each(fn func(addr uint32, entry Entry)) {
	for addr := range t.slots {
		if e := t.slots[addr].Load(); e != nil {
			fn(uint32(addr), *e)
		}
	}
}

package texpool

import (
	"errors"
	"fmt"

	"github.com/retroenv/texpool/internal/verification"
	"github.com/retroenv/texpool/internal/vram"
)

// Verify checks the whole pool: every slot resolves to a handle that belongs to its
// texture, records itself at that texture, and every address a texture records
// refers back to it.
func (p *Pool) Verify() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	p.slots.Each(func(addr uint32, e vram.Entry) {
		errs = append(errs,
			verification.CheckEntry(addr, e, p.placeholder),
			verification.CheckBackReference(addr, e, false))
	})
	for _, e := range p.paired.Entries() {
		errs = append(errs,
			verification.CheckEntry(e.Addr, e.Entry, p.placeholder),
			verification.CheckBackReference(e.Addr, e.Entry, true))
	}

	for _, tex := range p.registry.All() {
		for addr := range tex.Slots() {
			if e, ok := p.slots.Get(addr); !ok || e.Source != tex {
				errs = append(errs, fmt.Errorf("%w: '%s' records slot 0x%x that refers to another texture",
					verification.ErrMismatch, tex.Name(), addr))
			}
		}
		for addr := range tex.PairedSlots() {
			if e, ok := p.paired.Get(addr); !ok || e.Source != tex {
				errs = append(errs, fmt.Errorf("%w: '%s' records paired slot 0x%x that refers to another texture",
					verification.ErrMismatch, tex.Name(), addr))
			}
		}
	}
	return errors.Join(errs...)
}

// verifyLookup checks a single resolved slot. A mismatch is a pool bug, so it panics.
func (p *Pool) verifyLookup(addr uint32, e vram.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// the slot may have been rewritten since the lock free read
	if current, ok := p.slots.Get(addr); ok {
		e = current
	}
	if err := verification.CheckEntry(addr, e, p.placeholder); err != nil {
		panic(err)
	}
}

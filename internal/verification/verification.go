// Package verification cross-checks resolved slot handles against the texture
// identities they refer to.
package verification

import (
	"errors"
	"fmt"

	"github.com/retroenv/texpool/internal/gpu"
	"github.com/retroenv/texpool/internal/vram"
)

// ErrMismatch is returned when a slot resolves to a handle that does not belong to
// its texture.
var ErrMismatch = errors.New("slot handle mismatch")

// CheckEntry verifies that the handle of a written slot is the placeholder for a
// texture without instances, or the handle of one of its loaded instances otherwise.
// The caller has to hold the pool lock.
func CheckEntry(addr uint32, entry vram.Entry, placeholder gpu.Handle) error {
	tex := entry.Source
	if tex == nil {
		return nil
	}

	if len(tex.Instances()) == 0 {
		if entry.Handle != placeholder {
			return fmt.Errorf("%w: slot 0x%x of placeholder '%s' resolves to %d instead of placeholder %d",
				ErrMismatch, addr, tex.Name(), entry.Handle, placeholder)
		}
		return nil
	}

	if !tex.HasHandle(entry.Handle) {
		return fmt.Errorf("%w: slot 0x%x of '%s' resolves to %d which is not a loaded instance",
			ErrMismatch, addr, tex.Name(), entry.Handle)
	}
	return nil
}

// CheckBackReference verifies that the texture of a slot records the slot address.
func CheckBackReference(addr uint32, entry vram.Entry, paired bool) error {
	tex := entry.Source
	if tex == nil {
		return nil
	}

	recorded, kind := tex.HasSlot(addr), "slot"
	if paired {
		recorded, kind = tex.HasPairedSlot(addr), "paired slot"
	}
	if !recorded {
		return fmt.Errorf("%w: %s 0x%x is not recorded by '%s'", ErrMismatch, kind, addr, tex.Name())
	}
	return nil
}

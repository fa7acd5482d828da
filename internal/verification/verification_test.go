package verification

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/texpool/internal/gpu"
	"github.com/retroenv/texpool/internal/registry"
	"github.com/retroenv/texpool/internal/vram"
)

const placeholder gpu.Handle = 100

func TestCheckEntry(t *testing.T) {
	reg := registry.New()
	loaded, _ := reg.GetOrCreate("loaded", "")
	reg.Attach(loaded, registry.Instance{Handle: 1}, registry.Meta{})
	reg.Attach(loaded, registry.Instance{Handle: 2}, registry.Meta{})
	empty, _ := reg.GetOrCreate("empty", "")

	tests := []struct {
		name    string
		entry   vram.Entry
		wantErr bool
	}{
		{name: "canonical instance", entry: vram.Entry{Handle: 1, Source: loaded}},
		{name: "other instance", entry: vram.Entry{Handle: 2, Source: loaded}},
		{name: "foreign handle", entry: vram.Entry{Handle: 3, Source: loaded}, wantErr: true},
		{name: "placeholder of loaded texture", entry: vram.Entry{Handle: placeholder, Source: loaded}, wantErr: true},
		{name: "placeholder", entry: vram.Entry{Handle: placeholder, Source: empty}},
		{name: "stale handle of placeholder", entry: vram.Entry{Handle: 1, Source: empty}, wantErr: true},
		{name: "untouched", entry: vram.Entry{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckEntry(7, tt.entry, placeholder)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrMismatch))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckBackReference(t *testing.T) {
	reg := registry.New()
	tex, _ := reg.GetOrCreate("tex", "")
	reg.AddSlot(tex, 5)
	reg.AddPairedSlot(tex, 6)

	assert.NoError(t, CheckBackReference(5, vram.Entry{Source: tex}, false))
	assert.NoError(t, CheckBackReference(6, vram.Entry{Source: tex}, true))
	assert.ErrorContains(t, CheckBackReference(6, vram.Entry{Source: tex}, false), "slot 0x6")
	assert.ErrorContains(t, CheckBackReference(5, vram.Entry{Source: tex}, true), "paired slot 0x5")
}

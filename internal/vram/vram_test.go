package vram

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/texpool/internal/registry"
)

func TestTable(t *testing.T) {
	var table Table
	reg := registry.New()
	tex, _ := reg.GetOrCreate("tex", "")

	_, ok := table.Get(100)
	assert.False(t, ok)

	assert.NoError(t, table.Set(100, Entry{Handle: 5, Source: tex}))
	e, ok := table.Get(100)
	assert.True(t, ok)
	assert.Equal(t, 5, int(e.Handle))
	assert.True(t, e.Source == tex)

	table.SetHandle(100, 6)
	e, _ = table.Get(100)
	assert.Equal(t, 6, int(e.Handle))

	table.SetHandle(101, 6)
	_, ok = table.Get(101)
	assert.False(t, ok)

	err := table.Set(NumSlots, Entry{Source: tex})
	assert.True(t, errors.Is(err, ErrAddressRange))
	assert.Error(t, table.Set(0, Entry{Handle: 1}))

	_, ok = table.Get(NumSlots + 10)
	assert.False(t, ok)

	var visited []uint32
	table.Each(func(addr uint32, entry Entry) {
		visited = append(visited, addr)
	})
	assert.Equal(t, []uint32{100}, visited)
}

func TestPairedTable(t *testing.T) {
	var table PairedTable
	reg := registry.New()
	a, _ := reg.GetOrCreate("a", "")
	b, _ := reg.GetOrCreate("b", "")

	_, ok := table.Get(1)
	assert.False(t, ok)

	_, replaced := table.Set(1, Entry{Handle: 1, Source: a})
	assert.False(t, replaced)
	table.Set(2, Entry{Handle: 2, Source: a})

	previous, replaced := table.Set(1, Entry{Handle: 3, Source: b})
	assert.True(t, replaced)
	assert.True(t, previous.Source == a)

	e, ok := table.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 3, int(e.Handle))
	assert.Len(t, table.Entries(), 2)

	table.SetHandle(2, 9)
	e, _ = table.Get(2)
	assert.Equal(t, 9, int(e.Handle))
}

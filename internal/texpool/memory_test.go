package texpool

import (
	"encoding/binary"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/texpool/internal/goaltex"
)

const (
	testMemorySize = 0x10000
	testSentinel   = 0x147
)

// memBuilder lays out texture pages in a simulated main memory image.
type memBuilder struct {
	mem  []byte
	next uint32
}

type pagedTexture struct {
	name  string
	tex   goaltex.Texture
	empty bool // store the empty sentinel instead of a texture
}

func newMemBuilder() *memBuilder {
	return &memBuilder{
		mem:  make([]byte, testMemorySize),
		next: 0x200,
	}
}

func (b *memBuilder) alloc(size int) uint32 {
	ptr := b.next
	b.next += (uint32(size) + 15) &^ 15
	return ptr
}

func (b *memBuilder) str(t *testing.T, s string) uint32 {
	t.Helper()
	ptr := b.alloc(4 + len(s) + 1)
	_, err := goaltex.WriteString(b.mem, ptr, s)
	assert.NoError(t, err)
	return ptr
}

func (b *memBuilder) page(t *testing.T, name string, textures ...pagedTexture) uint32 {
	t.Helper()
	header := goaltex.Page{
		NamePtr: b.str(t, name),
		Length:  int32(len(textures)),
	}
	pagePtr := b.alloc(goaltex.PageHeaderSize + 4*len(textures))
	copy(b.mem[pagePtr:], header.Encode())

	for i, pt := range textures {
		ptr := uint32(testSentinel)
		if !pt.empty {
			tex := pt.tex
			tex.NamePtr = b.str(t, pt.name)
			ptr = b.alloc(goaltex.TextureSize)
			copy(b.mem[ptr:], tex.Encode())
		}
		b.setTexturePtr(pagePtr, i, ptr)
	}
	return pagePtr
}

func (b *memBuilder) setTexturePtr(pagePtr uint32, idx int, ptr uint32) {
	binary.LittleEndian.PutUint32(b.mem[pagePtr+goaltex.PageHeaderSize+4*uint32(idx):], ptr)
}

func (b *memBuilder) upload(pagePtr uint32, mode UploadMode) Upload {
	return Upload{
		Memory:   b.mem,
		Page:     pagePtr,
		Mode:     mode,
		Sentinel: testSentinel,
	}
}

// mipTexture returns a texture record with a destination for every mip.
func mipTexture(numMips uint8, dest ...uint16) goaltex.Texture {
	tex := goaltex.Texture{
		W:       8,
		H:       8,
		NumMips: numMips,
		PSM:     uint8(goaltex.PSMT8),
	}
	copy(tex.Dest[:], dest)
	return tex
}

func pairedTexture(dest uint16) goaltex.Texture {
	tex := mipTexture(1, dest)
	tex.PSM = uint8(goaltex.PSMT4HH)
	return tex
}

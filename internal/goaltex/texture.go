// Package goaltex decodes the fixed layout texture and texture page records that the
// game keeps in its simulated main memory.
package goaltex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// MaxMips is the number of mip levels a texture record can describe.
const MaxMips = 7

// TextureSize is the size of a texture record in bytes.
const TextureSize = 60

// Field offsets of the texture record.
const (
	offsetW           = 0
	offsetH           = 2
	offsetNumMips     = 4
	offsetTex1Control = 5
	offsetPSM         = 6
	offsetMipShift    = 7
	OffsetClutPSM     = 8
	offsetDest        = 10
	OffsetClutDest    = 24
	offsetWidth       = 26
	offsetNamePtr     = 36
	offsetSize        = 40
	offsetUVDist      = 44
	offsetMasks       = 48
)

// the record layout is a contract with the external toolchain, these fail to compile
// when the field offsets no longer add up to the record size.
var (
	_ [OffsetClutPSM - 8]struct{}
	_ [8 - OffsetClutPSM]struct{}
	_ [OffsetClutDest - 24]struct{}
	_ [24 - OffsetClutDest]struct{}
	_ [offsetDest + 2*MaxMips - OffsetClutDest]struct{}
	_ [offsetMasks + 3*4 - TextureSize]struct{}
	_ [TextureSize - (offsetMasks + 3*4)]struct{}
)

// ErrTruncated is returned when a record does not fit into the memory buffer.
var ErrTruncated = errors.New("record exceeds memory buffer")

// Texture describes a single texture of a texture page.
type Texture struct {
	W           int16
	H           int16
	NumMips     uint8
	Tex1Control uint8
	PSM         uint8
	MipShift    uint8
	ClutPSM     uint16
	Dest        [MaxMips]uint16 // VRAM block address of every mip
	ClutDest    uint16
	Width       [MaxMips]uint8
	NamePtr     uint32
	Size        uint32
	UVDist      float32
	Masks       [3]uint32
}

// DecodeTexture reads the texture record at the given pointer of the memory buffer.
func DecodeTexture(mem []byte, ptr uint32) (Texture, error) {
	b, err := record(mem, ptr, TextureSize)
	if err != nil {
		return Texture{}, fmt.Errorf("decoding texture at 0x%08x: %w", ptr, err)
	}

	le := binary.LittleEndian
	tex := Texture{
		W:           int16(le.Uint16(b[offsetW:])),
		H:           int16(le.Uint16(b[offsetH:])),
		NumMips:     b[offsetNumMips],
		Tex1Control: b[offsetTex1Control],
		PSM:         b[offsetPSM],
		MipShift:    b[offsetMipShift],
		ClutPSM:     le.Uint16(b[OffsetClutPSM:]),
		ClutDest:    le.Uint16(b[OffsetClutDest:]),
		NamePtr:     le.Uint32(b[offsetNamePtr:]),
		Size:        le.Uint32(b[offsetSize:]),
		UVDist:      math.Float32frombits(le.Uint32(b[offsetUVDist:])),
	}
	for i := range MaxMips {
		tex.Dest[i] = le.Uint16(b[offsetDest+2*i:])
		tex.Width[i] = b[offsetWidth+i]
	}
	for i := range tex.Masks {
		tex.Masks[i] = le.Uint32(b[offsetMasks+4*i:])
	}
	return tex, nil
}

// Encode writes the record in its binary layout. The 3 padding bytes after the
// width table are written as zero.
func (t Texture) Encode() []byte {
	b := make([]byte, TextureSize)
	le := binary.LittleEndian
	le.PutUint16(b[offsetW:], uint16(t.W))
	le.PutUint16(b[offsetH:], uint16(t.H))
	b[offsetNumMips] = t.NumMips
	b[offsetTex1Control] = t.Tex1Control
	b[offsetPSM] = t.PSM
	b[offsetMipShift] = t.MipShift
	le.PutUint16(b[OffsetClutPSM:], t.ClutPSM)
	for i := range MaxMips {
		le.PutUint16(b[offsetDest+2*i:], t.Dest[i])
		b[offsetWidth+i] = t.Width[i]
	}
	le.PutUint16(b[OffsetClutDest:], t.ClutDest)
	le.PutUint32(b[offsetNamePtr:], t.NamePtr)
	le.PutUint32(b[offsetSize:], t.Size)
	le.PutUint32(b[offsetUVDist:], math.Float32bits(t.UVDist))
	for i, m := range t.Masks {
		le.PutUint32(b[offsetMasks+4*i:], m)
	}
	return b
}

// SegmentOfMip returns the page segment that holds the given mip level.
// Segment 0 holds the largest mips, textures with more than 2 mips spread
// over all 3 segments.
func (t Texture) SegmentOfMip(mip int) int {
	if int(t.NumMips) <= 2 {
		return int(t.NumMips) - mip - 1
	}
	return max(0, 2-mip)
}

// DataSize returns the size of the converted RGBA data in bytes.
func (t Texture) DataSize() int {
	return 4 * int(t.W) * int(t.H)
}

func record(mem []byte, ptr uint32, size int) ([]byte, error) {
	end := uint64(ptr) + uint64(size)
	if end > uint64(len(mem)) {
		return nil, fmt.Errorf("%w: 0x%x bytes at 0x%08x, buffer size 0x%x", ErrTruncated, size, ptr, len(mem))
	}
	return mem[ptr:end], nil
}

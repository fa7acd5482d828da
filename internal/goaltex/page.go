package goaltex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// NumSegments is the number of data segments of a texture page.
const NumSegments = 3

// PageHeaderSize is the size of the texture page header. The header is followed by
// one 4 byte texture record pointer per texture of the page.
const PageHeaderSize = 124

// Field offsets of the texture page header.
const (
	offsetFileInfoPtr = 0
	offsetPageNamePtr = 4
	offsetPageID      = 8
	offsetLength      = 12
	offsetMip0Size    = 16
	offsetPageSize    = 20
	OffsetSegments    = 24
	segmentSize       = 12
	OffsetPad         = OffsetSegments + NumSegments*segmentSize
	padWords          = 16
)

var (
	_ [OffsetPad + 4*padWords - PageHeaderSize]struct{}
	_ [PageHeaderSize - (OffsetPad + 4*padWords)]struct{}
)

// Segment describes one data segment of a texture page.
type Segment struct {
	BlockDataPtr uint32
	Size         uint32
	Dest         uint32
}

// Page is the texture page header.
type Page struct {
	FileInfoPtr uint32
	NamePtr     uint32
	ID          uint32
	Length      int32 // texture count
	Mip0Size    uint32
	Size        uint32
	Segment     [NumSegments]Segment
}

// DecodePage reads the texture page header at the given pointer of the memory buffer.
func DecodePage(mem []byte, ptr uint32) (Page, error) {
	b, err := record(mem, ptr, PageHeaderSize)
	if err != nil {
		return Page{}, fmt.Errorf("decoding texture page at 0x%08x: %w", ptr, err)
	}

	le := binary.LittleEndian
	page := Page{
		FileInfoPtr: le.Uint32(b[offsetFileInfoPtr:]),
		NamePtr:     le.Uint32(b[offsetPageNamePtr:]),
		ID:          le.Uint32(b[offsetPageID:]),
		Length:      int32(le.Uint32(b[offsetLength:])),
		Mip0Size:    le.Uint32(b[offsetMip0Size:]),
		Size:        le.Uint32(b[offsetPageSize:]),
	}
	for i := range page.Segment {
		seg := b[OffsetSegments+i*segmentSize:]
		page.Segment[i] = Segment{
			BlockDataPtr: le.Uint32(seg[0:]),
			Size:         le.Uint32(seg[4:]),
			Dest:         le.Uint32(seg[8:]),
		}
	}
	return page, nil
}

// Encode writes the page header in its binary layout, padding words are zero.
func (p Page) Encode() []byte {
	b := make([]byte, PageHeaderSize)
	le := binary.LittleEndian
	le.PutUint32(b[offsetFileInfoPtr:], p.FileInfoPtr)
	le.PutUint32(b[offsetPageNamePtr:], p.NamePtr)
	le.PutUint32(b[offsetPageID:], p.ID)
	le.PutUint32(b[offsetLength:], uint32(p.Length))
	le.PutUint32(b[offsetMip0Size:], p.Mip0Size)
	le.PutUint32(b[offsetPageSize:], p.Size)
	for i, seg := range p.Segment {
		off := OffsetSegments + i*segmentSize
		le.PutUint32(b[off:], seg.BlockDataPtr)
		le.PutUint32(b[off+4:], seg.Size)
		le.PutUint32(b[off+8:], seg.Dest)
	}
	return b
}

// TexturePtr returns the texture record pointer stored at the given index of the
// pointer array that follows the page header at pagePtr.
func (p Page) TexturePtr(mem []byte, pagePtr uint32, idx int) (uint32, error) {
	if idx < 0 || idx >= int(p.Length) {
		return 0, fmt.Errorf("texture index %d out of range, page has %d textures", idx, p.Length)
	}
	ptr := pagePtr + PageHeaderSize + 4*uint32(idx)
	b, err := record(mem, ptr, 4)
	if err != nil {
		return 0, fmt.Errorf("reading texture pointer %d: %w", idx, err)
	}
	return binary.LittleEndian.Uint32(b), nil
}

// TryTexture decodes the texture at the given index of the page. It returns false
// without an error if the pointer slot holds the empty sentinel.
func (p Page) TryTexture(mem []byte, pagePtr uint32, idx int, sentinel uint32) (Texture, bool, error) {
	ptr, err := p.TexturePtr(mem, pagePtr, idx)
	if err != nil {
		return Texture{}, false, err
	}
	if ptr == sentinel {
		return Texture{}, false, nil
	}

	tex, err := DecodeTexture(mem, ptr)
	if err != nil {
		return Texture{}, false, err
	}
	return tex, true, nil
}

// String returns a multi line description of the page header.
func (p Page) String() string {
	buf := &strings.Builder{}
	fmt.Fprintf(buf, "id: %d, textures: %d, mip0 size: 0x%x, size: 0x%x\n", p.ID, p.Length, p.Mip0Size, p.Size)
	for i, seg := range p.Segment {
		fmt.Fprintf(buf, "segment %d: data 0x%08x size 0x%x dest 0x%x\n", i, seg.BlockDataPtr, seg.Size, seg.Dest)
	}
	return buf.String()
}

// stringDataOffset is the offset of the characters inside an engine string object,
// the allocated length is stored in front of them.
const stringDataOffset = 4

// ReadString reads the NUL terminated engine string that the pointer refers to.
func ReadString(mem []byte, ptr uint32) (string, error) {
	start := uint64(ptr) + stringDataOffset
	if start > uint64(len(mem)) {
		return "", fmt.Errorf("reading string at 0x%08x: %w", ptr, ErrTruncated)
	}

	data := mem[start:]
	end := bytes.IndexByte(data, 0)
	if end < 0 {
		return "", fmt.Errorf("reading string at 0x%08x: missing terminator: %w", ptr, ErrTruncated)
	}
	return string(data[:end]), nil
}

// WriteString stores s as an engine string object at the given pointer and returns
// the number of bytes used.
func WriteString(mem []byte, ptr uint32, s string) (int, error) {
	size := stringDataOffset + len(s) + 1
	b, err := record(mem, ptr, size)
	if err != nil {
		return 0, fmt.Errorf("writing string at 0x%08x: %w", ptr, err)
	}
	binary.LittleEndian.PutUint32(b, uint32(len(s)+1))
	copy(b[stringDataOffset:], s)
	b[size-1] = 0
	return size, nil
}

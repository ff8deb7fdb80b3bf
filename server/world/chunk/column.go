package chunk

import (
	"bytes"

	"github.com/dm-vev/ferrite/server/protocol"
)

// SectionCount is the number of vertical sections in a Column: 384
// blocks of world height (y -64..319), matching modern Java worlds, laid
// out as 24 sections of 16 blocks each.
const SectionCount = 24

// MinY is the lowest block y coordinate a Column stores.
const MinY = -64

// ColumnPos identifies a Column by its chunk coordinate.
type ColumnPos struct {
	X, Z int32
}

// Column is the full block storage for one 16-wide, 16-deep vertical
// strip of the world, spanning SectionCount sections from bottom to top,
// per spec.md §4.4.
type Column struct {
	Pos      ColumnPos
	sections [SectionCount]*Section
	biomes   [SectionCount]int32 // one biome id per section, uniform within it
}

// NewColumn returns an empty column at pos; all sections are allocated
// lazily by SetBlock.
func NewColumn(pos ColumnPos) *Column {
	return &Column{Pos: pos}
}

func sectionAt(y int) int { return (y - MinY) / SectionHeight }

// SetBlock lazily allocates the covering section and writes id at the
// world-space coordinate, per spec.md §4.4 "set_block".
func (c *Column) SetBlock(x, y, z int, id int32) {
	si := sectionAt(y)
	if si < 0 || si >= SectionCount {
		return
	}
	sec := c.sections[si]
	if sec == nil {
		sec = NewSection()
		c.sections[si] = sec
	}
	ly := y - MinY - si*SectionHeight
	sec.Set(x, ly, z, id)
}

// Block returns the block id at the world-space coordinate; a section
// that has never been allocated reads as 0 (air), per spec.md §4.4.
func (c *Column) Block(x, y, z int) int32 {
	si := sectionAt(y)
	if si < 0 || si >= SectionCount {
		return 0
	}
	sec := c.sections[si]
	if sec == nil {
		return 0
	}
	ly := y - MinY - si*SectionHeight
	return sec.Get(x, ly, z)
}

// Heightmap computes the MOTION_BLOCKING heightmap: for each of the 256
// columns, the y of the highest non-air block, or MinY-1 when the whole
// column is air.
func (c *Column) Heightmap() [256]int {
	var hm [256]int
	for x := 0; x < SectionWidth; x++ {
		for z := 0; z < SectionWidth; z++ {
			top := MinY - 1
			for si := SectionCount - 1; si >= 0; si-- {
				sec := c.sections[si]
				if sec == nil || sec.Empty() {
					continue
				}
				found := false
				for ly := SectionHeight - 1; ly >= 0; ly-- {
					if sec.Get(x, ly, z) != 0 {
						top = MinY + si*SectionHeight + ly
						found = true
						break
					}
				}
				if found {
					break
				}
			}
			hm[z*SectionWidth+x] = top
		}
	}
	return hm
}

// EncodeFull serializes all SectionCount sections from bottom to top
// (a section that was never allocated is encoded as an empty one), the
// form spec.md §4.4 describes for a full chunk: block count,
// bits-per-entry, optional palette, packed data, for each section.
func (c *Column) EncodeFull() []byte {
	buf := new(bytes.Buffer)
	for _, sec := range c.sections {
		if sec == nil {
			sec = NewSection()
		}
		encodeSection(buf, sec)
	}
	return buf.Bytes()
}

func encodeSection(buf *bytes.Buffer, sec *Section) {
	protocol.WriteUint16(buf, uint16(sec.BlockCount()))
	buf.WriteByte(byte(sec.BitsPerEntry()))
	if sec.BitsPerEntry() <= maxBitsPerEntry {
		protocol.WriteVarInt(buf, int32(len(sec.Palette())))
		for _, id := range sec.Palette() {
			protocol.WriteVarInt(buf, id)
		}
	}
	words := sec.Words()
	protocol.WriteVarInt(buf, int32(len(words)))
	for _, w := range words {
		protocol.WriteInt64(buf, int64(w))
	}
}

// AllocatedSections reports which sections have been touched at least
// once, lowest first.
func (c *Column) AllocatedSections() []bool {
	out := make([]bool, SectionCount)
	for i, s := range c.sections {
		out[i] = s != nil
	}
	return out
}

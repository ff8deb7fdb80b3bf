// Package chunk implements the palette-compacted block storage of
// spec.md §4.4: a Section is a 16x16x16 cube of block state ids backed
// by a BitBuffer, growing its bits-per-entry as its palette fills but
// never shrinking within its lifetime; a Column stacks Sections bottom
// to top and tracks per-column heightmap data.
package chunk

import (
	"github.com/brentp/intintmap"
	"github.com/dm-vev/ferrite/server/protocol"
)

const (
	// SectionWidth is the number of blocks along X and Z in one section.
	SectionWidth = 16
	// SectionHeight is the number of blocks along Y in one section.
	SectionHeight = 16
	sectionVolume = SectionWidth * SectionWidth * SectionHeight

	minBitsPerEntry = 4
	maxBitsPerEntry = 15 // beyond this, vanilla switches to a direct (global) palette
)

// Section is one 16x16x16 slice of a Column's block storage. The
// palette's reverse lookup (block id -> palette index) is backed by an
// intintmap.Map rather than a Go map: Set is the hottest path in world
// generation and this avoids the interface-boxing a map[int32]int would
// need for its key.
type Section struct {
	palette      []int32
	paletteIdx   *intintmap.Map
	storage      *protocol.BitBuffer
	bitsPerEntry int
	blockCount   int
}

// NewSection returns an empty section whose sole palette entry is air
// (block id 0).
func NewSection() *Section {
	s := &Section{
		palette:      []int32{0},
		paletteIdx:   intintmap.New(8, 0.6),
		bitsPerEntry: minBitsPerEntry,
	}
	s.paletteIdx.Put(0, 0)
	s.storage = protocol.NewBitBuffer(s.bitsPerEntry, sectionVolume)
	return s
}

func sectionIndex(x, y, z int) int {
	return (y*SectionWidth+z)*SectionWidth + x
}

// Get returns the block id at the local (0..15) coordinate.
func (s *Section) Get(x, y, z int) int32 {
	idx := s.storage.Get(sectionIndex(x, y, z))
	if int(idx) >= len(s.palette) {
		return 0
	}
	return s.palette[idx]
}

// Set stores id at the local coordinate, growing the palette and, if
// necessary, the bits-per-entry of the backing storage. Bits-per-entry
// never shrinks once grown, per spec.md §4.4.
func (s *Section) Set(x, y, z int, id int32) {
	i := sectionIndex(x, y, z)
	prev := s.storage.Get(i)
	prevID := int32(0)
	if int(prev) < len(s.palette) {
		prevID = s.palette[prev]
	}

	pi64, ok := s.paletteIdx.Get(int64(id))
	pi := int(pi64)
	if !ok {
		pi = len(s.palette)
		s.palette = append(s.palette, id)
		s.paletteIdx.Put(int64(id), int64(pi))
		if needed := protocol.BitsForPaletteSize(len(s.palette), minBitsPerEntry); needed > s.bitsPerEntry {
			s.grow(needed)
		}
	}
	s.storage.Set(i, uint64(pi))

	if prevID == 0 && id != 0 {
		s.blockCount++
	} else if prevID != 0 && id == 0 {
		s.blockCount--
	}
}

// grow reallocates storage at a wider bits-per-entry, re-encoding every
// existing entry.
func (s *Section) grow(bits int) {
	if bits > maxBitsPerEntry {
		bits = maxBitsPerEntry
	}
	next := protocol.NewBitBuffer(bits, sectionVolume)
	for i := 0; i < sectionVolume; i++ {
		next.Set(i, s.storage.Get(i))
	}
	s.storage = next
	s.bitsPerEntry = bits
}

// Empty reports whether every block in the section is air.
func (s *Section) Empty() bool { return s.blockCount == 0 }

// BlockCount is the number of non-air blocks, used for the wire encoding
// the spec names in §4.4.
func (s *Section) BlockCount() int { return s.blockCount }

// BitsPerEntry returns the current width of the backing storage.
func (s *Section) BitsPerEntry() int { return s.bitsPerEntry }

// Palette returns the section's current id palette, lowest index first.
func (s *Section) Palette() []int32 { return s.palette }

// Words returns the raw packed long array backing the section, for wire
// encoding.
func (s *Section) Words() []uint64 { return s.storage.Words() }

package chunk

import "testing"

func TestSectionSetGetRoundTrip(t *testing.T) {
	s := NewSection()
	if got := s.Get(0, 0, 0); got != 0 {
		t.Fatalf("fresh section block = %d, want 0", got)
	}
	s.Set(1, 2, 3, 55)
	if got := s.Get(1, 2, 3); got != 55 {
		t.Fatalf("Get after Set = %d, want 55", got)
	}
	if got := s.Get(0, 0, 0); got != 0 {
		t.Fatalf("neighboring cell disturbed: got %d", got)
	}
}

func TestSectionPaletteGrowthNeverShrinks(t *testing.T) {
	s := NewSection()
	for i := 0; i < 20; i++ {
		s.Set(i%16, 0, 0, int32(i+1))
	}
	bits := s.BitsPerEntry()
	if bits < minBitsPerEntry {
		t.Fatalf("bits-per-entry %d below minimum", bits)
	}
	// Overwriting cells back to a value already in the palette must never
	// shrink bits-per-entry.
	for i := 0; i < 20; i++ {
		s.Set(i%16, 0, 0, 1)
	}
	if s.BitsPerEntry() < bits {
		t.Fatalf("bits-per-entry shrank from %d to %d", bits, s.BitsPerEntry())
	}
}

func TestColumnBlockNeverWrittenReadsZero(t *testing.T) {
	c := NewColumn(ColumnPos{X: 7, Z: -3})
	if got := c.Block(5, 100, 5); got != 0 {
		t.Fatalf("unwritten block = %d, want 0", got)
	}
	c.SetBlock(5, 100, 5, 9)
	if got := c.Block(5, 100, 5); got != 9 {
		t.Fatalf("Block after SetBlock = %d, want 9", got)
	}
}

func TestColumnHeightmapTracksTopNonAirBlock(t *testing.T) {
	c := NewColumn(ColumnPos{})
	c.SetBlock(0, -60, 0, 1)
	c.SetBlock(0, 10, 0, 1)
	c.SetBlock(0, 5, 0, 1)
	hm := c.Heightmap()
	if hm[0] != 10 {
		t.Fatalf("heightmap[0] = %d, want 10", hm[0])
	}
}

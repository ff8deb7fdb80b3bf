package chunk

import (
	"github.com/dm-vev/ferrite/server/protocol"
	"github.com/dm-vev/ferrite/server/session/packet"
)

// fullBrightLight is a full 4096-entry nibble array (2048 bytes) of value
// 0xF, used for every section's sky light: the core has no block/sky
// light simulation (a spec.md Non-goal), so every loaded section is
// reported fully lit.
var fullBrightLight = func() []byte {
	b := make([]byte, 2048)
	for i := range b {
		b[i] = 0xFF
	}
	return b
}()

// ToChunkDataAndUpdateLight builds the clientbound packet for a fully
// generated column, per spec.md §4.4's field list. Heightmap entries are
// offset so the world's lowest all-air column encodes as 0, since the
// wire's 9-bit entries cannot hold a negative y.
func (c *Column) ToChunkDataAndUpdateLight() packet.ChunkDataAndUpdateLight {
	hm := c.Heightmap()
	for i, h := range hm {
		hm[i] = h - (MinY - 1)
	}
	allocated := c.AllocatedSections()

	var skyMask, emptySkyMask []int64
	var skyLight [][]byte
	bit := func(mask *[]int64, i int) {
		word := i / 64
		for len(*mask) <= word {
			*mask = append(*mask, 0)
		}
		(*mask)[word] |= int64(1) << uint(i%64)
	}
	for i, present := range allocated {
		if present {
			bit(&skyMask, i)
			skyLight = append(skyLight, fullBrightLight)
		} else {
			bit(&emptySkyMask, i)
		}
	}

	return packet.ChunkDataAndUpdateLight{
		ChunkX:         c.Pos.X,
		ChunkZ:         c.Pos.Z,
		Heightmap:      protocol.Heightmap(hm),
		Data:           c.EncodeFull(),
		BlockEntities:  0,
		TrustEdges:     true,
		SkyLightMask:   skyMask,
		BlockLightMask: nil,
		EmptySkyMask:   emptySkyMask,
		EmptyBlockMask: allOnesMask(len(allocated)),
		SkyLight:       skyLight,
		BlockLight:     nil,
	}
}

func allOnesMask(sections int) []int64 {
	words := (sections + 63) / 64
	out := make([]int64, words)
	for i := 0; i < sections; i++ {
		out[i/64] |= int64(1) << uint(i%64)
	}
	return out
}

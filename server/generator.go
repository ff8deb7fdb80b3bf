package server

import "github.com/dm-vev/ferrite/server/world/chunk"

// Superflat block ids, using the same small palette (bedrock/dirt/grass)
// dragonfly's generator.NewFlat layers for its non-overworld dimensions.
const (
	blockAir      int32 = 0
	blockBedrock  int32 = 33
	blockDirt     int32 = 10
	blockGrass    int32 = 9
	surfaceY            = 4 // number of solid layers stacked from chunk.MinY
)

// FlatGenerator returns a Generator producing a superflat column:
// bedrock at the world floor, two dirt layers, one grass layer, air
// above, the way dragonfly's generator.NewFlat lays out a fixed block
// list per dimension, adapted here to a single default overworld-style
// layout instead of one list per dimension.
func FlatGenerator() func(cx, cz int32) (*chunk.Column, error) {
	return func(cx, cz int32) (*chunk.Column, error) {
		col := chunk.NewColumn(chunk.ColumnPos{X: cx, Z: cz})
		for x := 0; x < chunk.SectionWidth; x++ {
			for z := 0; z < chunk.SectionWidth; z++ {
				col.SetBlock(x, chunk.MinY, z, blockBedrock)
				col.SetBlock(x, chunk.MinY+1, z, blockDirt)
				col.SetBlock(x, chunk.MinY+2, z, blockDirt)
				col.SetBlock(x, chunk.MinY+3, z, blockGrass)
			}
		}
		return col, nil
	}
}

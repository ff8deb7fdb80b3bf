// Package world ties the chunk provider, entity registry and visibility
// engine together behind one tick step, per spec.md §4.6/§5.
package world

import (
	"sort"

	"github.com/dm-vev/ferrite/server/world/chunk"
	"github.com/dm-vev/ferrite/server/world/entity"
	"github.com/dm-vev/ferrite/server/world/generation"
	"github.com/dm-vev/ferrite/server/world/worldid"
)

// Loader is the chunk-loader record of spec.md §3: a view radius around
// one entity's current chunk position, and the set of coordinates
// currently loaded on its behalf.
type Loader struct {
	EntityID worldid.EntityID
	Radius   int32

	center    chunk.ColumnPos
	hasCenter bool
	loaded    map[chunk.ColumnPos]struct{}
}

// NewLoader returns a Loader for id with the given view radius in chunks.
func NewLoader(id worldid.EntityID, radius int32) *Loader {
	return &Loader{EntityID: id, Radius: radius, loaded: make(map[chunk.ColumnPos]struct{})}
}

// Loaded reports whether pos is currently in the loader's window.
func (l *Loader) Loaded(pos chunk.ColumnPos) bool {
	_, ok := l.loaded[pos]
	return ok
}

// chunkWindow returns every coordinate in the square
// [cx-r, cx+r] x [cz-r, cz+r], nearest-first by max-norm distance from
// the center (ties broken by X then Z), per spec.md §4.6 "Loads must be
// issued nearest-first".
func chunkWindow(center chunk.ColumnPos, radius int32) []chunk.ColumnPos {
	var out []chunk.ColumnPos
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			out = append(out, chunk.ColumnPos{X: center.X + dx, Z: center.Z + dz})
		}
	}
	maxNorm := func(p chunk.ColumnPos) int32 {
		dx, dz := p.X-center.X, p.Z-center.Z
		if dx < 0 {
			dx = -dx
		}
		if dz < 0 {
			dz = -dz
		}
		if dx > dz {
			return dx
		}
		return dz
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := maxNorm(out[i]), maxNorm(out[j])
		if di != dj {
			return di < dj
		}
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Z < out[j].Z
	})
	return out
}

// Move recomputes the loader's window for a new center chunk position.
// It reports the SetCenterChunk that must be sent (when the center
// changed) and the ordered load/unload coordinate sets to hand to the
// chunk provider, per spec.md §4.6.
func (l *Loader) Move(center chunk.ColumnPos) (changed bool, loads, unloads []chunk.ColumnPos) {
	if l.hasCenter && l.center == center {
		return false, nil, nil
	}
	l.center = center
	l.hasCenter = true

	window := chunkWindow(center, l.Radius)
	inWindow := make(map[chunk.ColumnPos]struct{}, len(window))
	for _, p := range window {
		inWindow[p] = struct{}{}
		if _, ok := l.loaded[p]; !ok {
			loads = append(loads, p)
		}
	}
	for p := range l.loaded {
		if _, ok := inWindow[p]; !ok {
			unloads = append(unloads, p)
		}
	}
	for _, p := range loads {
		l.loaded[p] = struct{}{}
	}
	for _, p := range unloads {
		delete(l.loaded, p)
	}
	return true, loads, unloads
}

// Remove drops every currently loaded coordinate, returning them so the
// caller can unload each from the provider; used when the loader's
// entity is removed from the world.
func (l *Loader) Remove() []chunk.ColumnPos {
	out := make([]chunk.ColumnPos, 0, len(l.loaded))
	for p := range l.loaded {
		out = append(out, p)
	}
	l.loaded = make(map[chunk.ColumnPos]struct{})
	return out
}

// loaderSystemSink adapts generation.Sink to drive both the chunk-loader
// bookkeeping (nothing further is needed there: Loader.Move already
// updated the loaded set optimistically) and delivery of wire frames to
// the owning player's session, per spec.md §4.5/§4.6.
type loaderSystemSink struct {
	registry *entity.Registry
	out      Outbound
}

func (s *loaderSystemSink) SendColumn(id worldid.EntityID, col *chunk.Column) {
	r := s.registry.Get(id)
	if r == nil || r.Player == nil {
		return
	}
	pk := col.ToChunkDataAndUpdateLight()
	body := encodeChunkDataAndLight(pk)
	s.out.SendPlayPacket(id, chunkDataPacketID, body, true)
}

func (s *loaderSystemSink) SendUnload(id worldid.EntityID, pos chunk.ColumnPos) {
	r := s.registry.Get(id)
	if r == nil || r.Player == nil {
		return
	}
	body := encodeUnloadChunk(pos)
	s.out.SendPlayPacket(id, unloadChunkPacketID, body, true)
}

var _ generation.Sink = (*loaderSystemSink)(nil)

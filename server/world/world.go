// Package world implements the world simulation core of spec.md §4.6-§4.8
// and §5: it ties the entity registry, the chunk provider, the
// chunk-loader system and the visibility engine together behind one
// tick step, and owns the entity registry, whose RWMutex is held only
// inside each Registry call; the tick works on the copy Registry.Snapshot
// returns and does not hold that lock across the step.
package world

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/dm-vev/ferrite/server/session/packet"
	"github.com/dm-vev/ferrite/server/world/chunk"
	"github.com/dm-vev/ferrite/server/world/entity"
	"github.com/dm-vev/ferrite/server/world/generation"
	"github.com/dm-vev/ferrite/server/world/worldid"
	"github.com/google/uuid"
)

const (
	chunkDataPacketID   = packet.IDChunkDataAndLight
	unloadChunkPacketID = packet.IDUnloadChunk
	setCenterChunkID    = packet.IDSetCenterChunk
)

func encodeChunkDataAndLight(pk packet.ChunkDataAndUpdateLight) []byte {
	buf := new(bytes.Buffer)
	if err := packet.EncodeChunkDataAndUpdateLight(buf, pk); err != nil {
		return nil
	}
	return buf.Bytes()
}

func encodeUnloadChunk(pos chunk.ColumnPos) []byte {
	buf := new(bytes.Buffer)
	packet.EncodeUnloadChunk(buf, packet.UnloadChunk{ChunkX: pos.X, ChunkZ: pos.Z})
	return buf.Bytes()
}

func encodeSetCenterChunk(pos chunk.ColumnPos) []byte {
	buf := new(bytes.Buffer)
	packet.EncodeSetCenterChunk(buf, packet.SetCenterChunk{ChunkX: pos.X, ChunkZ: pos.Z})
	return buf.Bytes()
}

// PlayerConn is the write side of a logged-in player's session, as seen
// by the world core: a single method to queue one Play-state packet,
// matching session.Session.SendPlayPacket.
type PlayerConn interface {
	SendPlayPacket(packetID int32, body []byte, essential bool) error
}

// Config configures a World at construction.
type Config struct {
	Log *slog.Logger

	// Generator produces the block data for one chunk column, per
	// spec.md §6 "a chunk-generator callable (cx, cz) -> chunk bytes".
	Generator generation.Generator
	// Workers bounds the chunk-generation worker pool, default 4.
	Workers int64

	// ViewDistance is the default per-player chunk-loader radius,
	// default 8; a client's ClientSettings view distance does not change it.
	ViewDistance int32

	// TickPeriod is the fixed minimum tick period, default 50ms.
	TickPeriod   time.Duration
	ProfileEvery time.Duration
	Profiler     func(Profile)

	// VisibilityPredicate overrides the default horizontal-distance
	// visibility test of spec.md §4.7.
	VisibilityPredicate VisibilityPredicate
}

func (c *Config) applyDefaults() {
	if c.Log == nil {
		c.Log = slog.Default()
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.ViewDistance <= 0 {
		c.ViewDistance = 8
	}
	if c.TickPeriod <= 0 {
		c.TickPeriod = 50 * time.Millisecond
	}
	if c.ProfileEvery <= 0 {
		c.ProfileEvery = 3 * time.Second
	}
}

// World owns the live entity registry, the chunk provider and every
// player's chunk-loader record, and drives them from a single tick
// step, per spec.md §5.
type World struct {
	log *slog.Logger
	cfg Config

	registry *entity.Registry
	provider *generation.Provider
	sched    *Scheduler

	mu      sync.Mutex
	loaders map[worldid.EntityID]*Loader
	conns   map[worldid.EntityID]PlayerConn
}

// NewWorld constructs a World. cfg.Generator must be non-nil.
func NewWorld(cfg Config) *World {
	cfg.applyDefaults()
	w := &World{
		log:      cfg.Log,
		cfg:      cfg,
		registry: entity.NewRegistry(),
		loaders:  make(map[worldid.EntityID]*Loader),
		conns:    make(map[worldid.EntityID]PlayerConn),
	}
	w.provider = generation.NewProvider(generation.Config{
		Log:       cfg.Log,
		Generator: cfg.Generator,
		Registry:  registryAdapter{w.registry},
		Sink:      &loaderSystemSink{registry: w.registry, out: w},
		Workers:   cfg.Workers,
	})
	w.sched = &Scheduler{
		Log:          cfg.Log,
		Period:       w.cfg.TickPeriod,
		ProfileEvery: w.cfg.ProfileEvery,
		Profiler:     cfg.Profiler,
		Step:         w.tick,
	}
	return w
}

type registryAdapter struct{ reg *entity.Registry }

func (r registryAdapter) Contains(id worldid.EntityID) bool { return r.reg.Contains(id) }

// Registry exposes the entity registry for reading and mutating
// entities, per spec.md §6 "an EntityRegistry handle".
func (w *World) Registry() *entity.Registry { return w.registry }

// Run drives the tick scheduler until ctx is cancelled. It must be
// called on the dedicated world goroutine described in spec.md §5.
func (w *World) Run(ctx context.Context) { w.sched.Run(ctx) }

// SendPlayPacket implements Outbound by routing to the connection
// registered for id, dropping the send silently if the player has since
// disconnected (its session will have already been removed).
func (w *World) SendPlayPacket(id worldid.EntityID, packetID int32, body []byte, essential bool) error {
	w.mu.Lock()
	conn, ok := w.conns[id]
	w.mu.Unlock()
	if !ok {
		return nil
	}
	return conn.SendPlayPacket(packetID, body, essential)
}

var _ Outbound = (*World)(nil)

// AllocateEntityID reserves the entity id a caller will later register
// with AddPlayer, so the id can be written into JoinGame before any tick
// output for the player exists.
func (w *World) AllocateEntityID() worldid.EntityID { return w.registry.Allocate() }

// AddPlayer registers a new player entity backed by conn under a
// previously allocated id, creating its chunk-loader record. It must be
// called once a session reaches Play (spec.md §4.3's LoggedIn
// transition), after the caller has sent JoinGame: from the next tick on
// the player receives SetCenterChunk and chunk data.
func (w *World) AddPlayer(id worldid.EntityID, u uuid.UUID, conn PlayerConn, loc entity.Location, viewDistance int32) worldid.EntityID {
	if viewDistance <= 0 {
		viewDistance = w.cfg.ViewDistance
	}
	r := entity.NewRecord(id, u, entity.KindPlayer, 0)
	r.SetLocation(loc)
	r.Player = entity.NewPlayerData()
	r.Player.ViewDistance = viewDistance
	w.registry.Add(r)

	w.mu.Lock()
	w.loaders[id] = NewLoader(id, viewDistance)
	w.conns[id] = conn
	w.mu.Unlock()
	return id
}

// RemovePlayer unregisters a player, unloading every chunk its loader
// held and dropping it from any waiters lists, per spec.md §3
// "A player removed from the registry must first be removed from any
// waiters lists."
func (w *World) RemovePlayer(id worldid.EntityID) {
	w.mu.Lock()
	loader, ok := w.loaders[id]
	delete(w.loaders, id)
	delete(w.conns, id)
	w.mu.Unlock()

	if ok {
		for _, pos := range loader.Remove() {
			w.provider.UnloadChunk(id, pos.X, pos.Z)
		}
	}
	w.registry.Remove(id)
}

// SetPlayerPosition updates a player's reported position.
func (w *World) SetPlayerPosition(id worldid.EntityID, x, y, z float64, onGround bool) {
	r := w.registry.Get(id)
	if r == nil {
		return
	}
	loc := r.Location()
	loc.Pos[0], loc.Pos[1], loc.Pos[2] = x, y, z
	loc.OnGround = onGround
	r.SetLocation(loc)
}

// SetPlayerRotation updates a player's reported facing.
func (w *World) SetPlayerRotation(id worldid.EntityID, yaw, pitch float32, onGround bool) {
	r := w.registry.Get(id)
	if r == nil {
		return
	}
	loc := r.Location()
	loc.Yaw, loc.Pitch = yaw, pitch
	loc.OnGround = onGround
	r.SetLocation(loc)
}

// Broadcast queues a chat message to every currently registered player,
// per spec.md §6 "a broadcast operation to all or filtered players".
func (w *World) Broadcast(message string) {
	for _, r := range w.registry.Snapshot() {
		if r.Player == nil {
			continue
		}
		buf := new(bytes.Buffer)
		body := fmt.Sprintf(`{"text":%q}`, message)
		if err := packet.EncodeChatMessageClientbound(buf, packet.ChatMessageClientbound{JSON: body, Position: 0}); err != nil {
			continue
		}
		w.SendPlayPacket(r.ID, packet.IDChatMessageClientbound, buf.Bytes(), true)
	}
}

// floorDiv16 maps a world-space coordinate to its containing chunk
// coordinate, flooring toward negative infinity so negative coordinates
// divide the same way vanilla does.
func floorDiv16(v float64) int32 {
	return int32(math.Floor(v / 16))
}

// tick performs one world step, per spec.md §4.6-§4.8 and §5's ordering:
// for each player, move its chunk-loader window (SetCenterChunk, then
// load/unload requests to the provider); then drain the provider (pending
// unload packets and ready-chunk deliveries); then run the visibility
// pass (entity updates and visibility transitions).
func (w *World) tick() {
	snap := w.registry.Snapshot()

	w.mu.Lock()
	loaders := make(map[worldid.EntityID]*Loader, len(w.loaders))
	for id, l := range w.loaders {
		loaders[id] = l
	}
	w.mu.Unlock()

	for _, r := range snap {
		if r.Player == nil {
			continue
		}
		loader, ok := loaders[r.ID]
		if !ok {
			continue
		}
		loc := r.Location()
		center := chunk.ColumnPos{X: floorDiv16(loc.Pos.X()), Z: floorDiv16(loc.Pos.Z())}
		changed, loads, unloads := loader.Move(center)
		if !changed {
			continue
		}
		r.Player.LastChunkCenter = center
		w.SendPlayPacket(r.ID, setCenterChunkID, encodeSetCenterChunk(center), true)
		for _, pos := range loads {
			w.provider.LoadChunk(r.ID, pos.X, pos.Z)
		}
		for _, pos := range unloads {
			w.provider.UnloadChunk(r.ID, pos.X, pos.Z)
		}
	}

	w.provider.Tick()

	RunVisibilityPass(w.registry, snap, w, w.cfg.VisibilityPredicate)
}

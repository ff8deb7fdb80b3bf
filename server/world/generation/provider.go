// Package generation implements the chunk provider contract of
// spec.md §4.5: deduplicated, asynchronous chunk generation behind a
// worker pool, with waiter lists per in-flight coordinate. The entry
// table is split into fnv1a-hashed shards, each with its own lock and
// its own per-coordinate entry lock beneath that, so concurrent
// load_chunk calls for distinct coordinates rarely contend.
package generation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dm-vev/ferrite/server/world/chunk"
	"github.com/dm-vev/ferrite/server/world/worldid"
	"github.com/segmentio/fasthash/fnv1a"
	"golang.org/x/sync/semaphore"
)

// Generator produces the block data for one chunk column. Errors are
// fatal for that coordinate, per spec.md §4.5; the provider logs them
// and drops the entry without notifying waiters.
type Generator func(cx, cz int32) (*chunk.Column, error)

// Registry reports whether an entity is still present, used to decide
// whether a completed generation's waiter should actually receive it.
type Registry interface {
	Contains(id worldid.EntityID) bool
}

// Sink is where the provider delivers results: a ready column to a
// waiting entity, or an unload notice.
type Sink interface {
	SendColumn(id worldid.EntityID, col *chunk.Column)
	SendUnload(id worldid.EntityID, pos chunk.ColumnPos)
}

type entryState int

const (
	stateGenerating entryState = iota
	stateReady
	stateFailed
)

type entry struct {
	mu      sync.Mutex
	state   entryState
	column  *chunk.Column
	waiters map[worldid.EntityID]struct{}
}

// entryShardCount bounds the number of independent locks guarding the
// provider's in-flight entry table. Coordinates hash to a shard via
// fnv1a so that load_chunk calls for distinct, unrelated columns rarely
// contend on the same lock, per spec.md §4.5's "concurrent load_chunk
// calls for distinct coordinates must not serialize on one lock".
const entryShardCount = 16

type entryShard struct {
	mu      sync.RWMutex
	entries map[chunk.ColumnPos]*entry
}

func shardIndex(pos chunk.ColumnPos) uint32 {
	h := fnv1a.HashUint32(uint32(pos.X))
	h = fnv1a.AddUint32(h, uint32(pos.Z))
	return h % entryShardCount
}

// Config configures a Provider.
type Config struct {
	Log       *slog.Logger
	Generator Generator
	Registry  Registry
	Sink      Sink
	Workers   int64 // max concurrent generation goroutines, default 4
}

// Provider implements load_chunk/unload_chunk and the per-tick drain
// described in spec.md §4.5.
type Provider struct {
	log      *slog.Logger
	gen      Generator
	registry Registry
	sink     Sink
	sem      *semaphore.Weighted

	shards [entryShardCount]entryShard

	completedMu sync.Mutex
	completed   []chunk.ColumnPos

	unloadMu sync.Mutex
	unloads  []unloadReq
}

type unloadReq struct {
	id  worldid.EntityID
	pos chunk.ColumnPos
}

// NewProvider constructs a Provider. cfg.Generator and cfg.Registry and
// cfg.Sink must be non-nil.
func NewProvider(cfg Config) *Provider {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	p := &Provider{
		log:      cfg.Log,
		gen:      cfg.Generator,
		registry: cfg.Registry,
		sink:     cfg.Sink,
		sem:      semaphore.NewWeighted(cfg.Workers),
	}
	for i := range p.shards {
		p.shards[i].entries = make(map[chunk.ColumnPos]*entry)
	}
	return p
}

// LoadChunk requests the column at (cx, cz) for id, per spec.md §4.5
// "load_chunk": idempotent, deduplicated, delivering immediately if the
// coordinate is already ready.
func (p *Provider) LoadChunk(id worldid.EntityID, cx, cz int32) {
	pos := chunk.ColumnPos{X: cx, Z: cz}
	shard := &p.shards[shardIndex(pos)]

	shard.mu.Lock()
	e, ok := shard.entries[pos]
	if !ok {
		e = &entry{state: stateGenerating, waiters: map[worldid.EntityID]struct{}{id: {}}}
		shard.entries[pos] = e
		shard.mu.Unlock()
		p.startGeneration(pos, e)
		return
	}
	shard.mu.Unlock()

	e.mu.Lock()
	switch e.state {
	case stateGenerating:
		e.waiters[id] = struct{}{}
		e.mu.Unlock()
	case stateReady:
		col := e.column
		e.mu.Unlock()
		p.sink.SendColumn(id, col)
	case stateFailed:
		e.mu.Unlock()
	}
}

// UnloadChunk removes id from any waiters of (cx, cz) and queues an
// Unload delivery for the next tick, per spec.md §4.5 "unload_chunk".
func (p *Provider) UnloadChunk(id worldid.EntityID, cx, cz int32) {
	pos := chunk.ColumnPos{X: cx, Z: cz}
	shard := &p.shards[shardIndex(pos)]
	shard.mu.RLock()
	e, ok := shard.entries[pos]
	shard.mu.RUnlock()
	if ok {
		e.mu.Lock()
		delete(e.waiters, id)
		e.mu.Unlock()
	}
	p.unloadMu.Lock()
	p.unloads = append(p.unloads, unloadReq{id: id, pos: pos})
	p.unloadMu.Unlock()
}

func (p *Provider) startGeneration(pos chunk.ColumnPos, e *entry) {
	go func() {
		ctx := context.Background()
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer p.sem.Release(1)

		col, err := p.gen(pos.X, pos.Z)

		e.mu.Lock()
		if err != nil {
			e.state = stateFailed
			e.mu.Unlock()
			p.log.Warn("chunk generation failed", "x", pos.X, "z", pos.Z, "err", err)
			shard := &p.shards[shardIndex(pos)]
			shard.mu.Lock()
			delete(shard.entries, pos)
			shard.mu.Unlock()
			return
		}
		e.state = stateReady
		e.column = col
		e.mu.Unlock()

		p.completedMu.Lock()
		p.completed = append(p.completed, pos)
		p.completedMu.Unlock()
	}()
}

// Tick performs the per-tick drain described in spec.md §4.5: emit all
// pending Unload packets, then deliver every completed generation to its
// still-registered waiters and drop the entry.
func (p *Provider) Tick() {
	p.unloadMu.Lock()
	unloads := p.unloads
	p.unloads = nil
	p.unloadMu.Unlock()
	for _, u := range unloads {
		p.sink.SendUnload(u.id, u.pos)
	}

	p.completedMu.Lock()
	completed := p.completed
	p.completed = nil
	p.completedMu.Unlock()

	for _, pos := range completed {
		shard := &p.shards[shardIndex(pos)]
		shard.mu.Lock()
		e, ok := shard.entries[pos]
		if ok {
			delete(shard.entries, pos)
		}
		shard.mu.Unlock()
		if !ok {
			continue
		}
		e.mu.Lock()
		col := e.column
		waiters := make([]worldid.EntityID, 0, len(e.waiters))
		for id := range e.waiters {
			waiters = append(waiters, id)
		}
		e.mu.Unlock()

		for _, id := range waiters {
			if p.registry.Contains(id) {
				p.sink.SendColumn(id, col)
			}
		}
	}
}

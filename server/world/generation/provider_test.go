package generation

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dm-vev/ferrite/server/world/chunk"
	"github.com/dm-vev/ferrite/server/world/worldid"
)

type fakeRegistry struct{}

func (fakeRegistry) Contains(worldid.EntityID) bool { return true }

type fakeSink struct {
	mu        sync.Mutex
	delivered []worldid.EntityID
	unloaded  []worldid.EntityID
}

func (s *fakeSink) SendColumn(id worldid.EntityID, col *chunk.Column) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, id)
}

func (s *fakeSink) SendUnload(id worldid.EntityID, pos chunk.ColumnPos) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unloaded = append(s.unloaded, id)
}

func TestProviderDedupesConcurrentLoads(t *testing.T) {
	var generations atomic.Int32
	sink := &fakeSink{}
	p := NewProvider(Config{
		Generator: func(cx, cz int32) (*chunk.Column, error) {
			generations.Add(1)
			time.Sleep(10 * time.Millisecond)
			return chunk.NewColumn(chunk.ColumnPos{X: cx, Z: cz}), nil
		},
		Registry: fakeRegistry{},
		Sink:     sink,
	})

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id worldid.EntityID) {
			defer wg.Done()
			p.LoadChunk(id, 7, -3)
		}(worldid.EntityID(i))
	}
	wg.Wait()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		p.Tick()
		sink.mu.Lock()
		delivered := len(sink.delivered)
		sink.mu.Unlock()
		if delivered == n {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	if got := generations.Load(); got != 1 {
		t.Fatalf("generations = %d, want 1", got)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.delivered) != n {
		t.Fatalf("deliveries = %d, want %d", len(sink.delivered), n)
	}
}

func TestProviderUnloadRemovesWaiterAndQueuesUnload(t *testing.T) {
	block := make(chan struct{})
	sink := &fakeSink{}
	p := NewProvider(Config{
		Generator: func(cx, cz int32) (*chunk.Column, error) {
			<-block
			return chunk.NewColumn(chunk.ColumnPos{X: cx, Z: cz}), nil
		},
		Registry: fakeRegistry{},
		Sink:     sink,
	})

	p.LoadChunk(1, 0, 0)
	p.LoadChunk(2, 0, 0)
	p.UnloadChunk(1, 0, 0)
	close(block)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		p.Tick()
		sink.mu.Lock()
		done := len(sink.delivered) == 1 && len(sink.unloaded) == 1
		sink.mu.Unlock()
		if done {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.delivered) != 1 || sink.delivered[0] != 2 {
		t.Fatalf("delivered = %v, want [2]", sink.delivered)
	}
	if len(sink.unloaded) != 1 || sink.unloaded[0] != 1 {
		t.Fatalf("unloaded = %v, want [1]", sink.unloaded)
	}
}
